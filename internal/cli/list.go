package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lore entries",
		Run:   runLoreList,
	}

	cmd.Flags().StringP("theme", "t", "", "Filter by theme")
	cmd.Flags().StringP("character", "c", "", "Filter by character")
	cmd.Flags().String("tier", "", "Filter by tier")
	cmd.Flags().IntP("limit", "l", 0, "Max results, newest kept (0 for all)")
	cmd.Flags().Bool("ids-only", false, "Only output entry ids")

	loreCmd.AddCommand(cmd)
}

func runLoreList(cmd *cobra.Command, args []string) {
	theme, _ := cmd.Flags().GetString("theme")
	character, _ := cmd.Flags().GetString("character")
	tier, _ := cmd.Flags().GetString("tier")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	var preds []store.Predicate
	if theme != "" {
		preds = append(preds, store.ThemeIs(theme))
	}
	if character != "" {
		preds = append(preds, store.CharacterIs(character))
	}
	if tier != "" {
		preds = append(preds, store.TierIs(tier))
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	entries := a.Filter(cmd.Context(), store.All(preds...))
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	if idsOnly {
		for _, e := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
		}
		return
	}
	printOut(cmd, entries)
}
