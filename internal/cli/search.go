package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search lore by keyword",
		Long:  "Case-insensitive search over theme, quote, source and character.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLoreSearch,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	loreCmd.AddCommand(cmd)
}

func runLoreSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	results := a.Search(cmd.Context(), query)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	printOut(cmd, results)
}
