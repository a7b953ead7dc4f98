package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/model"
)

var loreCmd = &cobra.Command{
	Use:   "lore",
	Short: "NerdBible lore archive",
	Long:  "Read and append NerdBible lore. The backend is chosen by ARCHIVE_BACKEND (file, sqlite or redis).",
}

func init() {
	addCmd := &cobra.Command{
		Use:   "add [quote]",
		Short: "Append a lore entry",
		Long:  "Append a lore entry. The quote can be a positional arg or piped via stdin.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			tier, _ := cmd.Flags().GetString("tier")
			if !model.ValidTiers[tier] {
				return fmt.Errorf("invalid --tier %q (use %q, %q, %q or %q)", tier,
					model.TierGoldenFrame, model.TierTrialRuling, model.TierVerifiedPanelQuote, model.TierSystemMessage)
			}
			return nil
		},
		Run: runLoreAdd,
	}
	addCmd.Flags().StringP("theme", "t", "", "Theme (required)")
	addCmd.Flags().StringP("source", "s", "", "Source (required)")
	addCmd.Flags().StringP("character", "c", "", "Speaking character (required)")
	addCmd.Flags().String("tier", model.TierTrialRuling, "Tier: Golden Frame, Trial Ruling, Verified Panel Quote or System Message")
	addCmd.MarkFlagRequired("theme")
	addCmd.MarkFlagRequired("source")
	addCmd.MarkFlagRequired("character")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a lore entry by id",
		Args:  cobra.ExactArgs(1),
		Run:   runLoreGet,
	}

	randomCmd := &cobra.Command{
		Use:   "random",
		Short: "Pick a random lore entry",
		Run:   runLoreRandom,
	}

	fromTrialCmd := &cobra.Command{
		Use:   "from-trial <trial.json>",
		Short: "Index a trial record's quotes as lore",
		Args:  cobra.ExactArgs(1),
		Run:   runLoreFromTrial,
	}

	loreCmd.AddCommand(addCmd, getCmd, randomCmd, fromTrialCmd)
	RootCmd.AddCommand(loreCmd)
}

func runLoreAdd(cmd *cobra.Command, args []string) {
	theme, _ := cmd.Flags().GetString("theme")
	source, _ := cmd.Flags().GetString("source")
	character, _ := cmd.Flags().GetString("character")
	tier, _ := cmd.Flags().GetString("tier")

	var quote string
	if len(args) > 0 {
		quote = strings.Join(args, " ")
	} else if in, ok := cmd.InOrStdin().(*os.File); !ok || !isTerminal(in) {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			exitErr("read stdin", err)
		}
		quote = string(b)
	}
	if strings.TrimSpace(quote) == "" {
		exitErr("add", fmt.Errorf("quote is required (positional arg or stdin)"))
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	entry, err := a.CreateEntry(cmd.Context(), theme, strings.TrimSpace(quote), source, character, tier)
	if err != nil {
		exitErr("add", err)
	}
	printOut(cmd, entry)
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

func runLoreGet(cmd *cobra.Command, args []string) {
	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	entry, err := a.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	printOut(cmd, entry)
}

func runLoreRandom(cmd *cobra.Command, args []string) {
	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	printOut(cmd, a.RandomEntry(cmd.Context()))
}

func runLoreFromTrial(cmd *cobra.Command, args []string) {
	var record model.TrialRecord
	if err := readJSON(cmd, args[0], &record); err != nil {
		exitErr("read trial", err)
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	entries, err := a.CreateEntriesFromTrial(cmd.Context(), record)
	if err != nil {
		exitErr("index trial", err)
	}
	if entries == nil {
		entries = []model.LoreEntry{}
	}
	printOut(cmd, entries)
}
