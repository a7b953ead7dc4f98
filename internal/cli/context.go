package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble lore for a prompt",
		Long:  "Search and score lore, then greedily pack it into a character budget.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLoreContext,
	}

	cmd.Flags().IntP("budget", "b", archive.DefaultContextBudget, "Max quote characters in output")
	cmd.Flags().Bool("prompt", false, "Print the rendered prompt block instead of the scored entries")

	loreCmd.AddCommand(cmd)
}

func runLoreContext(cmd *cobra.Command, args []string) {
	budget, _ := cmd.Flags().GetInt("budget")
	prompt, _ := cmd.Flags().GetBool("prompt")
	query := strings.Join(args, " ")

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	result := a.Context(cmd.Context(), query, budget)
	if prompt {
		fmt.Fprint(cmd.OutOrStdout(), result.Prompt())
		return
	}
	printOut(cmd, result)
}
