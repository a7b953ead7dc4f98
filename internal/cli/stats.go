package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		Run:   runLoreStats,
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List themes by frequency",
		Run:   runLoreThemes,
	}

	loreCmd.AddCommand(statsCmd, themesCmd)
}

func runLoreStats(cmd *cobra.Command, args []string) {
	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	printOut(cmd, a.Stats(cmd.Context()))
}

func runLoreThemes(cmd *cobra.Command, args []string) {
	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	printOut(cmd, a.Themes(cmd.Context()))
}
