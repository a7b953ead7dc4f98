package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export lore entries as JSON",
		Long:  "Write the whole NerdBible document to a JSON file. Without a path a timestamped nerdbible_export_*.json is created.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLoreExport,
	}

	loreCmd.AddCommand(cmd)
}

func runLoreExport(cmd *cobra.Command, args []string) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	written, err := a.Export(cmd.Context(), path)
	if err != nil {
		exitErr("export", err)
	}
	printOut(cmd, map[string]any{"ok": true, "path": written, "count": len(a.List(cmd.Context()))})
}
