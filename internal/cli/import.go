package cli

import (
	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/archive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import lore entries from JSON",
		Long:  "Import lore from a file or stdin. Accepts an entry array or a full NerdBible document. Imported entries get fresh ids.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLoreImport,
	}

	loreCmd.AddCommand(cmd)
}

func runLoreImport(cmd *cobra.Command, args []string) {
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		exitErr("read input", err)
	}

	entries, err := archive.DecodeEntries(data)
	if err != nil {
		exitErr("parse json", err)
	}

	a, err := openArchive(cmd.Context())
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Store().Close()

	imported, err := a.Import(cmd.Context(), entries)
	if err != nil {
		exitErr("import", err)
	}
	printOut(cmd, map[string]any{"ok": true, "imported": imported})
}
