package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/persona"
)

func init() {
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Persona synthesis",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Synthesize a persona from a seed",
		Long:  "Synthesize a persona from a seed file or flags. Flags override fields from --file.",
		Run:   runPersonaCreate,
	}
	createCmd.Flags().String("file", "", "JSON file with the persona seed (- for stdin)")
	createCmd.Flags().String("name", "", "Persona name")
	createCmd.Flags().String("alias", "", "Alias")
	createCmd.Flags().String("universe", "", "Universe")
	createCmd.Flags().String("spawned-from", "", "Origin")
	createCmd.Flags().String("role", "", "Role, used for model routing")
	createCmd.Flags().String("tone", "", "Tone, used for model routing")
	createCmd.Flags().String("purpose", "", "Purpose")
	createCmd.Flags().String("parable", "", "Parable")
	createCmd.Flags().StringSlice("traits", nil, "Core traits (comma-separated)")
	createCmd.Flags().Bool("push", false, "Register the persona with Convex")

	personaCmd.AddCommand(createCmd)
	RootCmd.AddCommand(personaCmd)
}

func runPersonaCreate(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	push, _ := cmd.Flags().GetBool("push")

	var seed model.PersonaSeed
	if file != "" {
		if err := readJSON(cmd, file, &seed); err != nil {
			exitErr("read seed", err)
		}
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"name":         &seed.Name,
		"alias":        &seed.Alias,
		"universe":     &seed.Universe,
		"spawned-from": &seed.SpawnedFrom,
		"role":         &seed.Role,
		"tone":         &seed.Tone,
		"purpose":      &seed.Purpose,
		"parable":      &seed.Parable,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("traits") {
		seed.Traits, _ = flags.GetStringSlice("traits")
	}

	p := persona.Synthesize(seed)
	if !push {
		printOut(cmd, p)
		return
	}

	bc := newBackend()
	if !bc.Enabled() {
		exitErr("push persona", fmt.Errorf("CONVEX_URL is not set"))
	}
	res := bc.PushPersona(cmd.Context(), p)
	if res == nil {
		exitErr("push persona", fmt.Errorf("convex rejected %s", p.Identity.Designation))
	}
	printOut(cmd, map[string]any{"persona": p, "convex": res})
}
