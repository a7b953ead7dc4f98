package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/router"
)

func init() {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Route an agent to its model",
		Long:  "Print the model for an agent profile read from --file, or for a persona stored in Convex.",
		Run:   runModel,
	}

	cmd.Flags().String("file", "", "JSON file with the agent profile (- for stdin)")
	cmd.Flags().String("persona-id", "", "Convex persona id")
	cmd.MarkFlagsMutuallyExclusive("file", "persona-id")
	cmd.MarkFlagsOneRequired("file", "persona-id")

	RootCmd.AddCommand(cmd)
}

func runModel(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	personaID, _ := cmd.Flags().GetString("persona-id")

	var profile model.AgentProfile
	if file != "" {
		if err := readJSON(cmd, file, &profile); err != nil {
			exitErr("read profile", err)
		}
	} else {
		bc := newBackend()
		if !bc.Enabled() {
			exitErr("fetch persona", fmt.Errorf("CONVEX_URL is not set"))
		}
		stored := bc.FetchPersona(cmd.Context(), personaID)
		if stored == nil {
			exitErr("fetch persona", fmt.Errorf("persona %s not found", personaID))
		}
		var err error
		if profile, err = profileFromPersona(stored); err != nil {
			exitErr("decode persona", err)
		}
	}

	printOut(cmd, map[string]string{"model": router.MatchModel(profile)})
}

// profileFromPersona reads routing signals from a stored persona. Top-level
// profile fields win; purpose and traits fall back to soul_data.
func profileFromPersona(stored map[string]any) (model.AgentProfile, error) {
	raw, err := json.Marshal(stored)
	if err != nil {
		return model.AgentProfile{}, err
	}
	var profile model.AgentProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return model.AgentProfile{}, err
	}
	var p model.Persona
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.AgentProfile{}, err
	}
	soul := p.Profile(profile.Role, profile.EmotionalSignature.Tone)
	if profile.Purpose == "" {
		profile.Purpose = soul.Purpose
	}
	if len(profile.CoreTraits) == 0 {
		profile.CoreTraits = soul.CoreTraits
	}
	return profile, nil
}
