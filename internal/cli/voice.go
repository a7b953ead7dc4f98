package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/media"
)

func init() {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Speak a line",
		Run:   runVoice,
	}

	cmd.Flags().String("text", "", "Text to speak (required)")
	cmd.Flags().String("voice", media.DefaultVoice, "Voice preset")
	cmd.Flags().StringP("out", "o", "", "Output file (default: $MEDIA_DIR/voice_<uuid>.mp3)")
	cmd.Flags().Bool("base64", false, "Print the audio as base64 instead of writing a file")
	cmd.MarkFlagRequired("text")

	RootCmd.AddCommand(cmd)
}

func runVoice(cmd *cobra.Command, args []string) {
	text, _ := cmd.Flags().GetString("text")
	voice, _ := cmd.Flags().GetString("voice")
	out, _ := cmd.Flags().GetString("out")
	inline, _ := cmd.Flags().GetBool("base64")

	if out == "" && !inline {
		out = filepath.Join(cfg.Server.MediaDir, fmt.Sprintf("voice_%s.mp3", uuid.NewString()))
	}
	if inline {
		out = ""
	}

	bridge := newMedia()
	if !bridge.Enabled() {
		exitErr("voice", fmt.Errorf("HUGGINGFACE_API_TOKEN is not set"))
	}
	result, ok := bridge.GenerateAudio(cmd.Context(), text, voice, out)
	if !ok {
		exitErr("voice", fmt.Errorf("no speech service answered"))
	}

	key := "path"
	if inline {
		key = "audio"
	}
	printOut(cmd, map[string]string{key: result, "voice": voice})
}
