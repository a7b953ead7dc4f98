package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdscourt/canon-core/internal/chunker"
	"github.com/nerdscourt/canon-core/internal/media"
	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/trial"
)

// trialSeed is the --file layout for trial create.
type trialSeed struct {
	Title        string   `json:"title"`
	Plaintiffs   []string `json:"plaintiffs"`
	Defendants   []string `json:"defendants"`
	Charges      []string `json:"charges"`
	Tone         string   `json:"trial_tone"`
	LinkedRecord string   `json:"linked_record"`
}

type trialOutput struct {
	Trial   model.TrialRecord `json:"trial" yaml:"trial"`
	Entries []model.LoreEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Convex  map[string]any    `json:"convex,omitempty" yaml:"convex,omitempty"`
}

type playedLine struct {
	Segment int    `json:"segment" yaml:"segment"`
	Part    int    `json:"part" yaml:"part"`
	Speaker string `json:"speaker" yaml:"speaker"`
	Voice   string `json:"voice" yaml:"voice"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	OK      bool   `json:"ok" yaml:"ok"`
}

func init() {
	trialCmd := &cobra.Command{
		Use:   "trial",
		Short: "Trial records and playback",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Synthesize a trial record",
		Long:  "Synthesize a PENDING trial record from a seed file or flags. Flags override fields from --file.",
		Run:   runTrialCreate,
	}
	createCmd.Flags().String("file", "", "JSON file with the trial seed (- for stdin)")
	createCmd.Flags().String("title", "", "Trial title")
	createCmd.Flags().StringSlice("plaintiffs", nil, "Plaintiffs (comma-separated)")
	createCmd.Flags().StringSlice("defendants", nil, "Defendants (comma-separated)")
	createCmd.Flags().StringSlice("charges", nil, "Charges (comma-separated)")
	createCmd.Flags().String("tone", "", "Trial tone (default \"lore satire\")")
	createCmd.Flags().String("linked-record", "", "Linked lore id")
	createCmd.Flags().Bool("push", false, "Register the trial with Convex")
	createCmd.Flags().Bool("index", false, "Index the trial's quotes into the lore archive")

	playCmd := &cobra.Command{
		Use:   "play <script.json>",
		Short: "Voice every segment of a trial script",
		Args:  cobra.ExactArgs(1),
		Run:   runTrialPlay,
	}
	playCmd.Flags().String("voice", "", "Voice for every speaker (default: per-speaker voice)")
	playCmd.Flags().StringP("out", "o", "", "Output directory (default: $MEDIA_DIR/<script title>)")

	mediaCmd := &cobra.Command{
		Use:   "media <trial.json>",
		Short: "Generate narration, portraits and clips for a trial record",
		Args:  cobra.ExactArgs(1),
		Run:   runTrialMedia,
	}
	mediaCmd.Flags().StringP("out", "o", "", "Output directory (default: $MEDIA_DIR)")

	trialCmd.AddCommand(createCmd, playCmd, mediaCmd)
	RootCmd.AddCommand(trialCmd)
}

func runTrialCreate(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	push, _ := cmd.Flags().GetBool("push")
	index, _ := cmd.Flags().GetBool("index")

	var seed trialSeed
	if file != "" {
		if err := readJSON(cmd, file, &seed); err != nil {
			exitErr("read trial", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		seed.Title, _ = flags.GetString("title")
	}
	if flags.Changed("tone") {
		seed.Tone, _ = flags.GetString("tone")
	}
	if flags.Changed("linked-record") {
		seed.LinkedRecord, _ = flags.GetString("linked-record")
	}
	for name, dst := range map[string]*[]string{
		"plaintiffs": &seed.Plaintiffs,
		"defendants": &seed.Defendants,
		"charges":    &seed.Charges,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetStringSlice(name)
		}
	}
	if seed.Title == "" {
		seed.Title = "Untitled Trial"
	}

	out := trialOutput{Trial: trial.Synthesize(trial.Params{
		Title:        seed.Title,
		Plaintiffs:   seed.Plaintiffs,
		Defendants:   seed.Defendants,
		Charges:      seed.Charges,
		Tone:         seed.Tone,
		LinkedRecord: seed.LinkedRecord,
	})}

	if index {
		a, err := openArchive(cmd.Context())
		if err != nil {
			exitErr("open archive", err)
		}
		defer a.Store().Close()

		out.Entries, err = a.CreateEntriesFromTrial(cmd.Context(), out.Trial)
		if err != nil {
			exitErr("index trial", err)
		}
	}

	if push {
		bc := newBackend()
		if !bc.Enabled() {
			exitErr("push trial", fmt.Errorf("CONVEX_URL is not set"))
		}
		out.Convex = bc.PushTrial(cmd.Context(), out.Trial)
		if out.Convex == nil {
			exitErr("push trial", fmt.Errorf("convex rejected %q", out.Trial.Title))
		}
	}

	printOut(cmd, out)
}

func runTrialPlay(cmd *cobra.Command, args []string) {
	voice, _ := cmd.Flags().GetString("voice")
	outDir, _ := cmd.Flags().GetString("out")

	var script model.TrialScript
	if err := readJSON(cmd, args[0], &script); err != nil {
		exitErr("read script", err)
	}
	if outDir == "" {
		title := script.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		outDir = filepath.Join(cfg.Server.MediaDir, strings.ReplaceAll(title, " ", "_"))
	}

	bridge := newMedia()
	if !bridge.Enabled() {
		exitErr("play trial", fmt.Errorf("HUGGINGFACE_API_TOKEN is not set"))
	}

	played := []playedLine{}
	for i, seg := range script.Segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = script.Narrator
		}
		v := voice
		if v == "" {
			v = media.VoiceForSpeaker(speaker)
		}
		chunks := chunker.Chunk(strings.Join(seg.Lines, " "), chunker.DefaultOptions())
		for j, text := range chunks {
			path := filepath.Join(outDir, fmt.Sprintf("segment_%03d_%02d.mp3", i, j))
			got, ok := bridge.GenerateAudio(cmd.Context(), text, v, path)
			played = append(played, playedLine{Segment: i, Part: j, Speaker: speaker, Voice: v, Path: got, OK: ok})
		}
	}

	printOut(cmd, played)
}

func runTrialMedia(cmd *cobra.Command, args []string) {
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Server.MediaDir
	}

	var record model.TrialRecord
	if err := readJSON(cmd, args[0], &record); err != nil {
		exitErr("read trial", err)
	}

	bridge := newMedia()
	if !bridge.Enabled() {
		exitErr("trial media", fmt.Errorf("HUGGINGFACE_API_TOKEN is not set"))
	}
	printOut(cmd, bridge.GenerateTrialMedia(cmd.Context(), record, outDir))
}
