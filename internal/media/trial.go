package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nerdscourt/canon-core/internal/chunker"
	"github.com/nerdscourt/canon-core/internal/model"
)

var speakerVoices = map[string]string{
	"Springer":   "en_male_deep",
	"Prosecutor": "en_female_emotional",
	"Defense":    "en_male_confident",
	"Judge":      "en_male_authoritative",
}

// VoiceForSpeaker picks a voice preset for a cast member. Unknown speakers
// get a neutral voice chosen by the first letter of their name.
func VoiceForSpeaker(speaker string) string {
	if v, ok := speakerVoices[speaker]; ok {
		return v
	}
	first := "a"
	if speaker != "" {
		first = strings.ToLower(speaker[:1])
	}
	if first >= "a" && first <= "m" {
		return "en_male_neutral"
	}
	return "en_female_neutral"
}

// TrialMedia lists generated files by role.
type TrialMedia struct {
	Audio  map[string]string `json:"audio" yaml:"audio"`
	Images map[string]string `json:"images" yaml:"images"`
	Videos map[string]string `json:"videos" yaml:"videos"`
}

// GenerateTrialMedia produces narration for every script segment, a scene
// still, portraits of each party and verdict and post-credit clips. Files go
// to outputDir/{case_id}. Failed items are left out of the result.
func (b *Bridge) GenerateTrialMedia(ctx context.Context, t model.TrialRecord, outputDir string) TrialMedia {
	id := t.CaseID
	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(outputDir, id)

	out := TrialMedia{
		Audio:  map[string]string{},
		Images: map[string]string{},
		Videos: map[string]string{},
	}

	for i, seg := range t.Segments {
		if len(seg.Lines) == 0 {
			continue
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		voice := VoiceForSpeaker(speaker)
		chunks := chunker.Chunk(strings.Join(seg.Lines, " "), chunker.DefaultOptions())
		for j, text := range chunks {
			key := fmt.Sprintf("segment_%d", i)
			name := fmt.Sprintf("audio_%d_%s.mp3", i, fileSafe(speaker))
			if len(chunks) > 1 {
				key = fmt.Sprintf("segment_%d_part_%d", i, j)
				name = fmt.Sprintf("audio_%d_%s_%d.mp3", i, fileSafe(speaker), j)
			}
			if path, ok := b.GenerateAudio(ctx, text, voice, filepath.Join(dir, name)); ok {
				out.Audio[key] = path
			}
		}
	}

	title := t.Title
	if title == "" {
		title = "Trial"
	}
	prompt := fmt.Sprintf("Courtroom scene for '%s', dramatic lighting, official setting", title)
	if path, ok := b.GenerateImage(ctx, prompt, "", filepath.Join(dir, "trial_scene.jpg"), 0, 0); ok {
		out.Images["trial_scene"] = path
	}

	for _, p := range t.Plaintiffs {
		prompt := fmt.Sprintf("Portrait of %s, serious expression, courtroom setting", p)
		if path, ok := b.GenerateImage(ctx, prompt, "", filepath.Join(dir, fileSafe(p)+".jpg"), 0, 0); ok {
			out.Images["plaintiff_"+p] = path
		}
	}
	for _, d := range t.Defendants {
		prompt := fmt.Sprintf("Portrait of %s, defensive expression, courtroom setting", d)
		if path, ok := b.GenerateImage(ctx, prompt, "", filepath.Join(dir, fileSafe(d)+".jpg"), 0, 0); ok {
			out.Images["defendant_"+d] = path
		}
	}

	verdict := t.Verdict
	if verdict == "" {
		verdict = model.VerdictPending
	}
	prompt = fmt.Sprintf("Dramatic courtroom scene, judge announcing '%s' verdict, tense atmosphere, cinematic lighting", verdict)
	if path, ok := b.GenerateVideo(ctx, prompt, "", filepath.Join(dir, "verdict.mp4"), 0, 0); ok {
		out.Videos["verdict"] = path
	}

	pc := t.PostCreditScene
	if pc.Setting != "" || pc.Quote != "" || len(pc.Present) > 0 {
		setting := pc.Setting
		if setting == "" {
			setting = "Courtroom"
		}
		prompt := fmt.Sprintf("Scene in %s with %s, dramatic moment, character saying '%s', cinematic",
			setting, strings.Join(pc.Present, ", "), pc.Quote)
		if path, ok := b.GenerateVideo(ctx, prompt, "", filepath.Join(dir, "post_credit.mp4"), 0, 0); ok {
			out.Videos["post_credit"] = path
		}
	}

	return out
}

func fileSafe(name string) string {
	return strings.NewReplacer(" ", "_", "/", "_", string(filepath.Separator), "_").Replace(name)
}
