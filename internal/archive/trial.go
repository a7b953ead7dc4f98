package archive

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/model"
)

// Fallbacks used when harvesting a trial.
const (
	DefaultTheme    = "justice"
	DefaultSource   = "Untitled Trial"
	DefaultSpeaker  = "Tribunal"
	DefaultWitness  = "Witness"
	PostCreditTheme = "reflection"
)

// SplitQuote parses "Speaker: text" into its parts. Without a colon the
// whole string is the quote and the speaker is the Tribunal. Quotes are
// trimmed and stripped of surrounding double quotes either way.
func SplitQuote(raw string) (character, quote string) {
	speaker, text, ok := strings.Cut(raw, ":")
	if !ok {
		return DefaultSpeaker, stripQuote(raw)
	}
	return strings.TrimSpace(speaker), stripQuote(text)
}

func stripQuote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// CreateEntriesFromTrial archives every notable quote of t, plus its
// post-credit line when one was recorded. Entries created before a failure
// are returned along with the error.
func (a *Archive) CreateEntriesFromTrial(ctx context.Context, t model.TrialRecord) ([]model.LoreEntry, error) {
	theme := DefaultTheme
	if len(t.Charges) > 0 {
		theme = strings.ToLower(t.Charges[0])
	}
	source := t.Title
	if source == "" {
		source = DefaultSource
	}

	created := []model.LoreEntry{}
	for _, raw := range t.NotableQuotes {
		character, quote := SplitQuote(raw)
		e, err := a.CreateEntry(ctx, theme, quote, source, character, model.TierTrialRuling)
		if err != nil {
			return created, err
		}
		created = append(created, *e)
	}

	if pc := t.PostCreditScene; pc.Quote != "" {
		witness := DefaultWitness
		if len(pc.Present) > 0 {
			witness = pc.Present[0]
		}
		e, err := a.CreateEntry(ctx, PostCreditTheme, pc.Quote, postCreditSource(source), witness, model.TierGoldenFrame)
		if err != nil {
			return created, err
		}
		created = append(created, *e)
	}

	a.logger.Info("trial archived",
		zap.String("case_id", t.CaseID),
		zap.Int("entries", len(created)))
	return created, nil
}

func postCreditSource(title string) string {
	return fmt.Sprintf("%s (Post-Credit)", title)
}
