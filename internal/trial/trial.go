// Package trial builds trial records for the tribunal.
package trial

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerdscourt/canon-core/internal/model"
)

// Defaults for a freshly forged trial.
const (
	DefaultTone         = "lore satire"
	DefaultSetting      = "Undetermined"
	DefaultCreditsQuote = "TBD"
)

// Params is the input to Synthesize. Empty slices are accepted as-is.
type Params struct {
	Title        string
	Plaintiffs   []string
	Defendants   []string
	Charges      []string
	Tone         string
	LinkedRecord string
}

// Forge builds trial records. The zero value uses the wall clock and random UUIDs.
type Forge struct {
	Now   func() time.Time
	NewID func() string
}

// Synthesize builds a trial record with the default Forge.
func Synthesize(p Params) model.TrialRecord {
	return Forge{}.Synthesize(p)
}

// Synthesize builds a PENDING trial record. No validation is performed.
func (f Forge) Synthesize(p Params) model.TrialRecord {
	tone := p.Tone
	if tone == "" {
		tone = DefaultTone
	}

	var linked *string
	if p.LinkedRecord != "" {
		l := p.LinkedRecord
		linked = &l
	}

	return model.TrialRecord{
		CaseID:        f.newID(),
		Title:         p.Title,
		Plaintiffs:    nonNil(p.Plaintiffs),
		Defendants:    nonNil(p.Defendants),
		Charges:       nonNil(p.Charges),
		Verdict:       model.VerdictPending,
		Sentencing:    []string{},
		NotableQuotes: []string{},
		TrialTone:     tone,
		LinkedRecord:  linked,
		Timestamp:     model.Timestamp(f.now()),
		PostCreditScene: model.PostCreditScene{
			Setting: DefaultSetting,
			Present: []string{},
			Quote:   DefaultCreditsQuote,
		},
	}
}

func (f Forge) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f Forge) newID() string {
	if f.NewID != nil {
		return f.NewID()
	}
	return uuid.NewString()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
