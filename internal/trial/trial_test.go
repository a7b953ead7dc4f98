package trial

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdscourt/canon-core/internal/model"
)

func TestSynthesize_Defaults(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	f := Forge{Now: func() time.Time { return fixed }}

	tr := f.Synthesize(Params{
		Title:      "The People v. Retcon",
		Plaintiffs: []string{"Continuity"},
		Defendants: []string{"Retcon"},
		Charges:    []string{"Canon Tampering"},
	})

	assert.Equal(t, model.VerdictPending, tr.Verdict)
	assert.Equal(t, DefaultTone, tr.TrialTone)
	assert.Empty(t, tr.Sentencing)
	assert.Empty(t, tr.NotableQuotes)
	assert.Nil(t, tr.LinkedRecord)
	assert.Equal(t, "2025-01-02T03:04:05.000000Z", tr.Timestamp)
	assert.Equal(t, model.PostCreditScene{Setting: "Undetermined", Present: []string{}, Quote: "TBD"}, tr.PostCreditScene)
}

func TestSynthesize_CaseIDIsFreshUUID(t *testing.T) {
	p := Params{Title: "Same", Charges: []string{"x"}}
	a := Synthesize(p)
	b := Synthesize(p)

	_, err := uuid.Parse(a.CaseID)
	require.NoError(t, err)
	_, err = uuid.Parse(b.CaseID)
	require.NoError(t, err)
	assert.NotEqual(t, a.CaseID, b.CaseID)
}

func TestSynthesize_EmptyInputAccepted(t *testing.T) {
	tr := Synthesize(Params{})

	b, err := json.Marshal(tr)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, []any{}, raw["plaintiffs"])
	assert.Equal(t, []any{}, raw["charges"])
	assert.Nil(t, raw["linked_record"])
	assert.Contains(t, raw, "linked_record")
}

func TestSynthesize_ToneAndLink(t *testing.T) {
	tr := Synthesize(Params{Tone: "grim", LinkedRecord: "persona-42"})
	assert.Equal(t, "grim", tr.TrialTone)
	require.NotNil(t, tr.LinkedRecord)
	assert.Equal(t, "persona-42", *tr.LinkedRecord)
}

func TestVerdictTransitions(t *testing.T) {
	tr := Synthesize(Params{Title: "t"})

	err := tr.SetVerdict(model.VerdictPending)
	assert.True(t, errors.Is(err, model.ErrInvalidVerdict))

	err = tr.SetVerdict("  ")
	assert.True(t, errors.Is(err, model.ErrInvalidVerdict))

	require.NoError(t, tr.SetVerdict("GUILTY"))
	assert.True(t, tr.IsFinal())

	err = tr.SetVerdict("NOT GUILTY")
	assert.True(t, errors.Is(err, model.ErrVerdictFinal))
	assert.Equal(t, "GUILTY", tr.Verdict)
}

func TestMutators(t *testing.T) {
	tr := Synthesize(Params{Title: "t"})
	id := tr.CaseID

	tr.AddQuote("Judge: Order!")
	tr.AddSentence("Ten years of filler arcs")
	tr.SetPostCredit("Rooftop", nil, "It was never canon.")

	assert.Equal(t, []string{"Judge: Order!"}, tr.NotableQuotes)
	assert.Equal(t, []string{"Ten years of filler arcs"}, tr.Sentencing)
	assert.Equal(t, []string{}, tr.PostCreditScene.Present)
	assert.Equal(t, id, tr.CaseID)
}
