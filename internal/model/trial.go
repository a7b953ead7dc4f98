package model

import (
	"errors"
	"fmt"
	"strings"
)

// VerdictPending is the verdict of every freshly created trial.
const VerdictPending = "PENDING"

var (
	// ErrVerdictFinal is returned when a verdict is set on a trial that already has one.
	ErrVerdictFinal = errors.New("verdict already final")
	// ErrInvalidVerdict is returned for an empty or PENDING verdict.
	ErrInvalidVerdict = errors.New("invalid verdict")
)

// PostCreditScene is the epilogue attached to a trial.
type PostCreditScene struct {
	Setting string   `json:"setting" yaml:"setting"`
	Present []string `json:"present" yaml:"present"`
	Quote   string   `json:"quote" yaml:"quote"`
}

// Segment is one speaker's block in a trial script.
type Segment struct {
	Type    string   `json:"type" yaml:"type"`
	Speaker string   `json:"speaker" yaml:"speaker"`
	Lines   []string `json:"lines" yaml:"lines"`
}

// TrialRecord is a structured case document for a simulated tribunal.
type TrialRecord struct {
	CaseID          string          `json:"case_id" yaml:"case_id"`
	Title           string          `json:"title" yaml:"title"`
	Plaintiffs      []string        `json:"plaintiffs" yaml:"plaintiffs"`
	Defendants      []string        `json:"defendants" yaml:"defendants"`
	Charges         []string        `json:"charges" yaml:"charges"`
	Verdict         string          `json:"verdict" yaml:"verdict"`
	Sentencing      []string        `json:"sentencing" yaml:"sentencing"`
	NotableQuotes   []string        `json:"notable_quotes" yaml:"notable_quotes"`
	TrialTone       string          `json:"trial_tone" yaml:"trial_tone"`
	LinkedRecord    *string         `json:"linked_record" yaml:"linked_record"`
	Timestamp       string          `json:"timestamp" yaml:"timestamp"`
	PostCreditScene PostCreditScene `json:"post_credit_scene" yaml:"post_credit_scene"`
	Segments        []Segment       `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// SetVerdict moves the trial from PENDING to a final verdict. It can only happen once.
func (t *TrialRecord) SetVerdict(verdict string) error {
	verdict = strings.TrimSpace(verdict)
	if verdict == "" || strings.EqualFold(verdict, VerdictPending) {
		return fmt.Errorf("%w: %q", ErrInvalidVerdict, verdict)
	}
	if t.Verdict != "" && t.Verdict != VerdictPending {
		return fmt.Errorf("%w: %s", ErrVerdictFinal, t.Verdict)
	}
	t.Verdict = verdict
	return nil
}

// IsFinal reports whether a verdict has been delivered.
func (t *TrialRecord) IsFinal() bool {
	return t.Verdict != "" && t.Verdict != VerdictPending
}

// AddQuote appends a notable quote, usually "Speaker: words".
func (t *TrialRecord) AddQuote(quote string) {
	t.NotableQuotes = append(t.NotableQuotes, quote)
}

// AddSentence appends a sentencing line.
func (t *TrialRecord) AddSentence(sentence string) {
	t.Sentencing = append(t.Sentencing, sentence)
}

// SetPostCredit replaces the post-credit scene.
func (t *TrialRecord) SetPostCredit(setting string, present []string, quote string) {
	if present == nil {
		present = []string{}
	}
	t.PostCreditScene = PostCreditScene{Setting: setting, Present: present, Quote: quote}
}

// TrialScript is a playable courtroom script.
type TrialScript struct {
	Title     string    `json:"title" yaml:"title"`
	Presiding string    `json:"presiding" yaml:"presiding"`
	Narrator  string    `json:"narrator" yaml:"narrator"`
	Segments  []Segment `json:"segments" yaml:"segments"`
}
