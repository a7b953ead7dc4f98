package archive

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/store"
)

// DefaultContextBudget is the character budget used when none is given.
const DefaultContextBudget = 2000

// ContextEntry is a scored verse selected for a prompt.
type ContextEntry struct {
	ID        string  `json:"id" yaml:"id"`
	Theme     string  `json:"theme" yaml:"theme"`
	Quote     string  `json:"quote" yaml:"quote"`
	Source    string  `json:"source" yaml:"source"`
	Character string  `json:"character" yaml:"character"`
	Tier      string  `json:"tier" yaml:"tier"`
	Score     float64 `json:"score" yaml:"score"`
	Excerpt   bool    `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// ContextResult is the packed selection.
type ContextResult struct {
	Query   string         `json:"query" yaml:"query"`
	Budget  int            `json:"budget" yaml:"budget"`
	Used    int            `json:"used" yaml:"used"`
	Entries []ContextEntry `json:"entries" yaml:"entries"`
}

// Prompt renders the selection as system-prompt scripture, one verse per line.
func (r *ContextResult) Prompt() string {
	if r == nil || len(r.Entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Canon from the NerdBible. Quote it as verse + citation:\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "[%s] %q (%s, %s)\n", e.ID, e.Quote, e.Character, e.Source)
	}
	return b.String()
}

// Context selects the verses most worth quoting for query and packs them into
// budget characters of quote text. Golden Frame outranks Trial Ruling, which
// outranks Verified Panel Quote; newer entries win ties. An empty query
// considers the whole archive.
func (a *Archive) Context(ctx context.Context, query string, budget int) *ContextResult {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	result := &ContextResult{Query: query, Budget: budget, Entries: []ContextEntry{}}

	var pred store.Predicate
	if query != "" {
		pred = store.Matching(query)
	}
	entries := a.query(ctx, "context", pred)
	if len(entries) == 0 {
		return result
	}

	now := a.Now()
	type scored struct {
		entry model.LoreEntry
		score float64
	}
	candidates := make([]scored, 0, len(entries))
	for _, e := range entries {
		// Recency: exponential decay by age in days. Entries without a
		// parsable timestamp count as old.
		recency := 0.0
		if t, err := model.ParseTimestamp(e.CreatedAt); err == nil {
			age := now.Sub(t).Hours() / 24.0
			if age < 0 {
				age = 0
			}
			recency = math.Exp(-0.1 * age)
		}
		score := tierScore(e.Tier)*0.6 + recency*0.4
		candidates = append(candidates, scored{entry: e, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	used := 0
	for _, c := range candidates {
		ce := ContextEntry{
			ID:        c.entry.ID,
			Theme:     c.entry.Theme,
			Quote:     c.entry.Quote,
			Source:    c.entry.Source,
			Character: c.entry.Character,
			Tier:      c.entry.Tier,
			Score:     math.Round(c.score*100) / 100,
		}
		n := len(ce.Quote)
		if used+n <= budget {
			result.Entries = append(result.Entries, ce)
			used += n
			continue
		}
		if remaining := budget - used; remaining >= 40 {
			ce.Quote = truncate(ce.Quote, remaining) + "..."
			ce.Excerpt = true
			result.Entries = append(result.Entries, ce)
			used += remaining
		}
		break
	}
	result.Used = used
	return result
}

func tierScore(tier string) float64 {
	switch tier {
	case model.TierGoldenFrame:
		return 1.0
	case model.TierTrialRuling:
		return 0.75
	case model.TierVerifiedPanelQuote:
		return 0.5
	default:
		return 0.25
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
