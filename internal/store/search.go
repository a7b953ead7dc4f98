package store

import (
	"strings"

	"github.com/nerdscourt/canon-core/internal/model"
)

// Matching returns a predicate for a case-insensitive substring match on
// theme, quote, source or character.
func Matching(query string) Predicate {
	q := strings.ToLower(query)
	return func(e model.LoreEntry) bool {
		return strings.Contains(strings.ToLower(e.Theme), q) ||
			strings.Contains(strings.ToLower(e.Quote), q) ||
			strings.Contains(strings.ToLower(e.Source), q) ||
			strings.Contains(strings.ToLower(e.Character), q)
	}
}

// ThemeIs matches entries whose theme equals theme, ignoring case.
func ThemeIs(theme string) Predicate {
	return func(e model.LoreEntry) bool {
		return strings.EqualFold(e.Theme, theme)
	}
}

// CharacterIs matches entries spoken by name, ignoring case.
func CharacterIs(name string) Predicate {
	return func(e model.LoreEntry) bool {
		return strings.EqualFold(e.Character, name)
	}
}

// TierIs matches entries of the given tier.
func TierIs(tier string) Predicate {
	return func(e model.LoreEntry) bool {
		return e.Tier == tier
	}
}

// All combines predicates with AND. Nil predicates are skipped.
func All(preds ...Predicate) Predicate {
	return func(e model.LoreEntry) bool {
		for _, p := range preds {
			if p != nil && !p(e) {
				return false
			}
		}
		return true
	}
}
