// Package router maps an agent profile to the external model best suited to voice it.
package router

import (
	"slices"
	"strings"

	"github.com/nerdscourt/canon-core/internal/model"
)

// Model identifiers, written as provider:name.
const (
	ModelResonance  = "qwen:Qwen3-72B-Instruct"
	ModelQuirky     = "openrouter:deepseek-coder"
	ModelRational   = "openrouter:together-gemma-7b-it"
	ModelReflective = "huggingface:deepseek-v2"
	ModelFallback   = "openrouter:gemini-pro-vision"
)

type signals struct {
	tone      string
	purpose   string
	traits    []string
	archetype string
}

type rule struct {
	model string
	match func(s signals) bool
}

// Order is priority: the first matching rule wins.
var rules = []rule{
	{ModelResonance, func(s signals) bool {
		return strings.Contains(s.tone, "trauma") ||
			strings.Contains(s.purpose, "sacrifice") ||
			strings.Contains(s.purpose, "legacy")
	}},
	{ModelQuirky, func(s signals) bool {
		return strings.Contains(s.tone, "humor") ||
			slices.Contains(s.traits, "chaos") ||
			strings.Contains(s.archetype, "meta")
	}},
	{ModelRational, func(s signals) bool {
		return strings.Contains(s.purpose, "justice") ||
			strings.Contains(s.tone, "order") ||
			strings.Contains(s.archetype, "narrator")
	}},
	{ModelReflective, func(s signals) bool {
		return strings.Contains(s.purpose, "evolution") ||
			strings.Contains(s.tone, "introspection")
	}},
}

// MatchModel returns the model identifier for the profile. It never fails.
func MatchModel(p model.AgentProfile) string {
	s := signals{
		tone:      strings.ToLower(p.EmotionalSignature.Tone),
		purpose:   strings.ToLower(p.Purpose),
		traits:    p.CoreTraits,
		archetype: strings.ToLower(p.Role),
	}
	for _, r := range rules {
		if r.match(s) {
			return r.model
		}
	}
	return ModelFallback
}

// Models lists every identifier MatchModel can return.
func Models() []string {
	return []string{ModelResonance, ModelQuirky, ModelRational, ModelReflective, ModelFallback}
}

// IsKnown reports whether id is one of the routed models.
func IsKnown(id string) bool {
	return slices.Contains(Models(), id)
}

// SplitModel separates "provider:name". An id without a provider returns an empty provider.
func SplitModel(id string) (provider, name string) {
	provider, name, ok := strings.Cut(id, ":")
	if !ok {
		return "", id
	}
	return provider, name
}
