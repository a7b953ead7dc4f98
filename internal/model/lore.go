package model

// Inspiration tiers for lore entries.
const (
	TierGoldenFrame        = "Golden Frame"
	TierTrialRuling        = "Trial Ruling"
	TierVerifiedPanelQuote = "Verified Panel Quote"
	TierSystemMessage      = "System Message"
)

// ValidTiers are the tiers an archived entry may carry.
var ValidTiers = map[string]bool{
	TierGoldenFrame:        true,
	TierTrialRuling:        true,
	TierVerifiedPanelQuote: true,
	TierSystemMessage:      true,
}

// LoreEntry is one archived NerdBible verse.
type LoreEntry struct {
	ID        string `json:"id" yaml:"id"`
	Theme     string `json:"theme" yaml:"theme"`
	Quote     string `json:"quote" yaml:"quote"`
	Source    string `json:"source" yaml:"source"`
	Character string `json:"character" yaml:"character"`
	Tier      string `json:"tier" yaml:"tier"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ScriptureCore describes how the archive is meant to be queried and quoted.
type ScriptureCore struct {
	SourceType       string   `json:"source_type" yaml:"source_type"`
	InspirationTiers []string `json:"inspiration_tiers" yaml:"inspiration_tiers"`
	Format           string   `json:"format" yaml:"format"`
	QueryStyle       string   `json:"query_style" yaml:"query_style"`
	ResponseStyle    string   `json:"response_style" yaml:"response_style"`
}

// BibleDocument is the whole persisted archive.
type BibleDocument struct {
	ScriptureCore ScriptureCore `json:"scripture_core" yaml:"scripture_core"`
	Entries       []LoreEntry   `json:"entries" yaml:"entries"`
}

// DefaultScriptureCore returns the scripture core written on first run.
func DefaultScriptureCore() ScriptureCore {
	return ScriptureCore{
		SourceType:       "canon_only",
		InspirationTiers: []string{TierGoldenFrame, TierTrialRuling, TierVerifiedPanelQuote},
		Format:           "verse + citation",
		QueryStyle:       "natural language",
		ResponseStyle:    "scriptural and emotionally weighted",
	}
}

// DefaultBible returns an empty archive document.
func DefaultBible() BibleDocument {
	return BibleDocument{ScriptureCore: DefaultScriptureCore(), Entries: []LoreEntry{}}
}

// SentinelEntry is returned by random lookups on an empty archive.
func SentinelEntry() LoreEntry {
	return LoreEntry{
		ID:        "NB-0000",
		Theme:     "beginning",
		Quote:     "The NerdBible awaits its first scripture.",
		Source:    "System Initialization",
		Character: "NerdsCourt",
		Tier:      TierSystemMessage,
	}
}
