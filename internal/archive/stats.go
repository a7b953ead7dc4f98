package archive

import (
	"context"
	"sort"
	"strings"
)

// Stats summarises the archive.
type Stats struct {
	Total       int            `json:"total" yaml:"total"`
	ByTier      map[string]int `json:"by_tier" yaml:"by_tier"`
	ByCharacter map[string]int `json:"by_character" yaml:"by_character"`
	Themes      []ThemeCount   `json:"themes" yaml:"themes"`
}

// ThemeCount holds per-theme counts.
type ThemeCount struct {
	Theme string `json:"theme" yaml:"theme"`
	Count int    `json:"count" yaml:"count"`
}

// Stats returns archive statistics.
func (a *Archive) Stats(ctx context.Context) *Stats {
	entries := a.List(ctx)
	st := &Stats{
		Total:       len(entries),
		ByTier:      map[string]int{},
		ByCharacter: map[string]int{},
		Themes:      a.Themes(ctx),
	}
	for _, e := range entries {
		st.ByTier[e.Tier]++
		st.ByCharacter[e.Character]++
	}
	return st
}

// Themes lists themes by frequency, most used first. Themes differing only
// in case are counted together under their first spelling.
func (a *Archive) Themes(ctx context.Context) []ThemeCount {
	index := map[string]int{}
	themes := []ThemeCount{}
	for _, e := range a.List(ctx) {
		key := strings.ToLower(e.Theme)
		if i, ok := index[key]; ok {
			themes[i].Count++
			continue
		}
		index[key] = len(themes)
		themes = append(themes, ThemeCount{Theme: e.Theme, Count: 1})
	}
	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Count > themes[j].Count
	})
	return themes
}
