// Package archive is the NerdBible: an append-only archive of canonical quotes
// harvested from trials and panels.
package archive

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/store"
)

// Archive wraps a Store with the lore operations. Read paths never fail the
// caller: storage errors are logged and an empty result is returned.
type Archive struct {
	store  store.Store
	logger *zap.Logger

	// Now and Intn are replaceable in tests.
	Now  func() time.Time
	Intn func(n int) int
}

// New returns an Archive over s.
func New(s store.Store, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{
		store:  s,
		logger: logger.Named("archive"),
		Now:    time.Now,
		Intn:   rand.IntN,
	}
}

// Store returns the underlying storage.
func (a *Archive) Store() store.Store { return a.store }

// Load returns the whole document. When storage cannot be read the default
// document is returned and nothing is persisted.
func (a *Archive) Load(ctx context.Context) model.BibleDocument {
	doc, err := a.store.Document(ctx)
	if err != nil {
		a.logger.Error("load archive, using default", zap.Error(err))
		return model.DefaultBible()
	}
	return *doc
}

// CreateEntry appends a new verse. An empty tier becomes Trial Ruling.
func (a *Archive) CreateEntry(ctx context.Context, theme, quote, source, character, tier string) (*model.LoreEntry, error) {
	if tier == "" {
		tier = model.TierTrialRuling
	}
	e, err := a.store.Append(ctx, store.AppendParams{
		Theme:     theme,
		Quote:     quote,
		Source:    source,
		Character: character,
		Tier:      tier,
	})
	if err != nil {
		a.logger.Error("create entry", zap.String("theme", theme), zap.Error(err))
		return nil, err
	}
	a.logger.Debug("entry created", zap.String("id", e.ID), zap.String("tier", e.Tier))
	return e, nil
}

// Get returns the entry with id, or an error wrapping store.ErrNotFound.
func (a *Archive) Get(ctx context.Context, id string) (*model.LoreEntry, error) {
	e, err := a.store.Get(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.logger.Error("get entry", zap.String("id", id), zap.Error(err))
	}
	return e, err
}

// List returns every entry in insertion order.
func (a *Archive) List(ctx context.Context) []model.LoreEntry {
	return a.query(ctx, "list", nil)
}

// Search returns entries whose theme, quote, source or character contains q,
// ignoring case.
func (a *Archive) Search(ctx context.Context, q string) []model.LoreEntry {
	return a.query(ctx, "search", store.Matching(q))
}

// GetByTheme returns entries whose theme equals theme, ignoring case.
func (a *Archive) GetByTheme(ctx context.Context, theme string) []model.LoreEntry {
	return a.query(ctx, "by theme", store.ThemeIs(theme))
}

// GetByCharacter returns entries spoken by character, ignoring case.
func (a *Archive) GetByCharacter(ctx context.Context, character string) []model.LoreEntry {
	return a.query(ctx, "by character", store.CharacterIs(character))
}

// Filter runs an arbitrary predicate.
func (a *Archive) Filter(ctx context.Context, pred store.Predicate) []model.LoreEntry {
	return a.query(ctx, "filter", pred)
}

// RandomEntry picks an entry uniformly. An empty archive yields the sentinel.
func (a *Archive) RandomEntry(ctx context.Context) model.LoreEntry {
	entries := a.List(ctx)
	if len(entries) == 0 {
		return model.SentinelEntry()
	}
	return entries[a.Intn(len(entries))]
}

func (a *Archive) query(ctx context.Context, op string, pred store.Predicate) []model.LoreEntry {
	entries, err := a.store.Query(ctx, pred)
	if err != nil {
		a.logger.Error("query archive", zap.String("op", op), zap.Error(err))
		return []model.LoreEntry{}
	}
	return entries
}
