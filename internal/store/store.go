// Package store provides the lore archive storage interface and its backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerdscourt/canon-core/internal/model"
)

// ErrNotFound is returned by Get when no entry has the requested id.
var ErrNotFound = errors.New("lore entry not found")

// AppendParams holds the fields of a new entry. The store assigns id and created_at.
type AppendParams struct {
	Theme     string
	Quote     string
	Source    string
	Character string
	Tier      string
}

// Predicate selects entries in Query.
type Predicate func(model.LoreEntry) bool

// Store defines the lore archive storage interface.
type Store interface {
	// Document returns the whole archive, bootstrapping it on first use.
	Document(ctx context.Context) (*model.BibleDocument, error)

	// Get returns the entry with the given NB-xxxx id.
	Get(ctx context.Context, id string) (*model.LoreEntry, error)

	// Append stores a new entry and returns it with its assigned id.
	Append(ctx context.Context, p AppendParams) (*model.LoreEntry, error)

	// List returns every entry in insertion order.
	List(ctx context.Context) ([]model.LoreEntry, error)

	// Query returns the entries matching pred, in insertion order.
	Query(ctx context.Context, pred Predicate) ([]model.LoreEntry, error)

	// Close releases the store.
	Close() error
}

// FormatID renders a sequence number as a display id.
func FormatID(seq int64) string {
	return fmt.Sprintf("NB-%04d", seq)
}

// ParseID extracts the sequence number from an NB-xxxx id.
func ParseID(id string) (int64, error) {
	num, ok := strings.CutPrefix(id, "NB-")
	if !ok {
		return 0, fmt.Errorf("invalid lore id %q", id)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid lore id %q", id)
	}
	return n, nil
}

func filter(entries []model.LoreEntry, pred Predicate) []model.LoreEntry {
	out := []model.LoreEntry{}
	for _, e := range entries {
		if pred == nil || pred(e) {
			out = append(out, e)
		}
	}
	return out
}
