package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdscourt/canon-core/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	testStoreContract(t, func(t *testing.T) Store { return newTestStore(t) })
}

func TestSQLiteReopenKeepsSequence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lore.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.Append(ctx, AppendParams{Theme: "t", Quote: "first", Tier: model.TierTrialRuling})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e, err := s.Append(ctx, AppendParams{Theme: "t", Quote: "second", Tier: model.TierTrialRuling})
	require.NoError(t, err)
	assert.Equal(t, "NB-0002", e.ID)

	doc, err := s.Document(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Entries, 2)
	assert.Equal(t, "canon_only", doc.ScriptureCore.SourceType)
}

func TestSQLiteTwoHandlesShareCounter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lore.db")

	a, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	b, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	e1, err := a.Append(ctx, AppendParams{Theme: "t", Quote: "from a"})
	require.NoError(t, err)
	e2, err := b.Append(ctx, AppendParams{Theme: "t", Quote: "from b"})
	require.NoError(t, err)
	assert.NotEqual(t, e1.ID, e2.ID)
}
