package archive

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/store"
)

func newTestArchive(t *testing.T) (*Archive, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nerd_bible_core.json")
	return New(store.NewFileStore(path), zap.NewNop()), path
}

// brokenStore fails every operation.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Document(context.Context) (*model.BibleDocument, error) { return nil, errBroken }
func (brokenStore) Get(context.Context, string) (*model.LoreEntry, error)  { return nil, errBroken }
func (brokenStore) Append(context.Context, store.AppendParams) (*model.LoreEntry, error) {
	return nil, errBroken
}
func (brokenStore) List(context.Context) ([]model.LoreEntry, error) { return nil, errBroken }
func (brokenStore) Query(context.Context, store.Predicate) ([]model.LoreEntry, error) {
	return nil, errBroken
}
func (brokenStore) Close() error { return nil }

func TestCreateEntryThenLoad(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)

	e, err := a.CreateEntry(ctx, "loyalty", "I stayed.", "Trial of Echoes", "Springer", "")
	require.NoError(t, err)
	assert.Equal(t, "NB-0001", e.ID)
	assert.Equal(t, model.TierTrialRuling, e.Tier)

	doc := a.Load(ctx)
	require.Len(t, doc.Entries, 1)
	if diff := cmp.Diff(*e, doc.Entries[0]); diff != "" {
		t.Errorf("loaded entry mismatch (-want +got):\n%s", diff)
	}

	e2, err := a.CreateEntry(ctx, "loyalty", "Again.", "S", "C", model.TierGoldenFrame)
	require.NoError(t, err)
	assert.Equal(t, "NB-0002", e2.ID)
	assert.Equal(t, model.TierGoldenFrame, e2.Tier)
}

func TestLoadBootstrapsMissingFile(t *testing.T) {
	a, path := newTestArchive(t)

	doc := a.Load(context.Background())
	assert.Equal(t, model.DefaultBible(), doc)
	_, err := os.Stat(path)
	assert.NoError(t, err, "default document should be persisted")
}

func TestLoadFallsBackOnCorruptFile(t *testing.T) {
	a, path := newTestArchive(t)
	require.NoError(t, os.WriteFile(path, []byte("]]"), 0o644))

	doc := a.Load(context.Background())
	assert.Equal(t, model.DefaultBible(), doc)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "]]", string(data), "fallback must not be persisted")
}

func TestReadPathsSwallowStorageErrors(t *testing.T) {
	ctx := context.Background()
	a := New(brokenStore{}, zap.NewNop())

	assert.Equal(t, model.DefaultBible(), a.Load(ctx))
	assert.Empty(t, a.Search(ctx, "x"))
	assert.NotNil(t, a.Search(ctx, "x"))
	assert.Empty(t, a.GetByTheme(ctx, "x"))
	assert.Empty(t, a.GetByCharacter(ctx, "x"))
	assert.Equal(t, "NB-0000", a.RandomEntry(ctx).ID)
	assert.Empty(t, a.Context(ctx, "x", 100).Entries)
	assert.Equal(t, 0, a.Stats(ctx).Total)

	_, err := a.CreateEntry(ctx, "t", "q", "s", "c", "")
	assert.ErrorIs(t, err, errBroken)
}

func TestCreateEntriesFromTrialSingleQuote(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)

	got, err := a.CreateEntriesFromTrial(ctx, model.TrialRecord{
		NotableQuotes:   []string{"Judge: Order!"},
		PostCreditScene: model.PostCreditScene{},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Judge", got[0].Character)
	assert.Equal(t, "Order!", got[0].Quote)
	assert.Equal(t, DefaultTheme, got[0].Theme)
	assert.Equal(t, DefaultSource, got[0].Source)
	assert.Equal(t, model.TierTrialRuling, got[0].Tier)
}

func TestCreateEntriesFromTrialNoColon(t *testing.T) {
	a, _ := newTestArchive(t)

	got, err := a.CreateEntriesFromTrial(context.Background(), model.TrialRecord{
		NotableQuotes: []string{"No colon here"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tribunal", got[0].Character)
	assert.Equal(t, "No colon here", got[0].Quote)
}

func TestCreateEntriesFromTrialFull(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)

	got, err := a.CreateEntriesFromTrial(ctx, model.TrialRecord{
		CaseID:        "c-1",
		Title:         "The People v. Springer",
		Charges:       []string{"Temporal Negligence", "Perjury"},
		NotableQuotes: []string{`Springer: "I did what I had to."`, "Judge: Time: it waits for no one"},
		PostCreditScene: model.PostCreditScene{
			Setting: "Rooftop",
			Present: []string{"Echo", "Springer"},
			Quote:   "It was never about the verdict.",
		},
	})
	require.NoError(t, err)

	want := []model.LoreEntry{
		{ID: "NB-0001", Theme: "temporal negligence", Quote: "I did what I had to.", Source: "The People v. Springer", Character: "Springer", Tier: model.TierTrialRuling},
		{ID: "NB-0002", Theme: "temporal negligence", Quote: "Time: it waits for no one", Source: "The People v. Springer", Character: "Judge", Tier: model.TierTrialRuling},
		{ID: "NB-0003", Theme: "reflection", Quote: "It was never about the verdict.", Source: "The People v. Springer (Post-Credit)", Character: "Echo", Tier: model.TierGoldenFrame},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(model.LoreEntry{}, "CreatedAt")); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateEntriesFromTrialWitnessFallback(t *testing.T) {
	a, _ := newTestArchive(t)

	got, err := a.CreateEntriesFromTrial(context.Background(), model.TrialRecord{
		Title:           "Quiet Case",
		PostCreditScene: model.PostCreditScene{Quote: "Nobody saw it."},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Witness", got[0].Character)
	assert.Equal(t, "Quiet Case (Post-Credit)", got[0].Source)
}

func TestSplitQuote(t *testing.T) {
	tests := []struct {
		raw, character, quote string
	}{
		{"Judge: Order!", "Judge", "Order!"},
		{"  Judge  :   \"Order!\"  ", "Judge", "Order!"},
		{"No colon here", "Tribunal", "No colon here"},
		{"  \"No colon here\"  ", "Tribunal", "No colon here"},
		{"A: b: c", "A", "b: c"},
		{":bare", "", "bare"},
	}
	for _, tt := range tests {
		c, q := SplitQuote(tt.raw)
		assert.Equal(t, tt.character, c, tt.raw)
		assert.Equal(t, tt.quote, q, tt.raw)
	}
}

func TestRandomEntry(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)

	got := a.RandomEntry(ctx)
	assert.Equal(t, model.SentinelEntry(), got)

	for _, q := range []string{"one", "two", "three"} {
		_, err := a.CreateEntry(ctx, "t", q, "s", "c", "")
		require.NoError(t, err)
	}
	a.Intn = func(n int) int {
		assert.Equal(t, 3, n)
		return 2
	}
	assert.Equal(t, "three", a.RandomEntry(ctx).Quote)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)

	seed := [][4]string{
		{"Justice", "q1", "s1", "c1"},
		{"loyalty", "Where is the JUSTICE?", "s2", "c2"},
		{"loyalty", "q3", "Trial of injustice", "c3"},
		{"loyalty", "q4", "s4", "Justice League"},
		{"betrayal", "q5", "s5", "c5"},
	}
	for _, s := range seed {
		_, err := a.CreateEntry(ctx, s[0], s[1], s[2], s[3], "")
		require.NoError(t, err)
	}

	got := a.Search(ctx, "justice")
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"NB-0001", "NB-0002", "NB-0003", "NB-0004"}, ids)

	assert.Len(t, a.GetByTheme(ctx, "LOYALTY"), 3)
	assert.Len(t, a.GetByCharacter(ctx, "justice league"), 1)
	assert.Empty(t, a.GetByTheme(ctx, "loyal"))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)
	_, err := a.CreateEntry(ctx, "t", "q", "s", "c", "")
	require.NoError(t, err)

	e, err := a.Get(ctx, "NB-0001")
	require.NoError(t, err)
	assert.Equal(t, "q", e.Quote)

	_, err = a.Get(ctx, "NB-0009")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	a, path := newTestArchive(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a.Now = func() time.Time { return now }

	doc := model.DefaultBible()
	doc.Entries = []model.LoreEntry{
		{ID: "NB-0001", Theme: "loyalty", Quote: "old golden loyalty", Source: "Trial", Character: "Echo",
			Tier: model.TierGoldenFrame, CreatedAt: model.Timestamp(now.AddDate(0, 0, -60))},
		{ID: "NB-0002", Theme: "loyalty", Quote: "fresh panel loyalty", Source: "Panel", Character: "Springer",
			Tier: model.TierVerifiedPanelQuote, CreatedAt: model.Timestamp(now)},
		{ID: "NB-0003", Theme: "loyalty", Quote: "fresh golden loyalty", Source: "Trial", Character: "Springer",
			Tier: model.TierGoldenFrame, CreatedAt: model.Timestamp(now)},
		{ID: "NB-0004", Theme: "betrayal", Quote: "unrelated", Source: "Trial", Character: "Judge",
			Tier: model.TierGoldenFrame, CreatedAt: model.Timestamp(now)},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	res := a.Context(ctx, "loyalty", 1000)
	var ids []string
	for _, e := range res.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"NB-0003", "NB-0002", "NB-0001"}, ids)
	assert.Equal(t, 1.0, res.Entries[0].Score)
	assert.Equal(t, len("old golden loyalty")+len("fresh panel loyalty")+len("fresh golden loyalty"), res.Used)

	prompt := res.Prompt()
	assert.Contains(t, prompt, `[NB-0003] "fresh golden loyalty" (Springer, Trial)`)

	all := a.Context(ctx, "", 0)
	assert.Equal(t, DefaultContextBudget, all.Budget)
	assert.Len(t, all.Entries, 4)
}

func TestContextBudgetExcerpt(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)
	_, err := a.CreateEntry(ctx, "t", strings.Repeat("a", 60), "s", "c", model.TierGoldenFrame)
	require.NoError(t, err)
	_, err = a.CreateEntry(ctx, "t", strings.Repeat("b", 100), "s", "c", model.TierVerifiedPanelQuote)
	require.NoError(t, err)

	res := a.Context(ctx, "", 110)
	require.Len(t, res.Entries, 2)
	assert.False(t, res.Entries[0].Excerpt)
	assert.True(t, res.Entries[1].Excerpt)
	assert.Equal(t, strings.Repeat("b", 50)+"...", res.Entries[1].Quote)
	assert.Equal(t, 110, res.Used)

	tight := a.Context(ctx, "", 70)
	assert.Len(t, tight.Entries, 1, "remaining space under the excerpt floor is dropped")

	var empty *ContextResult
	assert.Equal(t, "", empty.Prompt())
}

func TestStatsAndThemes(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)
	for _, s := range [][3]string{
		{"loyalty", "Springer", model.TierTrialRuling},
		{"Loyalty", "Judge", model.TierGoldenFrame},
		{"betrayal", "Springer", model.TierTrialRuling},
	} {
		_, err := a.CreateEntry(ctx, s[0], "q", "s", s[1], s[2])
		require.NoError(t, err)
	}

	st := a.Stats(ctx)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, map[string]int{model.TierTrialRuling: 2, model.TierGoldenFrame: 1}, st.ByTier)
	assert.Equal(t, map[string]int{"Springer": 2, "Judge": 1}, st.ByCharacter)
	assert.Equal(t, []ThemeCount{{Theme: "loyalty", Count: 2}, {Theme: "betrayal", Count: 1}}, st.Themes)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)
	a.Now = func() time.Time { return time.Date(2025, 3, 1, 9, 8, 7, 0, time.UTC) }
	assert.Equal(t, "nerdbible_export_20250301_090807.json", a.ExportName())

	_, err := a.CreateEntry(ctx, "loyalty", "I stayed.", "Trial", "Springer", "")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export.json")
	path, err := a.Export(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc model.BibleDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Entries, 1)

	entries, err := DecodeEntries(data)
	require.NoError(t, err)

	b, _ := newTestArchive(t)
	_, err = b.CreateEntry(ctx, "pre", "existing", "s", "c", "")
	require.NoError(t, err)
	n, err := b.Import(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := b.Get(ctx, "NB-0002")
	require.NoError(t, err)
	assert.Equal(t, "I stayed.", got.Quote)

	arr, err := DecodeEntries([]byte(`[{"theme":"t","quote":"q"}]`))
	require.NoError(t, err)
	assert.Len(t, arr, 1)

	_, err = DecodeEntries([]byte(`nope`))
	assert.Error(t, err)
}

func TestExportDefaultName(t *testing.T) {
	a, _ := newTestArchive(t)
	a.Now = func() time.Time { return time.Date(2025, 3, 1, 9, 8, 7, 0, time.UTC) }

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	path, err := a.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "nerdbible_export_20250301_090807.json", path)
	_, err = os.Stat(filepath.Join(dir, path))
	assert.NoError(t, err)
}
