package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nerdscourt/canon-core/internal/model"
)

// SQLiteStore implements Store using SQLite. Sequence numbers come from an
// AUTOINCREMENT key, so concurrent processes sharing the file never collide.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lore_entries (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		theme      TEXT NOT NULL,
		quote      TEXT NOT NULL,
		source     TEXT NOT NULL,
		character  TEXT NOT NULL,
		tier       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lore_theme ON lore_entries(theme COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_lore_character ON lore_entries(character COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS scripture_core (
		id  INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	core, err := json.Marshal(model.DefaultScriptureCore())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO scripture_core (id, doc) VALUES (1, ?)`, string(core))
	return err
}

func (s *SQLiteStore) Document(ctx context.Context) (*model.BibleDocument, error) {
	var raw string
	if err := s.db.QueryRowContext(ctx, `SELECT doc FROM scripture_core WHERE id = 1`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("read scripture core: %w", err)
	}
	doc := model.BibleDocument{}
	if err := json.Unmarshal([]byte(raw), &doc.ScriptureCore); err != nil {
		return nil, fmt.Errorf("parse scripture core: %w", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	doc.Entries = entries
	return &doc, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.LoreEntry, error) {
	seq, err := ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, theme, quote, source, character, tier, created_at
		FROM lore_entries WHERE seq = ?`, seq)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) Append(ctx context.Context, p AppendParams) (*model.LoreEntry, error) {
	createdAt := model.Timestamp(s.now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lore_entries (theme, quote, source, character, tier, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Theme, p.Quote, p.Source, p.Character, p.Tier, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return &model.LoreEntry{
		ID:        FormatID(seq),
		Theme:     p.Theme,
		Quote:     p.Quote,
		Source:    p.Source,
		Character: p.Character,
		Tier:      p.Tier,
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.LoreEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, theme, quote, source, character, tier, created_at
		FROM lore_entries ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.LoreEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Query(ctx context.Context, pred Predicate) ([]model.LoreEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(entries, pred), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (model.LoreEntry, error) {
	var e model.LoreEntry
	var seq int64
	if err := row.Scan(&seq, &e.Theme, &e.Quote, &e.Source, &e.Character, &e.Tier, &e.CreatedAt); err != nil {
		return e, err
	}
	e.ID = FormatID(seq)
	return e, nil
}
