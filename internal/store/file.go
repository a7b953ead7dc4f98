package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nerdscourt/canon-core/internal/model"
)

// FileStore keeps the whole archive in a single JSON document that is
// rewritten on every append. Writers in one process are serialised; writers
// in different processes are not.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore returns a store backed by the JSON document at path.
// The file is created on first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Document(ctx context.Context) (*model.BibleDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Get(ctx context.Context, id string) (*model.LoreEntry, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range doc.Entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *FileStore) Append(ctx context.Context, p AppendParams) (*model.LoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A document that cannot be read is left alone rather than overwritten.
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	entry := model.LoreEntry{
		ID:        FormatID(nextSeq(doc.Entries)),
		Theme:     p.Theme,
		Quote:     p.Quote,
		Source:    p.Source,
		Character: p.Character,
		Tier:      p.Tier,
		CreatedAt: model.Timestamp(s.now()),
	}
	doc.Entries = append(doc.Entries, entry)

	if err := s.save(doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return &entry, nil
}

func (s *FileStore) List(ctx context.Context) ([]model.LoreEntry, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func (s *FileStore) Query(ctx context.Context, pred Predicate) ([]model.LoreEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(entries, pred), nil
}

func (s *FileStore) Close() error { return nil }

// load reads the document, writing the default archive when none exists.
// Callers hold s.mu.
func (s *FileStore) load() (*model.BibleDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := model.DefaultBible()
		if err := s.save(&doc); err != nil {
			return nil, fmt.Errorf("bootstrap document: %w", err)
		}
		return &doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var doc model.BibleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = []model.LoreEntry{}
	}
	return &doc, nil
}

func (s *FileStore) save(doc *model.BibleDocument) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// nextSeq returns one past the highest numeric id. Ids that do not parse are
// ignored, so hand-edited entries cannot stall the counter.
func nextSeq(entries []model.LoreEntry) int64 {
	var max int64
	for _, e := range entries {
		if n, err := ParseID(e.ID); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}
