package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/model"
)

// ExportName returns the default export file name for the current time.
func (a *Archive) ExportName() string {
	return fmt.Sprintf("nerdbible_export_%s.json", a.Now().Format("20060102_150405"))
}

// Export writes the whole document to path as indented JSON and returns the
// path written. An empty path gets a timestamped name.
func (a *Archive) Export(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = a.ExportName()
	}
	doc := a.Load(ctx)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.logger.Error("export archive", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("write export: %w", err)
	}
	a.logger.Info("archive exported", zap.String("path", path), zap.Int("entries", len(doc.Entries)))
	return path, nil
}

// Import appends entries to the archive. Ids and timestamps are reassigned,
// so an export can be merged into a non-empty archive.
func (a *Archive) Import(ctx context.Context, entries []model.LoreEntry) (int, error) {
	imported := 0
	for _, e := range entries {
		if _, err := a.CreateEntry(ctx, e.Theme, e.Quote, e.Source, e.Character, e.Tier); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// DecodeEntries accepts either a full exported document or a bare JSON array
// of entries.
func DecodeEntries(data []byte) ([]model.LoreEntry, error) {
	var entries []model.LoreEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var doc model.BibleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return doc.Entries, nil
}
