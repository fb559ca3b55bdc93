package chunks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ChunkWriter = (*Writer)(nil)

// entry is the serialised per-record payload inside a chunk file.
// The chunk file as a whole maps source document id -> entry.
type entry struct {
	Ordinal     int      `json:"ordinal"`
	Body        string   `json:"body"`
	SearchText  string   `json:"search_text"`
	DocumentURL string   `json:"document_url"`
	Source      string   `json:"source"`
	PageCount   int      `json:"page_count"`
	FileType    string   `json:"file_type"`
	Tags        []string `json:"tags,omitempty"`
}

// Writer serialises planned chunks to standalone JSON files.
type Writer struct {
	dir string
}

// NewWriter creates a chunk writer rooted at the given output directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write persists one chunk's full content and returns its byte size.
// The records slice must be the chunk's records in ordinal order.
func (w *Writer) Write(ctx context.Context, ref domain.ChunkRef, records []domain.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(records) != ref.Count() {
		return 0, fmt.Errorf("chunk %d: got %d records, range holds %d: %w",
			ref.ID, len(records), ref.Count(), domain.ErrInvalidInput)
	}

	payload := make(map[string]entry, len(records))
	for i, rec := range records {
		payload[rec.DocumentID] = entry{
			Ordinal:     ref.StartOrdinal + i,
			Body:        rec.Body,
			SearchText:  rec.SearchText,
			DocumentURL: rec.DocumentURL,
			Source:      rec.Source,
			PageCount:   rec.PageCount,
			FileType:    rec.FileType,
			Tags:        rec.Tags,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encoding chunk %d: %w", ref.ID, err)
	}

	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return 0, fmt.Errorf("creating chunk directory: %w", err)
	}
	path := filepath.Join(w.dir, ref.Path)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return 0, fmt.Errorf("writing chunk %d: %w", ref.ID, err)
	}

	return int64(len(data)), nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}
