package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Collection identifies one finished ingestion output.
type Collection struct {
	// ID is the short random collection identifier (8 hex chars).
	ID string

	// Name is the sanitised machine name.
	Name string

	// DisplayName is the human-readable name derived from Name.
	DisplayName string

	// RecordCount is the total number of records in the collection.
	RecordCount int

	// CreatedAt is when the collection was produced.
	CreatedAt time.Time
}

// ChunkRef describes one content chunk within a collection.
// Chunks partition the ordered record sequence exactly: StartOrdinal and
// EndOrdinal are 1-based inclusive, contiguous across chunks.
type ChunkRef struct {
	// ID is the 0-based chunk index.
	ID int `json:"chunk_id"`

	// StartOrdinal and EndOrdinal bound the records this chunk holds.
	StartOrdinal int `json:"start_ordinal"`
	EndOrdinal   int `json:"end_ordinal"`

	// Path is the content-addressable storage location.
	Path string `json:"path"`

	// ByteSize is the serialized size of the chunk file.
	ByteSize int64 `json:"byte_size"`
}

// Count returns the number of records in the chunk.
func (c ChunkRef) Count() int {
	return c.EndOrdinal - c.StartOrdinal + 1
}

// Manifest is the single descriptor of a finished collection.
// It is immutable once written.
type Manifest struct {
	CollectionID string     `json:"collection_id"`
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	RecordCount  int        `json:"record_count"`
	ChunkSize    int        `json:"chunk_size"`
	CreatedAt    time.Time  `json:"created_at"`
	Chunks       []ChunkRef `json:"chunks"`
}

// IndexEntry is one row in the collection index artifact at the sink.
type IndexEntry struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitiseCollectionName reduces a user-supplied collection name to a safe
// file-name fragment, capped at 30 characters.
func SanitiseCollectionName(name string) string {
	safe := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(safe) > 30 {
		safe = safe[:30]
	}
	return safe
}

// DisplayNameFor derives a human-readable collection name.
func DisplayNameFor(name string) string {
	cleaned := strings.ReplaceAll(name, "_", " ")
	cleaned = strings.ReplaceAll(cleaned, "-", " ")
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CollectionFilename builds the canonical "<id>_<name>" artifact base name.
func CollectionFilename(id, safeName string) string {
	return fmt.Sprintf("%s_%s", id, safeName)
}
