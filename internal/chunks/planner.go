// Package chunks plans and serialises the size-bounded content chunk
// files that back the metadata store's progressive loading.
package chunks

import (
	"fmt"
	"sort"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of records per chunk.
const DefaultChunkSize = 500

// PlanChunks orders records newest-first (records without a timestamp sort
// as the oldest) and partitions them into fixed-size chunks. The returned
// record slice is the canonical ordering: record i has ordinal i+1 and
// belongs to chunk (i / chunkSize). The final chunk may be shorter.
//
// The plan is deterministic: the same input always yields the same
// ordering and the same chunk assignment.
func PlanChunks(records []domain.Record, chunkSize int) ([]domain.Record, []domain.ChunkRef) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	ordered := make([]domain.Record, len(records))
	copy(ordered, records)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].SentAt, ordered[j].SentAt
		switch {
		case a == nil && b == nil:
			return ordered[i].DocumentID < ordered[j].DocumentID
		case a == nil:
			return false // undated records sort as the oldest
		case b == nil:
			return true
		case a.Equal(*b):
			return ordered[i].DocumentID < ordered[j].DocumentID
		default:
			return a.After(*b)
		}
	})

	n := len(ordered)
	if n == 0 {
		return ordered, nil
	}

	count := (n + chunkSize - 1) / chunkSize
	refs := make([]domain.ChunkRef, 0, count)
	for id := 0; id < count; id++ {
		start := id*chunkSize + 1
		end := start + chunkSize - 1
		if end > n {
			end = n
		}
		refs = append(refs, domain.ChunkRef{
			ID:           id,
			StartOrdinal: start,
			EndOrdinal:   end,
			Path:         Filename(id),
		})
	}

	return ordered, refs
}

// Filename returns the addressable chunk file name for a chunk index.
func Filename(id int) string {
	return fmt.Sprintf("chunk-%04d.json", id)
}

// IDForOrdinal maps a 1-based record ordinal to its 0-based chunk index.
func IDForOrdinal(ordinal, chunkSize int) int {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return (ordinal - 1) / chunkSize
}
