package chunks

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func TestPlanChunks_OrderingNewestFirst(t *testing.T) {
	records := []domain.Record{
		{DocumentID: "DC_old", SentAt: ts(t, "2001-01-01")},
		{DocumentID: "DC_undated"},
		{DocumentID: "DC_new", SentAt: ts(t, "2009-01-01")},
		{DocumentID: "DC_mid", SentAt: ts(t, "2005-01-01")},
	}

	ordered, refs := PlanChunks(records, 10)

	require.Len(t, ordered, 4)
	assert.Equal(t, "DC_new", ordered[0].DocumentID)
	assert.Equal(t, "DC_mid", ordered[1].DocumentID)
	assert.Equal(t, "DC_old", ordered[2].DocumentID)
	assert.Equal(t, "DC_undated", ordered[3].DocumentID)

	require.Len(t, refs, 1)
	assert.Equal(t, 0, refs[0].ID)
	assert.Equal(t, 1, refs[0].StartOrdinal)
	assert.Equal(t, 4, refs[0].EndOrdinal)
	assert.Equal(t, "chunk-0000.json", refs[0].Path)
}

func TestPlanChunks_Partitioning(t *testing.T) {
	tests := []struct {
		records   int
		chunkSize int
		want      int
	}{
		{records: 0, chunkSize: 5, want: 0},
		{records: 1, chunkSize: 1, want: 1},
		{records: 5, chunkSize: 5, want: 1},
		{records: 6, chunkSize: 5, want: 2},
		{records: 10, chunkSize: 3, want: 4},
		{records: 1001, chunkSize: 500, want: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_records_size_%d", tt.records, tt.chunkSize), func(t *testing.T) {
			records := make([]domain.Record, tt.records)
			for i := range records {
				records[i].DocumentID = fmt.Sprintf("DC_%04d", i)
			}

			_, refs := PlanChunks(records, tt.chunkSize)
			require.Len(t, refs, tt.want)

			// Ranges are contiguous, non-overlapping and cover 1..N.
			next := 1
			for i, ref := range refs {
				assert.Equal(t, i, ref.ID)
				assert.Equal(t, next, ref.StartOrdinal)
				assert.GreaterOrEqual(t, ref.EndOrdinal, ref.StartOrdinal)
				if i < len(refs)-1 {
					assert.Equal(t, tt.chunkSize, ref.Count())
				}
				next = ref.EndOrdinal + 1
			}
			if tt.records > 0 {
				assert.Equal(t, tt.records, refs[len(refs)-1].EndOrdinal)
			}
		})
	}
}

func TestPlanChunks_Deterministic(t *testing.T) {
	records := []domain.Record{
		{DocumentID: "DC_b", SentAt: ts(t, "2005-01-01")},
		{DocumentID: "DC_a", SentAt: ts(t, "2005-01-01")},
		{DocumentID: "DC_c"},
	}

	first, firstRefs := PlanChunks(records, 2)
	second, secondRefs := PlanChunks(records, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, firstRefs, secondRefs)

	// Equal timestamps tie-break on document id.
	assert.Equal(t, "DC_a", first[0].DocumentID)
	assert.Equal(t, "DC_b", first[1].DocumentID)
}

func TestPlanChunks_DoesNotMutateInput(t *testing.T) {
	records := []domain.Record{
		{DocumentID: "DC_old", SentAt: ts(t, "2001-01-01")},
		{DocumentID: "DC_new", SentAt: ts(t, "2009-01-01")},
	}

	PlanChunks(records, 10)
	assert.Equal(t, "DC_old", records[0].DocumentID)
}

func TestIDForOrdinal(t *testing.T) {
	assert.Equal(t, 0, IDForOrdinal(1, 500))
	assert.Equal(t, 0, IDForOrdinal(500, 500))
	assert.Equal(t, 1, IDForOrdinal(501, 500))
	assert.Equal(t, 2, IDForOrdinal(1001, 500))
}
