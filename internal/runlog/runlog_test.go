package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longform/internal/check"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	ppl := 7.4
	older := Record{
		RunID:        "run-old",
		CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Instruction:  "first run",
		ChunkCount:   3,
		OutputLength: 420,
		ElapsedMS:    95,
		Metrics:      &check.Metrics{OutputLength: 420, UniqueRatio: 0.4, Perplexity: &ppl},
	}
	newer := Record{
		RunID:         "run-new",
		CreatedAt:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Instruction:   "second run",
		ChunkCount:    1,
		OutputLength:  50,
		FailedEntries: 1,
		ElapsedMS:     12,
	}

	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "run-new", records[0].RunID)
	assert.Equal(t, "run-old", records[1].RunID)
	assert.Equal(t, 1, records[0].FailedEntries)
	assert.Nil(t, records[0].Metrics)

	require.NotNil(t, records[1].Metrics)
	assert.Equal(t, 420, records[1].Metrics.OutputLength)
	require.NotNil(t, records[1].Metrics.Perplexity)
	assert.InDelta(t, 7.4, *records[1].Metrics.Perplexity, 1e-9)
}

func TestSaveReplacesExistingRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := Record{RunID: "run-1", Instruction: "before", ChunkCount: 2}
	require.NoError(t, s.Save(ctx, rec))

	rec.Instruction = "after"
	rec.ChunkCount = 5
	require.NoError(t, s.Save(ctx, rec))

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "after", records[0].Instruction)
	assert.Equal(t, 5, records[0].ChunkCount)
}

func TestRecentHonoursLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, Record{
			RunID:     string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	records, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "e", records[0].RunID)
	assert.Equal(t, "d", records[1].RunID)
}
