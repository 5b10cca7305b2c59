package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/pkg/store"
)

func seedIndex(t *testing.T, idx *store.MemoryIndex) {
	t.Helper()
	err := idx.Upsert(context.Background(),
		[]string{"doc_1", "doc_2", "doc_3"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
		[]models.Metadata{
			{Title: "Ouagadougou", Category: "tourisme"},
			{Title: "Banfora", Category: "nature"},
			{Title: "Koulouba", Category: "tourisme"},
		},
		[]string{"capitale", "cascades", "palais"},
	)
	require.NoError(t, err)
}

func TestMemoryIndexQueryOrdering(t *testing.T) {
	idx := store.NewMemoryIndex()
	seedIndex(t, idx)

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// Nearest first, ascending distance.
	assert.Equal(t, "doc_1", hits[0].ID)
	assert.Equal(t, "doc_3", hits[1].ID)
	assert.Equal(t, "doc_2", hits[2].ID)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.LessOrEqual(t, hits[1].Distance, hits[2].Distance)

	// Exact match has zero cosine distance.
	assert.InDelta(t, 0, float64(hits[0].Distance), 1e-6)
}

func TestMemoryIndexKBound(t *testing.T) {
	idx := store.NewMemoryIndex()
	seedIndex(t, idx)

	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Query(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Query(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestMemoryIndexUpsertOverwrites(t *testing.T) {
	idx := store.NewMemoryIndex()
	seedIndex(t, idx)

	err := idx.Upsert(context.Background(),
		[]string{"doc_1"},
		[][]float32{{0, 0, 1}},
		[]models.Metadata{{Title: "Ouagadougou v2"}},
		[]string{"capitale v2"},
	)
	require.NoError(t, err)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := idx.Query(context.Background(), []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc_1", hits[0].ID)
	assert.Equal(t, "capitale v2", hits[0].Text)
}

func TestMemoryIndexLengthMismatch(t *testing.T) {
	idx := store.NewMemoryIndex()
	err := idx.Upsert(context.Background(),
		[]string{"doc_1", "doc_2"},
		[][]float32{{1, 0}},
		[]models.Metadata{{}, {}},
		[]string{"a", "b"},
	)
	assert.Error(t, err)

	err = idx.Upsert(context.Background(),
		[]string{""},
		[][]float32{{1, 0}},
		[]models.Metadata{{}},
		[]string{"a"},
	)
	assert.Error(t, err)
}

func TestMemoryIndexRejectedBatchLeavesNoPartialState(t *testing.T) {
	idx := store.NewMemoryIndex()

	// Empty id in the middle of the batch: the whole batch must be rejected,
	// including the valid entries preceding it.
	err := idx.Upsert(context.Background(),
		[]string{"doc_1", "", "doc_3"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
		[]models.Metadata{{}, {}, {}},
		[]string{"a", "b", "c"},
	)
	require.Error(t, err)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndexReset(t *testing.T) {
	idx := store.NewMemoryIndex()
	seedIndex(t, idx)

	require.NoError(t, idx.Reset(context.Background()))

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// Empty index yields an empty result, not an error.
	hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
