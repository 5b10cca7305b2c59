package retriever_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/testutil"
	"github.com/ouagalab/fasotour/pkg/retriever"
	"github.com/ouagalab/fasotour/pkg/store"
)

func buildIndex(t *testing.T, emb *testutil.HashEmbedder, texts map[string]string) *store.MemoryIndex {
	t.Helper()
	idx := store.NewMemoryIndex()

	var ids []string
	var docs []string
	for id, text := range texts {
		ids = append(ids, id)
		docs = append(docs, text)
	}
	vectors, err := emb.Encode(context.Background(), docs)
	require.NoError(t, err)

	metas := make([]models.Metadata, len(ids))
	require.NoError(t, idx.Upsert(context.Background(), ids, vectors, metas, docs))
	return idx
}

func TestRetrieveThresholdAndOrdering(t *testing.T) {
	emb := testutil.NewHashEmbedder()
	idx := buildIndex(t, emb, map[string]string{
		"doc_1": "Ouagadougou est la capitale du Burkina Faso et son centre politique",
		"doc_2": "La cascade de Banfora attire les randonneurs",
		"doc_3": "Recette de riz gras et cuisine locale",
	})

	r, err := retriever.New(emb, idx, retriever.Config{TopK: 5, SimilarityThreshold: 0.3})
	require.NoError(t, err)

	matches, err := r.Retrieve(context.Background(), "Quelle est la capitale du Burkina Faso?", -1)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	assert.Equal(t, "doc_1", matches[0].ID)
	for i, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, float32(0.3), "match %d below threshold", i)
		if i > 0 {
			assert.LessOrEqual(t, m.Similarity, matches[i-1].Similarity, "ordering broken at %d", i)
		}
	}
}

func TestRetrieveFilterNeverReorders(t *testing.T) {
	emb := testutil.NewHashEmbedder()
	idx := buildIndex(t, emb, map[string]string{
		"doc_1": "capitale Burkina Faso Ouagadougou musées",
		"doc_2": "capitale Burkina",
		"doc_3": "histoire ancienne royaume mossi",
	})

	r, err := retriever.New(emb, idx, retriever.Config{TopK: 5, SimilarityThreshold: 0.2})
	require.NoError(t, err)

	matches, err := r.Retrieve(context.Background(), "capitale du Burkina", -1)
	require.NoError(t, err)

	raw, err := idx.Query(context.Background(), mustEncode(t, emb, "capitale du Burkina"), 5)
	require.NoError(t, err)

	// The filtered list is a subsequence of the raw nearest-neighbor list.
	j := 0
	for _, hit := range raw {
		if j < len(matches) && matches[j].ID == hit.ID {
			j++
		}
	}
	assert.Equal(t, len(matches), j)
}

func TestRetrieveTopKBounds(t *testing.T) {
	emb := testutil.NewHashEmbedder()
	idx := buildIndex(t, emb, map[string]string{
		"doc_1": "capitale Burkina Faso",
		"doc_2": "capitale Burkina",
		"doc_3": "capitale",
	})

	r, err := retriever.New(emb, idx, retriever.Config{TopK: 5, SimilarityThreshold: 0})
	require.NoError(t, err)

	for _, k := range []int{1, 2, 3, 10} {
		matches, err := r.Retrieve(context.Background(), "capitale", k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(matches), k)
	}

	matches, err := r.Retrieve(context.Background(), "capitale", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	emb := testutil.NewHashEmbedder()
	r, err := retriever.New(emb, store.NewMemoryIndex(), retriever.Config{TopK: 5, SimilarityThreshold: 0.3})
	require.NoError(t, err)

	matches, err := r.Retrieve(context.Background(), "capitale du Burkina Faso", -1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveEncoderFailure(t *testing.T) {
	r, err := retriever.New(testutil.FailingEmbedder{}, store.NewMemoryIndex(), retriever.Config{TopK: 5})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "capitale", -1)
	assert.Error(t, err)
}

func mustEncode(t *testing.T, emb *testutil.HashEmbedder, text string) []float32 {
	t.Helper()
	vectors, err := emb.Encode(context.Background(), []string{text})
	require.NoError(t, err)
	return vectors[0]
}
