package rag_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/testutil"
	"github.com/ouagalab/fasotour/internal/types"
	"github.com/ouagalab/fasotour/pkg/answer"
	"github.com/ouagalab/fasotour/pkg/corpus"
	"github.com/ouagalab/fasotour/pkg/rag"
	"github.com/ouagalab/fasotour/pkg/retriever"
	"github.com/ouagalab/fasotour/pkg/store"
)

func writeCorpus(t *testing.T, path string, docs []models.Document) {
	t.Helper()
	data, err := json.Marshal(docs)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newPipeline(t *testing.T, emb types.Embedder, corpusPath string, opts rag.Options) *rag.Pipeline {
	t.Helper()
	idx := store.NewMemoryIndex()
	retr, err := retriever.New(emb, idx, retriever.Config{TopK: 5, SimilarityThreshold: 0.3})
	require.NoError(t, err)

	p, err := rag.New(emb, idx, retr, answer.New(nil), corpus.NewStore(corpusPath), opts)
	require.NoError(t, err)
	return p
}

func TestChatEndToEnd(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	writeCorpus(t, corpusPath, []models.Document{
		{
			ID:   "doc_1",
			Text: "Ouagadougou est la capitale du Burkina Faso. La ville est le centre politique et culturel du pays.",
			Metadata: models.Metadata{
				Title:    "Ouagadougou - Capitale du Burkina Faso",
				URL:      "https://example.com/ouaga",
				Category: "tourisme",
			},
		},
		{
			ID:       "doc_2",
			Text:     "Recettes traditionnelles: riz gras, tô et dolo pour les gourmands.",
			Metadata: models.Metadata{Title: "Cuisine", Category: "gastronomie"},
		},
	})

	p := newPipeline(t, testutil.NewHashEmbedder(), corpusPath, rag.Options{})

	count, err := p.Reinitialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := p.Chat(context.Background(), "Quelle est la capitale du Burkina Faso?", -1)
	require.NoError(t, err)

	assert.True(t, result.ContextUsed)
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "Ouagadougou - Capitale du Burkina Faso", result.Sources[0].Title)
	assert.GreaterOrEqual(t, result.Sources[0].Similarity, float32(0.3))
	assert.Equal(t, result.NumSources, len(result.Sources))
	assert.NotEmpty(t, result.Response)
}

func TestChatGreetingOnEmptyIndex(t *testing.T) {
	p := newPipeline(t, testutil.NewHashEmbedder(), filepath.Join(t.TempDir(), "corpus.json"), rag.Options{})

	result, err := p.Chat(context.Background(), "Bonjour", -1)
	require.NoError(t, err)

	assert.False(t, result.ContextUsed)
	assert.Zero(t, result.NumSources)
	assert.Contains(t, result.Response, "Bonjour! Je suis votre assistant touristique")
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	p := newPipeline(t, testutil.NewHashEmbedder(), filepath.Join(t.TempDir(), "corpus.json"), rag.Options{})

	for _, q := range []string{"", "   ", "\n\t"} {
		result, err := p.Chat(context.Background(), q, -1)
		assert.ErrorIs(t, err, rag.ErrEmptyQuery)
		assert.Nil(t, result)
	}
}

func TestReinitializeReplacesOldCorpus(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	writeCorpus(t, corpusPath, []models.Document{
		{
			ID:       "doc_1",
			Text:     "La cascade de Karfiguéla offre des chutes spectaculaires près de Banfora.",
			Metadata: models.Metadata{Title: "Karfiguéla", Category: "tourisme"},
		},
	})

	p := newPipeline(t, testutil.NewHashEmbedder(), corpusPath, rag.Options{})
	_, err := p.Reinitialize(context.Background())
	require.NoError(t, err)

	result, err := p.Chat(context.Background(), "cascade de Karfiguéla chutes Banfora", -1)
	require.NoError(t, err)
	require.Positive(t, result.NumSources)

	// Replace the corpus wholesale; the old vectors must not linger.
	writeCorpus(t, corpusPath, []models.Document{
		{
			ID:       "doc_10",
			Text:     "Le marché central propose artisanat, bronze et tissus aux visiteurs curieux.",
			Metadata: models.Metadata{Title: "Marché", Category: "artisanat"},
		},
	})

	count, err := p.Reinitialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	result, err = p.Chat(context.Background(), "cascade de Karfiguéla chutes Banfora", -1)
	require.NoError(t, err)
	assert.Zero(t, result.NumSources)
	assert.False(t, result.ContextUsed)
}

func TestReinitializeSeedsSampleCorpus(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "data", "corpus.json")
	p := newPipeline(t, testutil.NewHashEmbedder(), corpusPath, rag.Options{BatchSize: 3})

	count, err := p.Reinitialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	// The seeded corpus was persisted for the next start.
	_, err = os.Stat(corpusPath)
	assert.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, 7, stats.TotalDocuments)
	assert.Equal(t, 4, stats.Categories["tourisme"])
}

func TestReinitializePreservesMalformedCorpusFile(t *testing.T) {
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	broken := []byte("{not json")
	require.NoError(t, os.WriteFile(corpusPath, broken, 0o644))

	p := newPipeline(t, testutil.NewHashEmbedder(), corpusPath, rag.Options{})

	// A malformed file means zero documents, never sample seeding: the
	// broken file must survive on disk for manual repair.
	count, err := p.Reinitialize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	data, err := os.ReadFile(corpusPath)
	require.NoError(t, err)
	assert.Equal(t, broken, data)
}

func TestChatDegradesToKeywordSearch(t *testing.T) {
	lines := []string{
		"Festival FESPACO à Ouagadougou",
		"Cascade de Banfora",
	}
	p := newPipeline(t, testutil.FailingEmbedder{}, filepath.Join(t.TempDir(), "corpus.json"),
		rag.Options{SourceLines: lines})

	result, err := p.Chat(context.Background(), "banfora cascade", -1)
	require.NoError(t, err)

	assert.False(t, result.ContextUsed)
	assert.Equal(t, 1, result.NumSources)
	assert.Contains(t, result.Response, "Informations trouvées :")
	assert.Contains(t, result.Response, "Cascade de Banfora")
}

func TestKeywordAnswerNoMatch(t *testing.T) {
	result := rag.KeywordAnswer("plage océan surf", []string{"Cascade de Banfora"}, 5)
	assert.Zero(t, result.NumSources)
	assert.False(t, result.ContextUsed)
	assert.Contains(t, result.Response, "reformuler")
}
