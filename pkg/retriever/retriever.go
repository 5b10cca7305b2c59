// Package retriever composes the embedding encoder and the vector index
// into semantic retrieval with similarity-threshold filtering.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/types"
)

type Config struct {
	TopK                int
	SimilarityThreshold float32
}

type Retriever struct {
	embedder types.Embedder
	index    types.VectorIndex
	config   Config
}

var _ types.Retriever = (*Retriever)(nil)

func New(embedder types.Embedder, index types.VectorIndex, config Config) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("retriever: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("retriever: vector index must not be nil")
	}
	if config.TopK <= 0 {
		config.TopK = 5
	}

	return &Retriever{
		embedder: embedder,
		index:    index,
		config:   config,
	}, nil
}

// Retrieve encodes the query, runs nearest-neighbor search and keeps only
// matches at or above the similarity threshold, preserving the index's
// descending-similarity order. A negative topK selects the configured
// default; topK == 0 yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievedMatch, error) {
	if topK < 0 {
		topK = r.config.TopK
	}
	if topK == 0 {
		return nil, nil
	}

	vectors, err := r.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("encoder returned no vector for query")
	}

	hits, err := r.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	matches := make([]models.RetrievedMatch, 0, len(hits))
	for _, hit := range hits {
		similarity := 1 - hit.Distance
		if similarity < r.config.SimilarityThreshold {
			continue
		}
		matches = append(matches, models.RetrievedMatch{
			ID:         hit.ID,
			Text:       hit.Text,
			Metadata:   hit.Metadata,
			Similarity: similarity,
		})
	}

	slog.Debug("documents retrieved", "query", query, "kept", len(matches), "top_k", topK)
	return matches, nil
}
