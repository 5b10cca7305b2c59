package types

import (
	"context"

	"github.com/ouagalab/fasotour/internal/models"
)

// Embedder maps text to fixed-length dense vectors. Implementations must
// preserve input order and return one vector per input, batch or single.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// SearchHit is one nearest-neighbor result from a VectorIndex, ordered by
// ascending cosine distance (similarity = 1 - distance).
type SearchHit struct {
	ID       string
	Text     string
	Metadata models.Metadata
	Distance float32
}

// VectorIndex stores (id, vector, metadata, text) tuples and supports
// cosine nearest-neighbor search. Reset discards all entries and recreates
// an empty index in the same similarity space; it must complete before any
// subsequent Upsert is accepted.
type VectorIndex interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []models.Metadata, texts []string) error
	Query(ctx context.Context, vector []float32, k int) ([]SearchHit, error)
	Reset(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close()
}

// Generator produces continuation text for a prompt. Implementations are
// expected to bound each call with a timeout; callers treat any error as a
// recoverable tier failure, never as a terminal one.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns the ranked, threshold-filtered matches for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievedMatch, error)
}
