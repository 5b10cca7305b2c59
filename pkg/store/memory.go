package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/types"
)

type entry struct {
	id       string
	vector   []float32
	metadata models.Metadata
	text     string
}

// MemoryIndex is an in-process brute-force cosine index. It implements the
// same distance convention as PgVectorIndex (cosine distance = 1 - cosine
// similarity) so the two are interchangeable behind types.VectorIndex.
// Reads may proceed concurrently; writes are mutually exclusive.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
}

var _ types.VectorIndex = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []models.Metadata, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(metadatas) || len(ids) != len(texts) {
		return fmt.Errorf("upsert length mismatch: %d ids, %d vectors, %d metadatas, %d texts",
			len(ids), len(vectors), len(metadatas), len(texts))
	}

	// Validate before mutating so a rejected batch leaves no partial state.
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("upsert entry %d has an empty id", i)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range ids {
		e := entry{id: id, vector: vectors[i], metadata: metadatas[i], text: texts[i]}
		if pos, ok := m.byID[id]; ok {
			m.entries[pos] = e
			continue
		}
		m.byID[id] = len(m.entries)
		m.entries = append(m.entries, e)
	}

	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]types.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]types.SearchHit, 0, len(m.entries))
	for _, e := range m.entries {
		hits = append(hits, types.SearchHit{
			ID:       e.id,
			Text:     e.text,
			Metadata: e.metadata,
			Distance: 1 - cosine(vector, e.vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.byID = make(map[string]int)
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemoryIndex) Close() {}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
