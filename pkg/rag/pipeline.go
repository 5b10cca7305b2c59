// Package rag drives one chat request end-to-end: retrieve, generate,
// attach sources, package the result. All generation policy lives in
// pkg/answer; all retrieval policy in pkg/retriever.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/types"
	"github.com/ouagalab/fasotour/pkg/answer"
	"github.com/ouagalab/fasotour/pkg/corpus"
	"github.com/ouagalab/fasotour/pkg/keyword"
)

// ErrEmptyQuery rejects empty or whitespace-only queries before any
// retrieval or generation work begins.
var ErrEmptyQuery = errors.New("query must not be empty")

const (
	snippetsLeadIn = "Informations trouvées :\n\n"

	notFoundResponse = "Désolé, je n'ai pas trouvé d'information précise dans mes sources pour votre question.\n" +
		"Essayez de reformuler avec des mots-clés (ex: 'Banfora', 'FESPACO', 'hébergement Ouagadougou')."
)

type Options struct {
	BatchSize   int
	SourceLines []string // keyword fallback data, one fact or URL per line
}

// Pipeline is the conversation orchestrator. Chat requests share read
// access to the encoder and index; Reinitialize holds the write lock so
// reset-then-repopulate is one critical section.
type Pipeline struct {
	mu          sync.RWMutex
	embedder    types.Embedder
	index       types.VectorIndex
	retriever   types.Retriever
	generator   *answer.Generator
	store       *corpus.Store
	batchSize   int
	sourceLines []string
}

func New(embedder types.Embedder, index types.VectorIndex, retr types.Retriever, gen *answer.Generator, store *corpus.Store, opts Options) (*Pipeline, error) {
	if embedder == nil || index == nil || retr == nil || gen == nil || store == nil {
		return nil, fmt.Errorf("rag: all pipeline components are required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	return &Pipeline{
		embedder:    embedder,
		index:       index,
		retriever:   retr,
		generator:   gen,
		store:       store,
		batchSize:   opts.BatchSize,
		sourceLines: opts.SourceLines,
	}, nil
}

// Chat answers one query. topK < 0 selects the configured default. A
// well-formed query always gets a best-effort answer: retrieval failures
// degrade to the keyword fallback instead of failing the request.
func (p *Pipeline) Chat(ctx context.Context, query string, topK int) (*models.ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	matches, err := p.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		slog.Error("retrieval failed, degrading to keyword search", "error", err)
		return KeywordAnswer(query, p.sourceLines, topK), nil
	}

	result := p.generator.Generate(ctx, query, matches)
	slog.Info("chat answered", "query", query, "tier", result.Tier.String(), "sources", len(matches))

	return &models.ChatResult{
		Response:    result.Response,
		Sources:     result.Sources,
		ContextUsed: result.ContextUsed,
		Query:       query,
		NumSources:  len(matches),
	}, nil
}

// Reinitialize clears the vector index and repopulates it from the corpus
// file, seeding the sample corpus when no documents exist. Returns the
// number of documents indexed. Serialized against concurrent Chat calls.
func (p *Pipeline) Reinitialize(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.index.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset index: %w", err)
	}

	docs, err := p.store.Load()
	if err != nil {
		// Corpus load errors are recoverable: zero documents, not an abort.
		// The broken file stays on disk untouched so it can be repaired;
		// seeding over it would destroy whatever it held.
		slog.Error("corpus load failed, continuing empty", "error", err)
	} else if len(docs) == 0 {
		p.store.AddSampleData()
		if err := p.store.Save(); err != nil {
			slog.Warn("failed to persist seeded corpus", "error", err)
		}
		docs = p.store.Documents()
	}

	for start := 0; start < len(docs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := p.indexBatch(ctx, docs[start:end]); err != nil {
			return 0, err
		}
	}

	slog.Info("corpus indexed", "documents", len(docs))
	return len(docs), nil
}

func (p *Pipeline) indexBatch(ctx context.Context, docs []models.Document) error {
	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	metas := make([]models.Metadata, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Text
		metas[i] = doc.Metadata
	}

	vectors, err := p.embedder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if err := p.index.Upsert(ctx, ids, vectors, metas, texts); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// Stats reports document-store statistics.
func (p *Pipeline) Stats() models.CorpusStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store.Statistics()
}

// SetSourceLines replaces the keyword fallback data.
func (p *Pipeline) SetSourceLines(lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceLines = lines
}

// KeywordAnswer builds a degraded-mode ChatResult from substring search
// over the source lines. Used when the semantic pipeline is unavailable.
func KeywordAnswer(query string, lines []string, topK int) *models.ChatResult {
	if topK <= 0 {
		topK = 5
	}

	snippets := keyword.Search(query, lines, topK)
	if len(snippets) == 0 {
		return &models.ChatResult{
			Response:   notFoundResponse,
			Sources:    []models.Source{},
			Query:      query,
			NumSources: 0,
		}
	}

	sources := make([]models.Source, len(snippets))
	for i, s := range snippets {
		sources[i] = models.Source{Title: s}
	}

	return &models.ChatResult{
		Response:   snippetsLeadIn + strings.Join(snippets, "\n"),
		Sources:    sources,
		Query:      query,
		NumSources: len(snippets),
	}
}
