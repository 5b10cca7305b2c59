package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig configures the Ollama embedding model.
type EmbedderConfig struct {
	Model     string
	BaseURL   string // Ollama server URL
	VectorDim int
}

// Embedder encodes text into dense vectors with an Ollama embedding model.
// It is a pure function of its inputs for a fixed model; changing the model
// changes the vector space and requires a full index rebuild.
type Embedder struct {
	config EmbedderConfig
	client *ollama.LLM
}

// NewEmbedder loads the configured embedding model. A failure here is an
// initialization error: the process must not serve chat traffic without a
// working encoder.
func NewEmbedder(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	client, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model %s: %w", config.Model, err)
	}

	return &Embedder{
		config: config,
		client: client,
	}, nil
}

// Encode returns one vector per input text, order-preserving.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(embeddings), len(texts))
	}

	return embeddings, nil
}

// Dimension reports the configured vector dimension.
func (e *Embedder) Dimension() int {
	return e.config.VectorDim
}

// Model reports the model identity the index generation is bound to.
func (e *Embedder) Model() string {
	return e.config.Model
}
