package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// GeneratorConfig configures the Ollama generation model and its sampling
// parameters.
type GeneratorConfig struct {
	Model       string
	BaseURL     string // Ollama server URL
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Timeout     time.Duration
}

// Generator produces continuation text with an Ollama chat model. Every call
// is bounded by the configured timeout so a stuck backend degrades to the
// template tier instead of hanging the request.
type Generator struct {
	config GeneratorConfig
	model  llms.Model
}

func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 512
	}
	if config.TopP == 0 {
		config.TopP = 0.9
	}
	if config.TopK == 0 {
		config.TopK = 50
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Generator{
		config: config,
		model:  model,
	}, nil
}

// Generate requests a completion for the prompt and returns the trimmed text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
		llms.WithTopP(g.config.TopP),
		llms.WithTopK(g.config.TopK),
	)
	if err != nil {
		return "", fmt.Errorf("generation error: %w", err)
	}

	return strings.TrimSpace(out), nil
}
