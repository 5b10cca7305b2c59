// Package answer turns retrieved context into a natural-language response
// through a three-tier policy: LLM generation, a deterministic template,
// then fixed conversational fallbacks. Tiers are walked in order and a
// tier failure is recoverable, never surfaced to the caller.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/internal/types"
)

// Tier identifies which generation strategy produced the response.
type Tier int

const (
	TierLLM Tier = iota + 1
	TierTemplate
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierLLM:
		return "llm"
	case TierTemplate:
		return "template"
	case TierFallback:
		return "fallback"
	}
	return "unknown"
}

const (
	templateLeadIn  = "Basé sur les informations disponibles: "
	templateExcerpt = 200

	noInformationResponse = "Je ne dispose pas d'informations spécifiques sur ce sujet. " +
		"Pouvez-vous poser une question relative au tourisme au Burkina Faso?"
)

// Ordered: "au revoir" must be probed before shorter triggers would match.
var conversationalResponses = []struct {
	trigger  string
	response string
}{
	{"bonjour", "Bonjour! Je suis votre assistant touristique pour le Burkina Faso. Comment puis-je vous aider?"},
	{"salut", "Salut! Bienvenue. Je suis ici pour répondre à vos questions sur le tourisme au Burkina Faso."},
	{"merci", "De rien! N'hésitez pas à me poser d'autres questions."},
	{"au revoir", "Au revoir! Bon voyage au Burkina Faso!"},
}

// Result is the outcome of one generation call.
type Result struct {
	Response    string
	Sources     []models.Source
	ContextUsed bool
	Tier        Tier
}

// Generator walks the tier list for each query. The LLM backend is
// optional; when absent the template tier answers every contextful query.
type Generator struct {
	llm types.Generator
}

func New(llm types.Generator) *Generator {
	return &Generator{llm: llm}
}

// Generate produces a response for the query grounded in contextDocs.
// Sources are projected from the context documents regardless of which
// tier answered.
func (g *Generator) Generate(ctx context.Context, query string, contextDocs []models.RetrievedMatch) Result {
	contextText := buildContext(contextDocs)

	response, tier := g.runTiers(ctx, query, contextText)

	return Result{
		Response:    response,
		Sources:     projectSources(contextDocs),
		ContextUsed: len(contextDocs) > 0 && tier != TierFallback,
		Tier:        tier,
	}
}

func (g *Generator) runTiers(ctx context.Context, query, contextText string) (string, Tier) {
	if contextText == "" {
		return fallbackResponse(query), TierFallback
	}

	if g.llm != nil {
		response, err := g.llm.Generate(ctx, buildPrompt(query, contextText))
		if err == nil && response != "" {
			return response, TierLLM
		}
		slog.Warn("LLM tier failed, falling back to template", "error", err)
	}

	return templateResponse(contextText), TierTemplate
}

// buildContext labels each document with a 1-based ordinal.
func buildContext(docs []models.RetrievedMatch) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("Document %d:\n%s", i+1, doc.Text)
	}
	return strings.Join(parts, "\n\n")
}

func buildPrompt(query, contextText string) string {
	return fmt.Sprintf("Contexte:\n%s\n\nQuestion: %s\n\nRéponse basée sur le contexte:", contextText, query)
}

func templateResponse(contextText string) string {
	excerpt := []rune(contextText)
	if len(excerpt) > templateExcerpt {
		excerpt = excerpt[:templateExcerpt]
	}
	return templateLeadIn + string(excerpt) + "..."
}

func fallbackResponse(query string) string {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	for _, c := range conversationalResponses {
		if strings.Contains(queryLower, c.trigger) {
			return c.response
		}
	}
	return noInformationResponse
}

func projectSources(docs []models.RetrievedMatch) []models.Source {
	sources := make([]models.Source, len(docs))
	for i, doc := range docs {
		title := doc.Metadata.Title
		if title == "" {
			title = "Source"
		}
		sources[i] = models.Source{
			Title:      title,
			URL:        doc.Metadata.URL,
			Similarity: doc.Similarity,
		}
	}
	return sources
}
