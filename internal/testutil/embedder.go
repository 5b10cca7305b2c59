// Package testutil holds deterministic doubles for the ML-backed
// capabilities so the pipeline logic is testable without model weights.
package testutil

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\p{L}{2,}`)

// HashEmbedder is a deterministic bag-of-words encoder: each token is
// hashed into a fixed-dimension bucket and the vector is L2-normalized.
// Texts sharing tokens get high cosine similarity, which is all the
// retrieval logic needs.
type HashEmbedder struct {
	Dim int
}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dim: 64}
}

func (e *HashEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.Dim)
		for _, token := range wordRe.FindAllString(strings.ToLower(text), -1) {
			h := fnv.New32a()
			h.Write([]byte(token))
			vec[h.Sum32()%uint32(e.Dim)]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range vec {
				vec[j] /= n
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *HashEmbedder) Dimension() int { return e.Dim }

// FailingEmbedder always errors, standing in for an unreachable encoder.
type FailingEmbedder struct{}

func (FailingEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding backend unavailable")
}

func (FailingEmbedder) Dimension() int { return 0 }

// StaticGenerator returns a fixed completion, or an error when Err is set.
type StaticGenerator struct {
	Response string
	Err      error
	Prompts  []string
}

func (g *StaticGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}
