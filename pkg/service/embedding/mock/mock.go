// Package mock provides a deterministic embedder for tests. Vectors are
// seeded from an FNV hash of the input, so the same input always maps to
// the same point in its space without any model backend.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
)

const defaultDims = 16

// Embedder implements the text and image embedding contracts used by the
// extractor and the query service.
type Embedder struct {
	dims int

	// Fixed maps content to a preset vector, letting tests control
	// similarity ordering precisely. Inputs not present fall back to the
	// hash-seeded vector.
	Fixed map[string][]float32
}

func New() *Embedder {
	return &Embedder{dims: defaultDims}
}

func (e *Embedder) EmbedText(ctx context.Context, text string) (model.Vector, error) {
	if text == "" {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty text")
	}
	return model.Vector{Space: model.SpaceText, Values: e.values(text, "text")}, nil
}

func (e *Embedder) EmbedTextMultimodal(ctx context.Context, text string) (model.Vector, error) {
	if text == "" {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty text")
	}
	return model.Vector{Space: model.SpaceMultimodal, Values: e.values(text, "mm")}, nil
}

func (e *Embedder) EmbedImage(ctx context.Context, data []byte, mimeType string) (model.Vector, error) {
	if len(data) == 0 {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty image")
	}
	return model.Vector{Space: model.SpaceMultimodal, Values: e.values(string(data), "mm")}, nil
}

// values looks up a preset vector by raw input first, then falls back to a
// hash-seeded one. The space prefix keeps text-space and joint-space
// fallback vectors distinct for the same input.
func (e *Embedder) values(input, space string) []float32 {
	if v, ok := e.Fixed[input]; ok {
		return v
	}

	h := fnv.New64a()
	h.Write([]byte(space + ":" + input))
	seed := h.Sum64()

	vec := make([]float32, e.dims)
	for i := range vec {
		// LCG advance per component
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec)
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
