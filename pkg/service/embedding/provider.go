// Package embedding exposes the two embedding spaces used by the vault
// behind one provider: a text-only space for document and transcript
// content, and a joint text/image space for cross-modal retrieval.
//
// The split matters: vectors from the two spaces have different geometry,
// and mixing them in one similarity comparison silently corrupts ranking.
// Every vector returned here carries its space tag so the store can refuse
// such comparisons.
package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
)

// Provider generates embeddings backed by the Gemini adapter
type Provider struct {
	gemini   adapter.Gemini
	textDims int
}

type Option func(*Provider)

// WithTextDims overrides the output dimensionality of the text space
func WithTextDims(dims int) Option {
	return func(p *Provider) {
		p.textDims = dims
	}
}

func New(gemini adapter.Gemini, opts ...Option) *Provider {
	p := &Provider{
		gemini:   gemini,
		textDims: 768,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmbedText embeds document or transcript text in the text-only space.
// Empty input fails fast before any backend call.
func (p *Provider) EmbedText(ctx context.Context, text string) (model.Vector, error) {
	if text == "" {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty text")
	}

	values, err := p.gemini.Embedding(ctx, text, p.textDims)
	if err != nil {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "text embedding failed", goerr.V("cause", err.Error()))
	}

	return model.Vector{Space: model.SpaceText, Values: values}, nil
}

// EmbedImage embeds raw image pixels in the joint text/image space
func (p *Provider) EmbedImage(ctx context.Context, data []byte, mimeType string) (model.Vector, error) {
	if len(data) == 0 {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty image")
	}

	contents := []*genai.Content{genai.NewContentFromBytes(data, mimeType, genai.RoleUser)}
	values, err := p.gemini.MultimodalEmbedding(ctx, contents, 0)
	if err != nil {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "image embedding failed", goerr.V("cause", err.Error()))
	}

	return model.Vector{Space: model.SpaceMultimodal, Values: values}, nil
}

// EmbedTextMultimodal projects query text into the joint text/image space,
// so a natural-language query can rank image records.
func (p *Provider) EmbedTextMultimodal(ctx context.Context, text string) (model.Vector, error) {
	if text == "" {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "cannot embed empty text")
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	values, err := p.gemini.MultimodalEmbedding(ctx, contents, 0)
	if err != nil {
		return model.Vector{}, goerr.Wrap(model.ErrEmbedding, "multimodal text embedding failed", goerr.V("cause", err.Error()))
	}

	return model.Vector{Space: model.SpaceMultimodal, Values: values}, nil
}
