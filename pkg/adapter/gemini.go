package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/kioku-ai/kioku/pkg/model"
)

// Gemini wraps the model backends used by the pipeline: text embeddings,
// joint text/image embeddings, and multimodal content generation.
type Gemini interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	Embedding(ctx context.Context, text string, dims int) ([]float32, error)
	MultimodalEmbedding(ctx context.Context, contents []*genai.Content, dims int) ([]float32, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	multimodalModel string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithMultimodalModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.multimodalModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		multimodalModel: "multimodalembedding@001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}

// GenerateText sends a single-turn prompt and returns the concatenated text
// parts of the first candidate.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.GenerateContent(ctx, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		return "", goerr.New("model returned no text candidates")
	}
	return text, nil
}

// Embedding generates a text embedding in the document text space.
func (g *GeminiClient) Embedding(ctx context.Context, text string, dims int) ([]float32, error) {
	if text == "" {
		return nil, goerr.Wrap(model.ErrEmbedding, "cannot embed empty text")
	}

	config := &genai.EmbedContentConfig{}
	if dims > 0 {
		config.OutputDimensionality = genai.Ptr(int32(dims))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.Wrap(model.ErrEmbedding, "backend returned empty embedding")
	}

	return resp.Embeddings[0].Values, nil
}

// MultimodalEmbedding generates an embedding in the joint text/image space.
// The contents may carry either a text part or inline image bytes.
func (g *GeminiClient) MultimodalEmbedding(ctx context.Context, contents []*genai.Content, dims int) ([]float32, error) {
	config := &genai.EmbedContentConfig{}
	if dims > 0 {
		config.OutputDimensionality = genai.Ptr(int32(dims))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.multimodalModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed multimodal content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.Wrap(model.ErrEmbedding, "backend returned empty embedding")
	}

	return resp.Embeddings[0].Values, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}
