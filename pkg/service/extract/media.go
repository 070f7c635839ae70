package extract

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/kioku-ai/kioku/pkg/adapter"
)

const (
	captionPrompt = "Describe this image in one short natural-language sentence, " +
		"as a caption. Mention the main subjects and the setting. " +
		"Respond with the caption only."

	transcribePrompt = "Transcribe the speech in this audio verbatim. " +
		"Respond with the transcript only, without timestamps or speaker labels."
)

// GeminiMedia captions images and transcribes audio through the Gemini
// multimodal generation endpoint.
type GeminiMedia struct {
	gemini adapter.Gemini
}

func NewGeminiMedia(gemini adapter.Gemini) *GeminiMedia {
	return &GeminiMedia{gemini: gemini}
}

func (m *GeminiMedia) Caption(ctx context.Context, data []byte, mimeType string) (string, error) {
	return m.describe(ctx, data, mimeType, captionPrompt)
}

func (m *GeminiMedia) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return m.describe(ctx, data, mimeType, transcribePrompt)
}

func (m *GeminiMedia) describe(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := m.gemini.GenerateContent(ctx, contents, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("model returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", goerr.New("model returned empty text")
	}

	return text, nil
}

var _ MediaModel = (*GeminiMedia)(nil)
