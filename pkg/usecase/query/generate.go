package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
)

// Mode selects the creative framing of the generated answer
type Mode string

const (
	ModeChat     Mode = "chat"
	ModePoem     Mode = "poem"
	ModeDialogue Mode = "dialogue"
	ModeSummary  Mode = "summary"
)

// Validate checks if the mode is recognized
func (m Mode) Validate() error {
	switch m {
	case ModeChat, ModePoem, ModeDialogue, ModeSummary:
		return nil
	default:
		return goerr.Wrap(model.ErrInvalidArgument, "unknown generation mode", goerr.V("mode", m))
	}
}

const chatInstruction = `You are a creative memory assistant that helps the user relive and
reinterpret their stored memories. Based on the memories below, answer the
question in a creative and engaging way. You may suggest connections
between different memories and offer imaginative interpretations.`

var modeInstructions = map[Mode]string{
	ModeChat:     chatInstruction,
	ModePoem:     "Write a beautiful poem that captures the essence of these memories.",
	ModeDialogue: "Create an engaging dialogue between two characters inspired by these memories.",
	ModeSummary:  "Summarize these memories in a cohesive narrative that connects them.",
}

// Generate retrieves relevant memories and asks the generation gateway for
// a response in the given mode.
func (uc *UseCase) Generate(ctx context.Context, queryText string, mode Mode, k int) (string, error) {
	if err := mode.Validate(); err != nil {
		return "", err
	}

	contents, err := uc.Retrieve(ctx, queryText, k)
	if err != nil {
		return "", goerr.Wrap(err, "failed to retrieve context")
	}

	prompt := buildPrompt(mode, contents, queryText)

	response, err := uc.gateway.GenerateText(ctx, prompt)
	if err != nil {
		return "", goerr.Wrap(err, "generation failed")
	}
	return response, nil
}

// buildPrompt assembles instruction + concatenated retrieval context. This
// assembly is the whole contribution of the core to the generation step.
func buildPrompt(mode Mode, contents []string, queryText string) string {
	var sb strings.Builder

	sb.WriteString(modeInstructions[mode])
	sb.WriteString("\n\nMemories from the vault:\n\n")

	if len(contents) == 0 {
		sb.WriteString("(no stored memories matched the question)\n")
	}
	for _, content := range contents {
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	if mode == ModeChat {
		fmt.Fprintf(&sb, "Question: %s\n\nCreative Response:\n", queryText)
	}

	return sb.String()
}
