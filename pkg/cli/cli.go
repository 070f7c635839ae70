package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/kioku-ai/kioku/pkg/utils/logging"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "kioku",
		Usage: "Multimodal personal memory vault",
		Commands: []*cli.Command{
			ingestCommand(),
			queryCommand(),
			chatCommand(),
			listCommand(),
			deleteCommand(),
			clearCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
