package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kioku-ai/kioku/pkg/usecase/query"
)

func queryCommand() *cli.Command {
	var (
		cfg  config
		mode string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "Generation mode (chat, poem, dialogue, summary)",
			Value:       string(query.ModeChat),
			Sources:     cli.EnvVars("KIOKU_MODE"),
			Destination: &mode,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)

	return &cli.Command{
		Name:      "query",
		Usage:     "Ask a question over stored memories",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()
			cfg.limitSet = c.IsSet("limit")

			queryText := strings.Join(c.Args().Slice(), " ")
			if queryText == "" {
				return goerr.New("question is required")
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			uc, err := cfg.newQuery(ctx, repo)
			if err != nil {
				return err
			}

			response, err := uc.Generate(ctx, queryText, query.Mode(mode), int(cfg.limit))
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", response)
			return nil
		},
	}
}
