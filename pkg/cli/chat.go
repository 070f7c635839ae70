package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kioku-ai/kioku/pkg/usecase/query"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation over stored memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()
			cfg.limitSet = c.IsSet("limit")

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			uc, err := cfg.newQuery(ctx, repo)
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(os.Stdin)
			w := c.Root().Writer
			fmt.Fprintf(w, "Chat with your memories. Type 'exit' to quit.\n")

			for {
				fmt.Fprintf(w, "> ")
				if !scanner.Scan() {
					break
				}

				message := scanner.Text()
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				response, err := uc.Generate(ctx, message, query.ModeChat, int(cfg.limit))
				if err != nil {
					// A failed question should not kill the session
					fmt.Fprintf(w, "error: %v\n", err)
					continue
				}

				fmt.Fprintf(w, "%s\n", response)
			}

			fmt.Fprintf(w, "\nChat session ended\n")
			return nil
		},
	}
}
