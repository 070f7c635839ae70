package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func clearCommand() *cli.Command {
	var cfg config
	var force bool

	flags := append(globalFlags(&cfg),
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Skip the confirmation and delete all memories",
			Destination: &force,
		},
	)

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all memories from the vault",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if !force {
				return goerr.New("refusing to clear the vault without --force")
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Clear(ctx); err != nil {
				return goerr.Wrap(err, "failed to clear memories")
			}

			fmt.Fprintln(c.Root().Writer, "Cleared all memories")
			return nil
		},
	}
}
