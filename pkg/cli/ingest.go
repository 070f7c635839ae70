package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "extract-timeout",
			Usage:       "Timeout per model call during extraction",
			Value:       2 * time.Minute,
			Sources:     cli.EnvVars("KIOKU_EXTRACT_TIMEOUT"),
			Destination: &cfg.extractTimeout,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Extract and store a batch of media files",
		ArgsUsage: "<file> [<file>...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			uc, err := cfg.newIngest(ctx, repo)
			if err != nil {
				return err
			}

			report, err := uc.Ingest(ctx, paths)
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			w := c.Root().Writer
			for _, res := range report.Results {
				if res.Err != nil {
					fmt.Fprintf(w, "FAIL  %s: %v\n", res.Path, res.Err)
					continue
				}
				fmt.Fprintf(w, "OK    %s (%s) -> %s\n", res.Path, res.Modality, res.ID)
			}
			fmt.Fprintf(w, "\nStored %d of %d files\n", len(report.Stored()), len(report.Results))

			return nil
		},
	}
}
