package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

const previewLen = 72

func listCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List all stored memories",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			records, err := repo.ListAll(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, rec := range records {
				preview := strings.ReplaceAll(rec.Content, "\n", " ")
				if len(preview) > previewLen {
					preview = preview[:previewLen] + "..."
				}
				fmt.Fprintf(w, "%s  [%s]  %s\n    %s\n", rec.ID, rec.Modality, rec.SourceFilename, preview)
			}
			fmt.Fprintf(w, "\n%d memories stored\n", len(records))

			return nil
		},
	}
}
