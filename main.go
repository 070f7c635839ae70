package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/kioku-ai/kioku/pkg/cli"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
