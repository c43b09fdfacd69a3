package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"claim-assistant/internal/app"
	"claim-assistant/internal/logger"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	// ---- Handler ----
	b, err := app.NewBuilder(cfg, log)
	if err != nil {
		log.Error("failed to create builder", "err", err)
		os.Exit(1)
	}
	defer b.Close()

	h, err := b.SuggestHandler(ctx)
	if err != nil {
		log.Error("failed to create suggest handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
