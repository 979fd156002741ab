package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/akarpov/mediavault/internal/buildinfo"
	"github.com/akarpov/mediavault/internal/client/cli"
	"github.com/akarpov/mediavault/internal/client/config"
	"github.com/akarpov/mediavault/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	// Missing .env is fine, flags and defaults still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
