package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/society/backend/internal/infrastructure/logger"
	"github.com/society/backend/internal/interfaces/console"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(console.ExitFailure)
	}

	level := os.Getenv("SOCIETY_CONSOLE_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(console.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root := console.NewRootCommand(cfg, os.Stdout, log)
	err = root.ExecuteContext(ctx)
	stop()
	_ = log.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(console.ExitCode(err))
}
