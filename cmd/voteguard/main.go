package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/app/guard"
)

func main() {
	// Optional .env for local runs; env vars win in deployment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := guard.Initialize(ctx)

	if err := guard.SetupScheduler(app); err != nil {
		app.Logger.Fatal("Unable to initialize scheduler", zap.Error(err))
	}

	if err := guard.NewServer(app); err != nil {
		app.Logger.Fatal("Unable to initialize server", zap.Error(err))
	}

	app.Start(ctx)
}
