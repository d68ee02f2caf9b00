package types

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/pkg/engine"
	"github.com/arcadenet/voteguard/pkg/notify"
	redisc "github.com/arcadenet/voteguard/pkg/redis"
)

// App owns the engine, the notification registry, the HTTP server and the
// cron scheduler driving the batch analyzer and the janitor.
type App struct {
	Engine   *engine.Engine
	Registry *notify.Registry

	// Redis is the optional notification sink transport; nil when disabled.
	Redis *redisc.Client

	// Cron drives the batch analyzer and janitor ticks.
	Cron *cron.Cron

	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests.
	Server *http.Server
}

// Start runs the server until the context is cancelled, then shuts down the
// scheduler, the dispatch pool and the sink connection.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	a.Registry.Close()

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
