package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/app/guard/types"
	"github.com/arcadenet/voteguard/pkg/engine"
	"github.com/arcadenet/voteguard/pkg/logging"
	"github.com/arcadenet/voteguard/pkg/notify"
	redisc "github.com/arcadenet/voteguard/pkg/redis"
	"github.com/arcadenet/voteguard/pkg/utils"
)

// Initialize builds the engine, the notification registry and, when enabled,
// the Redis notification sink.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg := engine.ConfigFromEnv()
	registry := notify.NewRegistry(logger, utils.EnvInt("NOTIFY_WORKERS", 8))

	app := &types.App{
		Registry: registry,
		Logger:   logger,
	}

	if utils.Env("REDIS_ENABLED", "false") == "true" {
		client, redisErr := redisc.NewClient(ctx, logger)
		if redisErr != nil {
			// The engine stays fully functional without the sink.
			logger.Warn("Redis sink disabled", zap.Error(redisErr))
		} else {
			app.Redis = client
			registry.AttachSink(redisc.NewSink(client, logger))
		}
	}

	app.Engine = engine.New(cfg, logger, registry)
	return app
}

// SetupScheduler wires the batch analyzer and janitor ticks.
func SetupScheduler(app *types.App) error {
	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	cfg := app.Engine.Config()
	batchSpec := everySpec(cfg.Retention.BatchIntervalMs)
	janitorSpec := everySpec(cfg.Retention.JanitorIntervalMs)

	if _, err := app.Cron.AddFunc(batchSpec, app.Engine.RunBatch); err != nil {
		return fmt.Errorf("schedule batch analyzer: %w", err)
	}
	if _, err := app.Cron.AddFunc(janitorSpec, app.Engine.EvictStale); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}

	app.Cron.Start()
	app.Logger.Info("Scheduler started",
		zap.String("batch", batchSpec),
		zap.String("janitor", janitorSpec))
	return nil
}

func everySpec(intervalMs int64) string {
	return "@every " + (time.Duration(intervalMs) * time.Millisecond).String()
}
