package engine

import (
	"time"

	"github.com/arcadenet/voteguard/pkg/engine/batch"
	"github.com/arcadenet/voteguard/pkg/engine/detect"
	"github.com/arcadenet/voteguard/pkg/utils"
)

// Aggregator configures score modifiers and the decision threshold.
type Aggregator struct {
	RepNegBonus       int   `json:"repNegBonus"`
	RepPosDiscount    int   `json:"repPosDiscount"`
	RepGoodMin        int   `json:"repGoodMin"`
	YoungActorPenalty int   `json:"youngActorPenalty"`
	YoungAgeMs        int64 `json:"youngAgeMs"`
	TierDiscount      int   `json:"tierDiscount"`
	BlockThreshold    int   `json:"blockThreshold"`
}

// Retention bounds memory: one horizon for all rings plus defensive caps.
type Retention struct {
	RingHorizonMs     int64 `json:"ringHorizonMs"`
	ActorRingCap      int   `json:"actorRingCap"`
	TargetRingCap     int   `json:"targetRingCap"`
	SourceRingCap     int   `json:"sourceRingCap"`
	BatchSize         int   `json:"batchSize"`
	BatchIntervalMs   int64 `json:"batchIntervalMs"`
	JanitorIntervalMs int64 `json:"janitorIntervalMs"`
}

// Config is the single configuration record for the engine. Every threshold
// the detectors, aggregator, batch analyzer and janitor use lives here.
type Config struct {
	RateLimits   detect.RateLimits   `json:"rateLimits"`
	BurnBounds   detect.BurnBounds   `json:"burnBounds"`
	Coordination detect.Coordination `json:"coordination"`
	Behavior     detect.Behavior     `json:"behavior"`
	Aggregator   Aggregator          `json:"aggregator"`
	Retention    Retention           `json:"retention"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		RateLimits: detect.RateLimits{
			PerMinute:     10,
			PerHour:       100,
			MinGapMs:      3000,
			BurstWindowMs: 30 * time.Second.Milliseconds(),
			BurstCount:    5,
		},
		BurnBounds: detect.BurnBounds{
			Min:      1,
			Max:      1000,
			RoundSet: []float64{0.1, 0.5, 1, 5, 10, 100},
		},
		Coordination: detect.Coordination{
			TargetWindowMs:         5 * time.Minute.Milliseconds(),
			TargetCoTimingRadiusMs: 10 * time.Second.Milliseconds(),
			TargetCoTimingCount:    3,
			TargetVelocityWindowMs: time.Minute.Milliseconds(),
			TargetVelocityCount:    20,
			SourceWindowMs:         time.Hour.Milliseconds(),
			SourceHourLimit:        5,
			SourcePolarityRepeat:   10,
			SourceDistinctActors:   5,
		},
		Behavior: detect.Behavior{
			MinViewMs:          1000,
			ClientFlapWindow:   10,
			ClientFlapDistinct: 3,
			PolarityMinEvents:  10,
			UpRatioMin:         0.3,
			UpRatioMax:         0.8,
		},
		Aggregator: Aggregator{
			RepNegBonus:       20,
			RepPosDiscount:    10,
			RepGoodMin:        50,
			YoungActorPenalty: 15,
			YoungAgeMs:        7 * 24 * time.Hour.Milliseconds(),
			TierDiscount:      5,
			BlockThreshold:    70,
		},
		Retention: Retention{
			RingHorizonMs:     24 * time.Hour.Milliseconds(),
			ActorRingCap:      1024,
			TargetRingCap:     4096,
			SourceRingCap:     4096,
			BatchSize:         100,
			BatchIntervalMs:   30 * time.Second.Milliseconds(),
			JanitorIntervalMs: 5 * time.Minute.Milliseconds(),
		},
	}
}

// ConfigFromEnv overlays environment overrides on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.RateLimits.PerMinute = utils.EnvInt("RATE_PER_MINUTE", cfg.RateLimits.PerMinute)
	cfg.RateLimits.PerHour = utils.EnvInt("RATE_PER_HOUR", cfg.RateLimits.PerHour)
	cfg.RateLimits.MinGapMs = utils.EnvInt64("RATE_MIN_GAP_MS", cfg.RateLimits.MinGapMs)
	cfg.BurnBounds.Min = utils.EnvFloat("BURN_MIN", cfg.BurnBounds.Min)
	cfg.BurnBounds.Max = utils.EnvFloat("BURN_MAX", cfg.BurnBounds.Max)
	cfg.Aggregator.BlockThreshold = utils.EnvInt("BLOCK_THRESHOLD", cfg.Aggregator.BlockThreshold)
	cfg.Retention.RingHorizonMs = utils.EnvInt64("RING_HORIZON_MS", cfg.Retention.RingHorizonMs)
	cfg.Retention.BatchSize = utils.EnvInt("BATCH_SIZE", cfg.Retention.BatchSize)
	cfg.Retention.BatchIntervalMs = utils.EnvInt64("BATCH_INTERVAL_MS", cfg.Retention.BatchIntervalMs)
	cfg.Retention.JanitorIntervalMs = utils.EnvInt64("JANITOR_INTERVAL_MS", cfg.Retention.JanitorIntervalMs)
	return cfg
}

// BatchConfig derives the analyzer bounds from the retention section.
func (c Config) BatchConfig() batch.Config {
	return batch.Config{
		MaxEvents:           c.Retention.BatchSize,
		AttackWindowMs:      time.Minute.Milliseconds(),
		AttackMinEvents:     5,
		SimilarityThreshold: 0.8,
	}
}
