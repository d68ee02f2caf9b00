// Package detect holds the synchronous per-vote detectors. Each detector
// reads the new event plus ring snapshots and emits zero or more findings;
// none short-circuits the others, so the aggregator always sees the full
// picture. The new event counts toward its own windows: the first vote that
// completes a burst trips the threshold even though it is not yet stored.
package detect

import (
	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

// Detector is a single synchronous check run inside classify.
type Detector interface {
	Name() string
	Detect(ev *types.VoteEvent, store *window.Store, nowMs int64) []types.Finding
}

// Finding weights. Fixed by the detection model, not configuration.
const (
	WeightRateMinute        = 50
	WeightRateHour          = 30
	WeightTooFast           = 25
	WeightRapidBurst        = 40
	WeightBurnTooLow        = 20
	WeightBurnTooHigh       = 30
	WeightBurnRoundNumber   = 5
	WeightCoordinatedTiming = 45
	WeightUnusualVelocity   = 40
	WeightSourceRateHour    = 35
	WeightSourceRepetition  = 20
	WeightSourceManyActors  = 25
	WeightNoEngagement      = 30
	WeightClientFlapping    = 25
	WeightPolarityAnomaly   = 20
	WeightBurnNotValidated  = 100
)

// RateLimits configures the per-actor rate detector.
type RateLimits struct {
	PerMinute     int   `json:"perMinute"`
	PerHour       int   `json:"perHour"`
	MinGapMs      int64 `json:"minGapMs"`
	BurstWindowMs int64 `json:"burstWindowMs"`
	BurstCount    int   `json:"burstCount"`
}

// BurnBounds configures the burn-amount shape detector. On-chain validation
// is a collaborator concern; this only checks shape.
type BurnBounds struct {
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	RoundSet []float64 `json:"roundSet"`
}

// Coordination configures the cross-actor correlation detector.
type Coordination struct {
	TargetWindowMs         int64 `json:"targetWindowMs"`
	TargetCoTimingRadiusMs int64 `json:"targetCoTimingRadiusMs"`
	TargetCoTimingCount    int   `json:"targetCoTimingCount"`
	TargetVelocityWindowMs int64 `json:"targetVelocityWindowMs"`
	TargetVelocityCount    int   `json:"targetVelocityCount"`
	SourceWindowMs         int64 `json:"sourceWindowMs"`
	SourceHourLimit        int   `json:"sourceHourLimit"`
	SourcePolarityRepeat   int   `json:"sourcePolarityRepeat"`
	SourceDistinctActors   int   `json:"sourceDistinctActors"`
}

// Behavior configures the behavioral-pattern detector.
type Behavior struct {
	MinViewMs          int64   `json:"minViewMs"`
	ClientFlapWindow   int     `json:"clientFlapWindow"`
	ClientFlapDistinct int     `json:"clientFlapDistinct"`
	PolarityMinEvents  int     `json:"polarityMinEvents"`
	UpRatioMin         float64 `json:"upRatioMin"`
	UpRatioMax         float64 `json:"upRatioMax"`
}
