package detect

import (
	"fmt"
	"time"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

// RateDetector raises per-actor rate findings: sustained minute/hour volume,
// sub-gap submissions, and short bursts.
type RateDetector struct {
	cfg RateLimits
}

func NewRateDetector(cfg RateLimits) *RateDetector {
	return &RateDetector{cfg: cfg}
}

func (d *RateDetector) Name() string { return "rate" }

func (d *RateDetector) Detect(ev *types.VoteEvent, store *window.Store, nowMs int64) []types.Finding {
	var findings []types.Finding

	lastHour := store.Recent(window.ByActor, ev.ActorID, time.Hour.Milliseconds(), nowMs)

	// Windows include the event under classification.
	lastMinute := 1
	lastBurst := 1
	minuteCutoff := nowMs - time.Minute.Milliseconds()
	burstCutoff := nowMs - d.cfg.BurstWindowMs
	for _, prev := range lastHour {
		if prev.TimestampMs >= minuteCutoff {
			lastMinute++
		}
		if prev.TimestampMs >= burstCutoff {
			lastBurst++
		}
	}

	if lastMinute >= d.cfg.PerMinute {
		findings = append(findings, types.Finding{
			Code:   types.CodeRateMinute,
			Weight: WeightRateMinute,
			Detail: fmt.Sprintf("%d votes in the last minute", lastMinute),
		})
	}
	if len(lastHour)+1 >= d.cfg.PerHour {
		findings = append(findings, types.Finding{
			Code:   types.CodeRateHour,
			Weight: WeightRateHour,
			Detail: fmt.Sprintf("%d votes in the last hour", len(lastHour)+1),
		})
	}
	if n := len(lastHour); n > 0 {
		gap := nowMs - lastHour[n-1].TimestampMs
		if gap < d.cfg.MinGapMs {
			findings = append(findings, types.Finding{
				Code:   types.CodeTooFast,
				Weight: WeightTooFast,
				Detail: fmt.Sprintf("%dms since previous vote", gap),
			})
		}
	}
	if lastBurst >= d.cfg.BurstCount {
		findings = append(findings, types.Finding{
			Code:   types.CodeRapidBurst,
			Weight: WeightRapidBurst,
			Detail: fmt.Sprintf("%d votes in %dms", lastBurst, d.cfg.BurstWindowMs),
		})
	}
	return findings
}
