package detect

import (
	"fmt"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

// CoordinationDetector correlates the new vote with recent traffic on the
// same target and from the same source address.
type CoordinationDetector struct {
	cfg Coordination
}

func NewCoordinationDetector(cfg Coordination) *CoordinationDetector {
	return &CoordinationDetector{cfg: cfg}
}

func (d *CoordinationDetector) Name() string { return "coordination" }

func (d *CoordinationDetector) Detect(ev *types.VoteEvent, store *window.Store, nowMs int64) []types.Finding {
	var findings []types.Finding

	targetRecent := store.Recent(window.ByTarget, ev.TargetID, d.cfg.TargetWindowMs, nowMs)

	// Prior events within the co-timing radius of the new vote.
	coTimed := 0
	velocity := 1
	velocityCutoff := nowMs - d.cfg.TargetVelocityWindowMs
	for _, prev := range targetRecent {
		delta := nowMs - prev.TimestampMs
		if delta < 0 {
			delta = -delta
		}
		if delta <= d.cfg.TargetCoTimingRadiusMs {
			coTimed++
		}
		if prev.TimestampMs >= velocityCutoff {
			velocity++
		}
	}
	if coTimed >= d.cfg.TargetCoTimingCount {
		findings = append(findings, types.Finding{
			Code:   types.CodeCoordinatedTiming,
			Weight: WeightCoordinatedTiming,
			Detail: fmt.Sprintf("%d votes within %dms of this one", coTimed, d.cfg.TargetCoTimingRadiusMs),
		})
	}
	if velocity >= d.cfg.TargetVelocityCount {
		findings = append(findings, types.Finding{
			Code:   types.CodeUnusualVelocity,
			Weight: WeightUnusualVelocity,
			Detail: fmt.Sprintf("target received %d votes in %dms", velocity, d.cfg.TargetVelocityWindowMs),
		})
	}

	sourceRecent := store.Recent(window.BySource, ev.SourceAddress, d.cfg.SourceWindowMs, nowMs)

	samePolarity := 1
	actors := map[string]struct{}{ev.ActorID: {}}
	for _, prev := range sourceRecent {
		if prev.Polarity == ev.Polarity {
			samePolarity++
		}
		actors[prev.ActorID] = struct{}{}
	}
	if len(sourceRecent)+1 >= d.cfg.SourceHourLimit {
		findings = append(findings, types.Finding{
			Code:   types.CodeSourceRateHour,
			Weight: WeightSourceRateHour,
			Detail: fmt.Sprintf("%d votes from source in the last hour", len(sourceRecent)+1),
		})
	}
	if samePolarity >= d.cfg.SourcePolarityRepeat {
		findings = append(findings, types.Finding{
			Code:   types.CodeSourceRepetition,
			Weight: WeightSourceRepetition,
			Detail: fmt.Sprintf("%d %s votes from source", samePolarity, ev.Polarity),
		})
	}
	if len(actors) >= d.cfg.SourceDistinctActors {
		findings = append(findings, types.Finding{
			Code:   types.CodeSourceManyActors,
			Weight: WeightSourceManyActors,
			Detail: fmt.Sprintf("%d distinct actors from source", len(actors)),
		})
	}
	return findings
}
