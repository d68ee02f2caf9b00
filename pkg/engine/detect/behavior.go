package detect

import (
	"fmt"
	"time"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

// BehaviorDetector looks for non-human usage patterns in the actor's own
// history: instant votes, fingerprint churn, skewed polarity.
type BehaviorDetector struct {
	cfg Behavior
}

func NewBehaviorDetector(cfg Behavior) *BehaviorDetector {
	return &BehaviorDetector{cfg: cfg}
}

func (d *BehaviorDetector) Name() string { return "behavior" }

func (d *BehaviorDetector) Detect(ev *types.VoteEvent, store *window.Store, nowMs int64) []types.Finding {
	var findings []types.Finding

	if ev.ViewDurationMs != nil && *ev.ViewDurationMs < d.cfg.MinViewMs {
		findings = append(findings, types.Finding{
			Code:   types.CodeNoEngagement,
			Weight: WeightNoEngagement,
			Detail: fmt.Sprintf("voted after viewing for %dms", *ev.ViewDurationMs),
		})
	}

	day := store.Recent(window.ByActor, ev.ActorID, 24*time.Hour.Milliseconds(), nowMs)

	// Fingerprint churn over the trailing window, newest events first.
	prints := map[string]struct{}{}
	if ev.ClientFingerprint != "" {
		prints[ev.ClientFingerprint] = struct{}{}
	}
	seen := 1
	for i := len(day) - 1; i >= 0 && seen < d.cfg.ClientFlapWindow; i-- {
		if fp := day[i].ClientFingerprint; fp != "" {
			prints[fp] = struct{}{}
		}
		seen++
	}
	if len(prints) > d.cfg.ClientFlapDistinct {
		findings = append(findings, types.Finding{
			Code:   types.CodeClientFlapping,
			Weight: WeightClientFlapping,
			Detail: fmt.Sprintf("%d distinct client fingerprints in last %d votes", len(prints), d.cfg.ClientFlapWindow),
		})
	}

	total := len(day) + 1
	if total > d.cfg.PolarityMinEvents {
		ups := 0
		if ev.Polarity == types.PolarityUp {
			ups = 1
		}
		for _, prev := range day {
			if prev.Polarity == types.PolarityUp {
				ups++
			}
		}
		ratio := float64(ups) / float64(total)
		if ratio < d.cfg.UpRatioMin || ratio > d.cfg.UpRatioMax {
			findings = append(findings, types.Finding{
				Code:   types.CodePolarityAnomaly,
				Weight: WeightPolarityAnomaly,
				Detail: fmt.Sprintf("up-ratio %.2f over %d votes", ratio, total),
			})
		}
	}
	return findings
}
