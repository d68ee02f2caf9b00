package detect

import (
	"fmt"
	"math"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

const roundEpsilon = 1e-9

// BurnDetector checks the shape of the staked amount. Whether the burn
// actually happened on-chain is the burn validator's verdict, not ours.
type BurnDetector struct {
	cfg BurnBounds
}

func NewBurnDetector(cfg BurnBounds) *BurnDetector {
	return &BurnDetector{cfg: cfg}
}

func (d *BurnDetector) Name() string { return "burn" }

func (d *BurnDetector) Detect(ev *types.VoteEvent, _ *window.Store, _ int64) []types.Finding {
	var findings []types.Finding

	if ev.BurnAmount < d.cfg.Min {
		findings = append(findings, types.Finding{
			Code:   types.CodeBurnTooLow,
			Weight: WeightBurnTooLow,
			Detail: fmt.Sprintf("burn %v below minimum %v", ev.BurnAmount, d.cfg.Min),
		})
	}
	if ev.BurnAmount > d.cfg.Max {
		findings = append(findings, types.Finding{
			Code:   types.CodeBurnTooHigh,
			Weight: WeightBurnTooHigh,
			Detail: fmt.Sprintf("burn %v above maximum %v", ev.BurnAmount, d.cfg.Max),
		})
	}
	// Weak heuristic, never sufficient to block on its own.
	for _, round := range d.cfg.RoundSet {
		if math.Abs(ev.BurnAmount-round) < roundEpsilon {
			findings = append(findings, types.Finding{
				Code:   types.CodeBurnRoundNumber,
				Weight: WeightBurnRoundNumber,
				Detail: fmt.Sprintf("burn %v is a round amount", ev.BurnAmount),
			})
			break
		}
	}
	return findings
}
