package engine

import "github.com/arcadenet/voteguard/pkg/engine/types"

// aggregate combines detector findings into a risk score and maps it to a
// decision. The base score is monotonic in the findings multiset; modifiers
// are applied after, then the result is clamped to [0, 100].
func (e *Engine) aggregate(ev *types.VoteEvent, findings []types.Finding) (int, types.Decision) {
	if len(findings) == 0 {
		return 0, types.DecisionAccept
	}

	score := 0
	for _, f := range findings {
		score += f.Weight
	}

	agg := e.cfg.Aggregator
	if ev.ActorReputation != nil {
		if *ev.ActorReputation < 0 {
			score += agg.RepNegBonus
		} else if *ev.ActorReputation >= agg.RepGoodMin {
			score -= agg.RepPosDiscount
		}
	}
	if ev.ActorAgeMs != nil && *ev.ActorAgeMs < agg.YoungAgeMs {
		score += agg.YoungActorPenalty
	}
	if ev.ActorTier == types.TierPremium || ev.ActorTier == types.TierVIP {
		score -= agg.TierDiscount
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if score >= agg.BlockThreshold {
		return score, types.DecisionBlock
	}
	return score, types.DecisionFlag
}
