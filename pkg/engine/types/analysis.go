package types

// Decision is the outcome of classifying a vote.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionFlag   Decision = "flag"
	DecisionBlock  Decision = "block"
)

// Analysis is the per-vote classification result.
type Analysis struct {
	Event     VoteEvent `json:"event"`
	Findings  []Finding `json:"findings"`
	RiskScore int       `json:"riskScore"`
	Decision  Decision  `json:"decision"`
}

// Reasons returns the finding codes in detector order, for block responses.
func (a *Analysis) Reasons() []string {
	reasons := make([]string, 0, len(a.Findings))
	for _, f := range a.Findings {
		reasons = append(reasons, string(f.Code))
	}
	return reasons
}
