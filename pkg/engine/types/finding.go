package types

// Code is an enumerated reason tag attached to a finding.
type Code string

const (
	// Per-actor rate limits.
	CodeRateMinute Code = "RateMinute"
	CodeRateHour   Code = "RateHour"
	CodeTooFast    Code = "TooFast"
	CodeRapidBurst Code = "RapidBurst"

	// Burn-amount shape checks.
	CodeBurnTooLow      Code = "BurnTooLow"
	CodeBurnTooHigh     Code = "BurnTooHigh"
	CodeBurnRoundNumber Code = "BurnRoundNumber"

	// Cross-actor coordination.
	CodeCoordinatedTiming Code = "CoordinatedTiming"
	CodeUnusualVelocity   Code = "UnusualVelocity"
	CodeSourceRateHour    Code = "SourceRateHour"
	CodeSourceRepetition  Code = "SourceRepetition"
	CodeSourceManyActors  Code = "SourceManyActors"

	// Behavioral patterns.
	CodeNoEngagement    Code = "NoEngagement"
	CodeClientFlapping  Code = "ClientFlapping"
	CodePolarityAnomaly Code = "PolarityAnomaly"

	// Collaborator verdicts.
	CodeBurnNotValidated Code = "BurnNotValidated"
)

// Finding is a single detector observation. Weight is the risk contribution
// in [0, 100] before aggregation.
type Finding struct {
	Code   Code   `json:"code"`
	Weight int    `json:"weight"`
	Detail string `json:"detail,omitempty"`
}
