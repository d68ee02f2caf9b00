package types

import (
	enginetypes "github.com/arcadenet/voteguard/pkg/engine/types"
)

// VoteRequest is the wire shape of a vote submission. BurnAmount is a pointer
// so an absent field is distinguishable from a zero burn.
type VoteRequest struct {
	ActorID       string   `json:"actorId"`
	ActorAddress  string   `json:"actorAddress"`
	TargetID      string   `json:"targetId"`
	Polarity      string   `json:"polarity"`
	BurnAmount    *float64 `json:"burnAmount"`
	SourceAddress string   `json:"sourceAddress"`

	ClientFingerprint string `json:"clientFingerprint,omitempty"`
	TimestampMs       int64  `json:"timestampMs,omitempty"`
	ViewDurationMs    *int64 `json:"viewDurationMs,omitempty"`
	ActorReputation   *int   `json:"actorReputation,omitempty"`
	ActorAgeMs        *int64 `json:"actorAgeMs,omitempty"`
	ActorTier         string `json:"actorTier,omitempty"`
	BurnValidated     *bool  `json:"burnValidated,omitempty"`
}

// Event converts the request into the engine's event shape. A missing burn
// amount maps to a negative sentinel so the engine rejects it as a missing
// param rather than treating it as zero.
func (r *VoteRequest) Event() enginetypes.VoteEvent {
	ev := enginetypes.VoteEvent{
		ActorID:           r.ActorID,
		ActorAddress:      r.ActorAddress,
		TargetID:          r.TargetID,
		Polarity:          enginetypes.Polarity(r.Polarity),
		BurnAmount:        -1,
		SourceAddress:     r.SourceAddress,
		ClientFingerprint: r.ClientFingerprint,
		TimestampMs:       r.TimestampMs,
		ViewDurationMs:    r.ViewDurationMs,
		ActorReputation:   r.ActorReputation,
		ActorAgeMs:        r.ActorAgeMs,
		ActorTier:         enginetypes.Tier(r.ActorTier),
		BurnValidated:     r.BurnValidated,
	}
	if r.BurnAmount != nil {
		ev.BurnAmount = *r.BurnAmount
	}
	return ev
}

// VoteResponse is returned for accepted and flagged votes.
type VoteResponse struct {
	Decision  string                `json:"decision"`
	RiskScore int                   `json:"riskScore"`
	Findings  []enginetypes.Finding `json:"findings"`
}

// BlockedResponse is the 429 body for blocked votes.
type BlockedResponse struct {
	Error             string   `json:"error"`
	Reasons           []string `json:"reasons"`
	RiskScore         int      `json:"riskScore"`
	RetryAfterSeconds int      `json:"retryAfterSeconds"`
}

// MissingParamsResponse is the 400 body naming the absent fields.
type MissingParamsResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}
