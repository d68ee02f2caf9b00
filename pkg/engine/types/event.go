package types

// Polarity is the direction of a vote.
type Polarity string

const (
	PolarityUp   Polarity = "up"
	PolarityDown Polarity = "down"
)

// Valid reports whether the polarity is one of the enumerated values.
func (p Polarity) Valid() bool {
	return p == PolarityUp || p == PolarityDown
}

// Tier is the collaborator-supplied account tier.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierVIP      Tier = "vip"
)

// VoteEvent is a single vote attempt as seen by the engine. It is immutable
// once created; optional collaborator fields are nil when not supplied.
type VoteEvent struct {
	ActorID       string   `json:"actorId"`
	ActorAddress  string   `json:"actorAddress"`
	TargetID      string   `json:"targetId"`
	Polarity      Polarity `json:"polarity"`
	BurnAmount    float64  `json:"burnAmount"`
	SourceAddress string   `json:"sourceAddress"`

	ClientFingerprint string `json:"clientFingerprint,omitempty"`
	TimestampMs       int64  `json:"timestampMs"`

	// Optional: how long the actor observed the target before voting.
	ViewDurationMs *int64 `json:"viewDurationMs,omitempty"`

	// Optional collaborator-supplied modifiers. The engine never calls the
	// identity provider itself; these must arrive on the event.
	ActorReputation *int   `json:"actorReputation,omitempty"`
	ActorAgeMs      *int64 `json:"actorAgeMs,omitempty"`
	ActorTier       Tier   `json:"actorTier,omitempty"`

	// Optional burn-validator verdict. Only an explicit false forces a block.
	BurnValidated *bool `json:"burnValidated,omitempty"`
}

// MissingFields returns the names of required fields that are absent.
func (e *VoteEvent) MissingFields() []string {
	var missing []string
	if e.ActorID == "" {
		missing = append(missing, "actorId")
	}
	if e.ActorAddress == "" {
		missing = append(missing, "actorAddress")
	}
	if e.TargetID == "" {
		missing = append(missing, "targetId")
	}
	if e.Polarity == "" {
		missing = append(missing, "polarity")
	}
	if e.BurnAmount < 0 {
		missing = append(missing, "burnAmount")
	}
	if e.SourceAddress == "" {
		missing = append(missing, "sourceAddress")
	}
	return missing
}
