package types

// Kind identifies a notification stream that collaborators can subscribe to.
type Kind string

const (
	KindFlag              Kind = "flag"
	KindBlock             Kind = "block"
	KindCoordinatedAttack Kind = "coordinated_attack"
	KindSimilarBehavior   Kind = "similar_behavior"

	// KindAny subscribes a handler to every notification.
	KindAny Kind = "*"
)

// CoordinatedAttack is the batch analyzer's warning for a target whose recent
// window shows low source diversity relative to actor diversity.
type CoordinatedAttack struct {
	TargetID        string `json:"targetId"`
	WindowStartMs   int64  `json:"windowStartMs"`
	Events          int    `json:"events"`
	DistinctActors  int    `json:"distinctActors"`
	DistinctSources int    `json:"distinctSources"`
}

// SimilarBehavior pairs two actors whose timing, polarity and burn profiles
// match above the similarity threshold.
type SimilarBehavior struct {
	Actor1   string  `json:"actor1"`
	Actor2   string  `json:"actor2"`
	Score    float64 `json:"score"`
	TargetID string  `json:"targetId"`
}

// Notification is the envelope delivered to subscribed handlers and to the
// external sink. Exactly one payload field is set, matching Kind.
type Notification struct {
	Kind        Kind   `json:"kind"`
	TimestampMs int64  `json:"timestampMs"`

	Analysis          *Analysis          `json:"analysis,omitempty"`
	CoordinatedAttack *CoordinatedAttack `json:"coordinatedAttack,omitempty"`
	SimilarBehavior   *SimilarBehavior   `json:"similarBehavior,omitempty"`
}
