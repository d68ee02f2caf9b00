package window

import (
	"sort"
	"sync"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/puzpuzpuz/xsync/v4"
)

// Kind selects one of the three correlation rings.
type Kind int

const (
	ByActor Kind = iota
	ByTarget
	BySource
)

// ring is an append-only, timestamp-ordered slice of events for one key.
// Entries older than the retention horizon are dropped lazily on access and
// eagerly on the janitor tick; maxLen is a defensive cap, not a correctness
// requirement.
type ring struct {
	mu     sync.Mutex
	events []types.VoteEvent
	maxLen int
}

func (r *ring) append(ev types.VoteEvent, cutoffMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropBefore(cutoffMs)
	r.events = append(r.events, ev)
	if r.maxLen > 0 && len(r.events) > r.maxLen {
		over := len(r.events) - r.maxLen
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
}

// recent returns a snapshot of the events newer than horizonMs before nowMs.
// Readers own the returned slice; lazy eviction never invalidates it.
func (r *ring) recent(horizonMs, nowMs, retentionCutoffMs int64) []types.VoteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropBefore(retentionCutoffMs)
	cutoff := nowMs - horizonMs
	i := sort.Search(len(r.events), func(i int) bool {
		return r.events[i].TimestampMs >= cutoff
	})
	if i == len(r.events) {
		return nil
	}
	out := make([]types.VoteEvent, len(r.events)-i)
	copy(out, r.events[i:])
	return out
}

func (r *ring) evict(cutoffMs int64) (removed, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.events)
	r.dropBefore(cutoffMs)
	return before - len(r.events), len(r.events)
}

func (r *ring) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// dropBefore removes the prefix older than cutoffMs. Caller holds r.mu.
func (r *ring) dropBefore(cutoffMs int64) {
	i := sort.Search(len(r.events), func(i int) bool {
		return r.events[i].TimestampMs >= cutoffMs
	})
	if i == 0 {
		return
	}
	r.events = append(r.events[:0:0], r.events[i:]...)
}

// Sizes reports per-ring key and event counts for the metrics snapshot.
type Sizes struct {
	ActorKeys    int `json:"actorKeys"`
	ActorEvents  int `json:"actorEvents"`
	TargetKeys   int `json:"targetKeys"`
	TargetEvents int `json:"targetEvents"`
	SourceKeys   int `json:"sourceKeys"`
	SourceEvents int `json:"sourceEvents"`
}

// Store holds the three per-key event rings. Each stored event appears in all
// three rings; eviction is scheduled with the same horizon for all of them.
type Store struct {
	byActor  *xsync.Map[string, *ring]
	byTarget *xsync.Map[string, *ring]
	bySource *xsync.Map[string, *ring]

	horizonMs int64
	actorCap  int
	targetCap int
	sourceCap int
}

func NewStore(horizonMs int64, actorCap, targetCap, sourceCap int) *Store {
	return &Store{
		byActor:   xsync.NewMap[string, *ring](),
		byTarget:  xsync.NewMap[string, *ring](),
		bySource:  xsync.NewMap[string, *ring](),
		horizonMs: horizonMs,
		actorCap:  actorCap,
		targetCap: targetCap,
		sourceCap: sourceCap,
	}
}

func (s *Store) mapFor(kind Kind) (*xsync.Map[string, *ring], int) {
	switch kind {
	case ByActor:
		return s.byActor, s.actorCap
	case ByTarget:
		return s.byTarget, s.targetCap
	default:
		return s.bySource, s.sourceCap
	}
}

func (s *Store) keyFor(kind Kind, ev *types.VoteEvent) string {
	switch kind {
	case ByActor:
		return ev.ActorID
	case ByTarget:
		return ev.TargetID
	default:
		return ev.SourceAddress
	}
}

// Append stores the event in all three rings.
func (s *Store) Append(ev types.VoteEvent) {
	cutoff := ev.TimestampMs - s.horizonMs
	for _, kind := range []Kind{ByActor, ByTarget, BySource} {
		m, maxLen := s.mapFor(kind)
		key := s.keyFor(kind, &ev)
		r, ok := m.Load(key)
		if !ok {
			r, _ = m.LoadOrStore(key, &ring{maxLen: maxLen})
		}
		r.append(ev, cutoff)
	}
}

// Recent returns the key's events within horizonMs before nowMs, oldest
// first. The result is a snapshot; a slightly stale tail is acceptable to
// detectors by contract.
func (s *Store) Recent(kind Kind, key string, horizonMs, nowMs int64) []types.VoteEvent {
	m, _ := s.mapFor(kind)
	r, ok := m.Load(key)
	if !ok {
		return nil
	}
	return r.recent(horizonMs, nowMs, nowMs-s.horizonMs)
}

// Evict drops everything older than the retention horizon from all rings and
// removes keys left empty. Idempotent for a fixed nowMs.
func (s *Store) Evict(nowMs int64) int {
	cutoff := nowMs - s.horizonMs
	total := 0
	for _, kind := range []Kind{ByActor, ByTarget, BySource} {
		m, _ := s.mapFor(kind)
		m.Range(func(key string, r *ring) bool {
			removed, remaining := r.evict(cutoff)
			total += removed
			if remaining == 0 {
				m.Delete(key)
			}
			return true
		})
	}
	return total
}

// Sizes counts keys and stored events per ring.
func (s *Store) Sizes() Sizes {
	var sz Sizes
	s.byActor.Range(func(_ string, r *ring) bool {
		sz.ActorKeys++
		sz.ActorEvents += r.size()
		return true
	})
	s.byTarget.Range(func(_ string, r *ring) bool {
		sz.TargetKeys++
		sz.TargetEvents += r.size()
		return true
	})
	s.bySource.Range(func(_ string, r *ring) bool {
		sz.SourceKeys++
		sz.SourceEvents += r.size()
		return true
	})
	return sz
}
