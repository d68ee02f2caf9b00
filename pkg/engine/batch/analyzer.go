// Package batch implements the periodic sweep over recent traffic that looks
// for coordinated attacks and similar-behavior actor pairs. Its emissions are
// advisory; they never change prior decisions.
package batch

import (
	"math"
	"runtime/debug"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

// Config bounds one sweep.
type Config struct {
	MaxEvents           int     `json:"maxEvents"`
	AttackWindowMs      int64   `json:"attackWindowMs"`
	AttackMinEvents     int     `json:"attackMinEvents"`
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

// Analyzer keeps its own bounded ring of the most recent events, populated on
// every classify, and examines it on a timer.
type Analyzer struct {
	mu     sync.Mutex
	events []types.VoteEvent

	cfg    Config
	logger *zap.Logger
	emit   func(n types.Notification)
}

func NewAnalyzer(cfg Config, logger *zap.Logger, emit func(n types.Notification)) *Analyzer {
	return &Analyzer{cfg: cfg, logger: logger, emit: emit}
}

// Observe appends the event to the batch ring, dropping the oldest past the
// ring bound.
func (a *Analyzer) Observe(ev types.VoteEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	if over := len(a.events) - a.cfg.MaxEvents; over > 0 {
		a.events = append(a.events[:0:0], a.events[over:]...)
	}
}

// Evict drops ring entries older than cutoffMs.
func (a *Analyzer) Evict(cutoffMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := sort.Search(len(a.events), func(i int) bool {
		return a.events[i].TimestampMs >= cutoffMs
	})
	if i > 0 {
		a.events = append(a.events[:0:0], a.events[i:]...)
	}
}

// Size returns the current ring occupancy.
func (a *Analyzer) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Run performs one sweep. A failure drops the current batch and is swallowed;
// scheduling continues and a missed sweep only delays detection.
func (a *Analyzer) Run(nowMs int64) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("batch analysis failed, dropping batch",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	a.mu.Lock()
	snapshot := append([]types.VoteEvent(nil), a.events...)
	a.mu.Unlock()
	if len(snapshot) == 0 {
		return
	}

	byTarget := make(map[string][]types.VoteEvent)
	for _, ev := range snapshot {
		byTarget[ev.TargetID] = append(byTarget[ev.TargetID], ev)
	}

	for targetID, group := range byTarget {
		a.checkCoordinatedAttack(targetID, group, nowMs)
		a.checkSimilarBehavior(targetID, group, nowMs)
	}
}

// checkCoordinatedAttack partitions the target's events into fixed windows
// and warns when a busy window shows fewer distinct sources than half its
// distinct actors.
func (a *Analyzer) checkCoordinatedAttack(targetID string, group []types.VoteEvent, nowMs int64) {
	type windowStats struct {
		events  int
		actors  map[string]struct{}
		sources map[string]struct{}
	}
	windows := make(map[int64]*windowStats)
	for _, ev := range group {
		start := ev.TimestampMs - ev.TimestampMs%a.cfg.AttackWindowMs
		w, ok := windows[start]
		if !ok {
			w = &windowStats{actors: map[string]struct{}{}, sources: map[string]struct{}{}}
			windows[start] = w
		}
		w.events++
		w.actors[ev.ActorID] = struct{}{}
		w.sources[ev.SourceAddress] = struct{}{}
	}

	for start, w := range windows {
		if w.events < a.cfg.AttackMinEvents {
			continue
		}
		if float64(len(w.sources)) < float64(len(w.actors))/2 {
			a.logger.Warn("coordinated attack pattern",
				zap.String("target", targetID),
				zap.Int64("windowStart", start),
				zap.Int("events", w.events),
				zap.Int("actors", len(w.actors)),
				zap.Int("sources", len(w.sources)))
			a.emit(types.Notification{
				Kind:        types.KindCoordinatedAttack,
				TimestampMs: nowMs,
				CoordinatedAttack: &types.CoordinatedAttack{
					TargetID:        targetID,
					WindowStartMs:   start,
					Events:          w.events,
					DistinctActors:  len(w.actors),
					DistinctSources: len(w.sources),
				},
			})
		}
	}
}

// actorProfile summarizes one actor's events within a target group.
type actorProfile struct {
	actorID     string
	avgInterval float64 // defined only with >= 2 events
	hasInterval bool
	upRatio     float64
	avgBurn     float64
}

func profileActor(actorID string, events []types.VoteEvent) actorProfile {
	p := actorProfile{actorID: actorID}
	ups := 0
	var burn float64
	for _, ev := range events {
		if ev.Polarity == types.PolarityUp {
			ups++
		}
		burn += ev.BurnAmount
	}
	p.upRatio = float64(ups) / float64(len(events))
	p.avgBurn = burn / float64(len(events))
	if len(events) >= 2 {
		var total int64
		for i := 1; i < len(events); i++ {
			total += events[i].TimestampMs - events[i-1].TimestampMs
		}
		p.avgInterval = float64(total) / float64(len(events)-1)
		p.hasInterval = true
	}
	return p
}

// similarity averages the defined components: inter-event interval (0.4),
// up-ratio (0.3) and average burn (0.3).
func similarity(p1, p2 actorProfile) float64 {
	var score, weight float64
	if p1.hasInterval && p2.hasInterval {
		if m := math.Max(p1.avgInterval, p2.avgInterval); m > 0 {
			score += 0.4 * (1 - math.Abs(p1.avgInterval-p2.avgInterval)/m)
		} else {
			score += 0.4 // both instantaneous, identical
		}
		weight += 0.4
	}
	score += 0.3 * (1 - math.Abs(p1.upRatio-p2.upRatio))
	weight += 0.3
	if m := math.Max(p1.avgBurn, p2.avgBurn); m > 0 {
		score += 0.3 * (1 - math.Abs(p1.avgBurn-p2.avgBurn)/m)
		weight += 0.3
	}
	if weight == 0 {
		return 0
	}
	return score / weight
}

// checkSimilarBehavior compares actor pairs within the group. Large groups
// are capped at n*log2(n) pairs instead of the full n^2 scan.
func (a *Analyzer) checkSimilarBehavior(targetID string, group []types.VoteEvent, nowMs int64) {
	byActor := make(map[string][]types.VoteEvent)
	for _, ev := range group {
		byActor[ev.ActorID] = append(byActor[ev.ActorID], ev)
	}
	if len(byActor) < 2 {
		return
	}

	profiles := make([]actorProfile, 0, len(byActor))
	for actorID, events := range byActor {
		profiles = append(profiles, profileActor(actorID, events))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].actorID < profiles[j].actorID })

	maxPairs := len(profiles) * int(math.Ceil(math.Log2(float64(len(profiles))+1)))
	pairs := 0
	for i := 0; i < len(profiles) && pairs < maxPairs; i++ {
		for j := i + 1; j < len(profiles) && pairs < maxPairs; j++ {
			pairs++
			score := similarity(profiles[i], profiles[j])
			if score <= a.cfg.SimilarityThreshold {
				continue
			}
			a.emit(types.Notification{
				Kind:        types.KindSimilarBehavior,
				TimestampMs: nowMs,
				SimilarBehavior: &types.SimilarBehavior{
					Actor1:   profiles[i].actorID,
					Actor2:   profiles[j].actorID,
					Score:    score,
					TargetID: targetID,
				},
			})
		}
	}
}
