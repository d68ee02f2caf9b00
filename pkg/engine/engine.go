// Package engine implements the vote integrity engine: a streaming detector
// pipeline over sliding per-actor, per-target and per-source histories, a
// risk aggregator, and a periodic batch analyzer over recent traffic.
package engine

import (
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/pkg/engine/batch"
	"github.com/arcadenet/voteguard/pkg/engine/detect"
	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
	"github.com/arcadenet/voteguard/pkg/notify"
)

// Engine is an instantiable classifier. All mutable state (the three rings
// and the batch ring) is owned here; collaborator data must arrive on the
// event itself, so Classify never blocks on I/O.
type Engine struct {
	cfg       Config
	logger    *zap.Logger
	store     *window.Store
	detectors []detect.Detector
	analyzer  *batch.Analyzer
	registry  *notify.Registry
	counters  *counters

	// nowMs supplies the clock for events that arrive without a timestamp
	// and for scheduled maintenance. Overridable in tests.
	nowMs func() int64
}

func New(cfg Config, logger *zap.Logger, registry *notify.Registry) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		store: window.NewStore(
			cfg.Retention.RingHorizonMs,
			cfg.Retention.ActorRingCap,
			cfg.Retention.TargetRingCap,
			cfg.Retention.SourceRingCap,
		),
		detectors: []detect.Detector{
			detect.NewRateDetector(cfg.RateLimits),
			detect.NewBurnDetector(cfg.BurnBounds),
			detect.NewCoordinationDetector(cfg.Coordination),
			detect.NewBehaviorDetector(cfg.Behavior),
		},
		registry: registry,
		counters: newCounters(),
		nowMs:    func() int64 { return time.Now().UnixMilli() },
	}
	e.analyzer = batch.NewAnalyzer(cfg.BatchConfig(), logger, registry.Emit)
	return e
}

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// AddDetector appends a custom detector to the pipeline. Call before serving
// traffic; the detector slice is not guarded.
func (e *Engine) AddDetector(d detect.Detector) {
	e.detectors = append(e.detectors, d)
}

// Subscribe registers a handler for engine notifications.
func (e *Engine) Subscribe(kind types.Kind, h notify.Handler) {
	e.registry.Subscribe(kind, h)
}

// Classify inspects one vote and decides accept, flag or block. It fails
// fast only on shape errors; detector-internal failures are counted, logged
// and skipped so a decision is always produced for well-formed input.
func (e *Engine) Classify(ev types.VoteEvent) (*types.Analysis, error) {
	if missing := ev.MissingFields(); len(missing) > 0 {
		e.counters.rejected.Add(1)
		return nil, &MissingParamsError{Fields: missing}
	}
	if !ev.Polarity.Valid() {
		e.counters.rejected.Add(1)
		return nil, ErrInvalidPolarity
	}
	if ev.TimestampMs == 0 {
		ev.TimestampMs = e.nowMs()
	}
	now := ev.TimestampMs

	var findings []types.Finding
	for _, d := range e.detectors {
		findings = append(findings, e.runDetector(d, &ev, now)...)
	}

	// The burn validator's verdict overrides everything else.
	forcedBlock := ev.BurnValidated != nil && !*ev.BurnValidated
	if forcedBlock {
		findings = append(findings, types.Finding{
			Code:   types.CodeBurnNotValidated,
			Weight: detect.WeightBurnNotValidated,
			Detail: "burn was not validated on-chain",
		})
	}

	score, decision := e.aggregate(&ev, findings)
	if forcedBlock {
		decision = types.DecisionBlock
	}

	// Append on every decision, blocks included, so repeated block attempts
	// keep feeding the rate windows.
	e.store.Append(ev)
	e.analyzer.Observe(ev)

	analysis := &types.Analysis{
		Event:     ev,
		Findings:  findings,
		RiskScore: score,
		Decision:  decision,
	}
	e.count(analysis)
	e.publish(analysis)
	return analysis, nil
}

func (e *Engine) runDetector(d detect.Detector, ev *types.VoteEvent, nowMs int64) (findings []types.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = nil
			e.counters.detectorFailures.Add(1)
			e.logger.Error("detector failed, skipping its findings",
				zap.String("detector", d.Name()),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())))
		}
	}()
	return d.Detect(ev, e.store, nowMs)
}

func (e *Engine) count(a *types.Analysis) {
	e.counters.processed.Add(1)
	switch a.Decision {
	case types.DecisionAccept:
		e.counters.accepted.Add(1)
	case types.DecisionFlag:
		e.counters.flagged.Add(1)
	case types.DecisionBlock:
		e.counters.blocked.Add(1)
	}
	for _, f := range a.Findings {
		e.counters.countFinding(f.Code)
	}
}

func (e *Engine) publish(a *types.Analysis) {
	switch a.Decision {
	case types.DecisionFlag:
		e.registry.Emit(types.Notification{Kind: types.KindFlag, TimestampMs: a.Event.TimestampMs, Analysis: a})
	case types.DecisionBlock:
		e.registry.Emit(types.Notification{Kind: types.KindBlock, TimestampMs: a.Event.TimestampMs, Analysis: a})
	}
}

// RunBatch performs one batch analyzer sweep over the recent-event ring.
func (e *Engine) RunBatch() {
	e.counters.batchRuns.Add(1)
	e.analyzer.Run(e.nowMs())
}

// EvictStale drops events past the retention horizon from all rings and the
// batch ring. Safe to call repeatedly; the second call is a no-op.
func (e *Engine) EvictStale() {
	now := e.nowMs()
	removed := e.store.Evict(now)
	e.analyzer.Evict(now - e.cfg.Retention.RingHorizonMs)
	if removed > 0 {
		e.logger.Debug("evicted stale events", zap.Int("removed", removed))
	}
}

// Snapshot returns the rolling counters and current ring sizes.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Processed:        e.counters.processed.Load(),
		Accepted:         e.counters.accepted.Load(),
		Flagged:          e.counters.flagged.Load(),
		Blocked:          e.counters.blocked.Load(),
		Rejected:         e.counters.rejected.Load(),
		DetectorFailures: e.counters.detectorFailures.Load(),
		BatchRuns:        e.counters.batchRuns.Load(),
		FindingCounts:    e.counters.findingCounts(),
		Rings:            e.store.Sizes(),
		BatchRingSize:    e.analyzer.Size(),
	}
}

// SetClock overrides the engine clock. Test hook.
func (e *Engine) SetClock(nowMs func() int64) { e.nowMs = nowMs }
