package engine

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arcadenet/voteguard/pkg/engine/types"
	"github.com/arcadenet/voteguard/pkg/engine/window"
)

// counters are the engine's rolling metrics. Plain atomics; readers get a
// point-in-time snapshot.
type counters struct {
	processed        atomic.Int64
	accepted         atomic.Int64
	flagged          atomic.Int64
	blocked          atomic.Int64
	rejected         atomic.Int64
	detectorFailures atomic.Int64
	batchRuns        atomic.Int64

	byCode *xsync.Map[types.Code, *atomic.Int64]
}

func newCounters() *counters {
	return &counters{byCode: xsync.NewMap[types.Code, *atomic.Int64]()}
}

func (c *counters) countFinding(code types.Code) {
	n, ok := c.byCode.Load(code)
	if !ok {
		n, _ = c.byCode.LoadOrStore(code, &atomic.Int64{})
	}
	n.Add(1)
}

func (c *counters) findingCounts() map[string]int64 {
	out := make(map[string]int64)
	c.byCode.Range(func(code types.Code, n *atomic.Int64) bool {
		out[string(code)] = n.Load()
		return true
	})
	return out
}

// Snapshot is the metrics view returned by the engine.
type Snapshot struct {
	Processed        int64 `json:"processed"`
	Accepted         int64 `json:"accepted"`
	Flagged          int64 `json:"flagged"`
	Blocked          int64 `json:"blocked"`
	Rejected         int64 `json:"rejected"`
	DetectorFailures int64 `json:"detectorFailures"`
	BatchRuns        int64 `json:"batchRuns"`

	FindingCounts map[string]int64 `json:"findingCounts"`
	Rings         window.Sizes     `json:"rings"`
	BatchRingSize int              `json:"batchRingSize"`
}
