package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

func testEvent(actor, target, source string, tsMs int64) types.VoteEvent {
	return types.VoteEvent{
		ActorID:       actor,
		ActorAddress:  actor,
		TargetID:      target,
		Polarity:      types.PolarityUp,
		BurnAmount:    5,
		SourceAddress: source,
		TimestampMs:   tsMs,
	}
}

func TestAppendStoresEventInAllThreeRings(t *testing.T) {
	s := NewStore(24*time.Hour.Milliseconds(), 1024, 4096, 4096)
	now := int64(1_000_000)
	s.Append(testEvent("actor-1", "target-1", "source-1", now))

	require.Len(t, s.Recent(ByActor, "actor-1", time.Hour.Milliseconds(), now), 1)
	require.Len(t, s.Recent(ByTarget, "target-1", time.Hour.Milliseconds(), now), 1)
	require.Len(t, s.Recent(BySource, "source-1", time.Hour.Milliseconds(), now), 1)
}

func TestRecentHonorsHorizon(t *testing.T) {
	s := NewStore(24*time.Hour.Milliseconds(), 1024, 4096, 4096)
	base := int64(10_000_000)
	s.Append(testEvent("a", "t", "s", base))
	s.Append(testEvent("a", "t", "s", base+30_000))
	s.Append(testEvent("a", "t", "s", base+90_000))

	now := base + 90_000
	got := s.Recent(ByActor, "a", time.Minute.Milliseconds(), now)
	require.Len(t, got, 2)
	require.Equal(t, base+30_000, got[0].TimestampMs)

	require.Empty(t, s.Recent(ByActor, "missing", time.Minute.Milliseconds(), now))
}

func TestRecentReturnsSnapshot(t *testing.T) {
	s := NewStore(24*time.Hour.Milliseconds(), 1024, 4096, 4096)
	now := int64(1_000_000)
	s.Append(testEvent("a", "t", "s", now))

	got := s.Recent(ByActor, "a", time.Hour.Milliseconds(), now)
	got[0].ActorID = "mutated"

	again := s.Recent(ByActor, "a", time.Hour.Milliseconds(), now)
	require.Equal(t, "a", again[0].ActorID)
}

func TestEvictDropsStaleAndIsIdempotent(t *testing.T) {
	horizon := 24 * time.Hour.Milliseconds()
	s := NewStore(horizon, 1024, 4096, 4096)
	base := int64(1_000_000)
	s.Append(testEvent("a", "t", "s", base))
	s.Append(testEvent("a", "t", "s", base+horizon))

	now := base + horizon + 1
	removed := s.Evict(now)
	require.Equal(t, 3, removed) // one event held in three rings

	require.Equal(t, 0, s.Evict(now))

	sz := s.Sizes()
	require.Equal(t, 1, sz.ActorEvents)
	require.Equal(t, 1, sz.ActorKeys)
}

func TestEvictRemovesEmptyKeys(t *testing.T) {
	horizon := time.Hour.Milliseconds()
	s := NewStore(horizon, 1024, 4096, 4096)
	s.Append(testEvent("a", "t", "s", 1000))

	s.Evict(1000 + horizon + 1)
	sz := s.Sizes()
	require.Equal(t, 0, sz.ActorKeys)
	require.Equal(t, 0, sz.TargetKeys)
	require.Equal(t, 0, sz.SourceKeys)
}

func TestRingCapDropsOldest(t *testing.T) {
	s := NewStore(24*time.Hour.Milliseconds(), 4, 4096, 4096)
	base := int64(1_000_000)
	for i := 0; i < 10; i++ {
		s.Append(testEvent("a", "t", "s", base+int64(i)))
	}

	got := s.Recent(ByActor, "a", time.Hour.Milliseconds(), base+10)
	require.Len(t, got, 4)
	require.Equal(t, base+6, got[0].TimestampMs)

	// Target ring has a larger cap and keeps everything.
	require.Len(t, s.Recent(ByTarget, "t", time.Hour.Milliseconds(), base+10), 10)
}
