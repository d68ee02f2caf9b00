package detect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

func defaultBehavior() Behavior {
	return Behavior{
		MinViewMs:          1000,
		ClientFlapWindow:   10,
		ClientFlapDistinct: 3,
		PolarityMinEvents:  10,
		UpRatioMin:         0.3,
		UpRatioMax:         0.8,
	}
}

func TestNoEngagement(t *testing.T) {
	d := NewBehaviorDetector(defaultBehavior())
	store := newTestStore()

	view := int64(500)
	ev := actorEvent("a", 1_000_000)
	ev.ViewDurationMs = &view
	require.True(t, hasCode(d.Detect(&ev, store, ev.TimestampMs), types.CodeNoEngagement))

	// Absent view duration is not penalized.
	ev2 := actorEvent("a", 1_000_000)
	require.False(t, hasCode(d.Detect(&ev2, store, ev2.TimestampMs), types.CodeNoEngagement))

	// Long enough view passes.
	view3 := int64(8000)
	ev3 := actorEvent("a", 1_000_000)
	ev3.ViewDurationMs = &view3
	require.False(t, hasCode(d.Detect(&ev3, store, ev3.TimestampMs), types.CodeNoEngagement))
}

func TestClientFlapping(t *testing.T) {
	d := NewBehaviorDetector(defaultBehavior())
	store := newTestStore()
	base := int64(1_000_000)

	for i := 0; i < 9; i++ {
		ev := actorEvent("a", base+int64(i)*60_000)
		ev.ClientFingerprint = fmt.Sprintf("fp-%d", i%3)
		store.Append(ev)
	}

	ev := actorEvent("a", base+9*60_000)
	ev.ClientFingerprint = "fp-9"
	require.True(t, hasCode(d.Detect(&ev, store, ev.TimestampMs), types.CodeClientFlapping))

	// A stable fingerprint does not trip the detector.
	store2 := newTestStore()
	for i := 0; i < 9; i++ {
		ev := actorEvent("b", base+int64(i)*60_000)
		ev.ClientFingerprint = "fp-stable"
		store2.Append(ev)
	}
	ev2 := actorEvent("b", base+9*60_000)
	ev2.ClientFingerprint = "fp-stable"
	require.False(t, hasCode(d.Detect(&ev2, store2, ev2.TimestampMs), types.CodeClientFlapping))
}

func TestPolarityAnomaly(t *testing.T) {
	d := NewBehaviorDetector(defaultBehavior())
	base := int64(1_000_000)

	// All-up voting across more than ten events in 24h.
	store := newTestStore()
	for i := 0; i < 10; i++ {
		store.Append(actorEvent("a", base+int64(i)*time.Minute.Milliseconds()))
	}
	ev := actorEvent("a", base+10*time.Minute.Milliseconds())
	require.True(t, hasCode(d.Detect(&ev, store, ev.TimestampMs), types.CodePolarityAnomaly))

	// Balanced history stays inside the band.
	store2 := newTestStore()
	for i := 0; i < 10; i++ {
		ev := actorEvent("b", base+int64(i)*time.Minute.Milliseconds())
		if i%2 == 0 {
			ev.Polarity = types.PolarityDown
		}
		store2.Append(ev)
	}
	ev2 := actorEvent("b", base+10*time.Minute.Milliseconds())
	require.False(t, hasCode(d.Detect(&ev2, store2, ev2.TimestampMs), types.CodePolarityAnomaly))

	// Ten or fewer events is not enough signal.
	store3 := newTestStore()
	for i := 0; i < 9; i++ {
		store3.Append(actorEvent("c", base+int64(i)*time.Minute.Milliseconds()))
	}
	ev3 := actorEvent("c", base+9*time.Minute.Milliseconds())
	require.False(t, hasCode(d.Detect(&ev3, store3, ev3.TimestampMs), types.CodePolarityAnomaly))
}
