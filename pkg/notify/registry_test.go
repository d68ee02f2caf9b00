package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

type recorder struct {
	mu sync.Mutex
	ns []types.Notification
}

func (r *recorder) handle(n types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ns = append(r.ns, n)
}

func (r *recorder) all() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Notification(nil), r.ns...)
}

func TestSubscribeFiltersByKind(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t), 2)

	flags := &recorder{}
	blocks := &recorder{}
	reg.Subscribe(types.KindFlag, flags.handle)
	reg.Subscribe(types.KindBlock, blocks.handle)

	reg.Emit(types.Notification{Kind: types.KindFlag, TimestampMs: 1})
	reg.Emit(types.Notification{Kind: types.KindFlag, TimestampMs: 2})
	reg.Emit(types.Notification{Kind: types.KindBlock, TimestampMs: 3})
	reg.Close()

	require.Len(t, flags.all(), 2)
	require.Len(t, blocks.all(), 1)
	require.Equal(t, int64(3), blocks.all()[0].TimestampMs)
}

func TestWildcardReceivesEverything(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t), 2)

	everything := &recorder{}
	reg.Subscribe(types.KindAny, everything.handle)

	reg.Emit(types.Notification{Kind: types.KindFlag})
	reg.Emit(types.Notification{Kind: types.KindCoordinatedAttack})
	reg.Emit(types.Notification{Kind: types.KindSimilarBehavior})
	reg.Close()

	require.Len(t, everything.all(), 3)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t), 2)

	reg.Subscribe(types.KindBlock, func(types.Notification) {
		panic("subscriber bug")
	})
	healthy := &recorder{}
	reg.Subscribe(types.KindBlock, healthy.handle)

	reg.Emit(types.Notification{Kind: types.KindBlock})
	reg.Close()

	require.Len(t, healthy.all(), 1)
}

type memorySink struct {
	mu sync.Mutex
	ns []types.Notification
}

func (s *memorySink) Deliver(_ context.Context, n types.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ns = append(s.ns, n)
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ns)
}

func TestSinkReceivesAllKinds(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t), 2)

	sink := &memorySink{}
	reg.AttachSink(sink)

	reg.Emit(types.Notification{Kind: types.KindFlag})
	reg.Emit(types.Notification{Kind: types.KindBlock})
	reg.Close()

	require.Equal(t, 2, sink.count())
}

type slowSink struct{ done chan struct{} }

func (s *slowSink) Deliver(ctx context.Context, _ types.Notification) {
	select {
	case <-ctx.Done():
	case <-time.After(50 * time.Millisecond):
	}
	close(s.done)
}

func TestEmitDoesNotBlockOnSlowSink(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t), 2)

	sink := &slowSink{done: make(chan struct{})}
	reg.AttachSink(sink)

	start := time.Now()
	reg.Emit(types.Notification{Kind: types.KindFlag})
	require.Less(t, time.Since(start), 20*time.Millisecond)

	reg.Close()
	select {
	case <-sink.done:
	default:
		t.Fatal("sink delivery did not complete before Close returned")
	}
}
