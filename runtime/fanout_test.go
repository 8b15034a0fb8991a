package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-live/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.DomainEvent
	fail   bool
	block  bool
}

func (s *recordingSink) Consume(ctx context.Context, e domain.DomainEvent) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	if s.fail {
		return errors.New("sink failed")
	}
	return nil
}

func (s *recordingSink) seen() []domain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

func Test_Fanout_Preserves_Event_Order_Per_Sink(t *testing.T) {
	req := require.New(t)
	events := make(chan domain.DomainEvent, 8)
	sink := &recordingSink{}
	fanout := NewFanout(slog.Default(), events, time.Second, sink)

	for i := 0; i < 3; i++ {
		events <- domain.MessagePosted{ChatID: "c1", Message: domain.Message{Text: string(rune('a' + i))}}
	}
	close(events)

	req.NoError(fanout.Run(context.Background()))

	seen := sink.seen()
	req.Len(seen, 3)
	for i, e := range seen {
		req.Equal(string(rune('a'+i)), e.(domain.MessagePosted).Message.Text)
	}
}

func Test_Fanout_One_Failing_Sink_Does_Not_Starve_Others(t *testing.T) {
	req := require.New(t)
	events := make(chan domain.DomainEvent, 1)
	failing := &recordingSink{fail: true}
	healthy := &recordingSink{}
	fanout := NewFanout(slog.Default(), events, time.Second, failing, healthy)

	events <- domain.MessagePosted{ChatID: "c1"}
	close(events)

	req.NoError(fanout.Run(context.Background()))
	req.Len(healthy.seen(), 1)
}

func Test_Fanout_Bounds_A_Slow_Sink(t *testing.T) {
	req := require.New(t)
	events := make(chan domain.DomainEvent, 2)
	slow := &recordingSink{block: true}
	after := &recordingSink{}
	fanout := NewFanout(slog.Default(), events, 20*time.Millisecond, slow, after)

	events <- domain.MessagePosted{ChatID: "c1"}
	events <- domain.MessagePosted{ChatID: "c1"}
	close(events)

	start := time.Now()
	req.NoError(fanout.Run(context.Background()))

	// Two events through a stuck sink, bounded by the per-sink timeout.
	req.Less(time.Since(start), time.Second)
	req.Len(after.seen(), 2)
}

func Test_Fanout_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	events := make(chan domain.DomainEvent)
	fanout := NewFanout(slog.Default(), events, time.Second, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fanout.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("fanout did not stop")
	}
}
