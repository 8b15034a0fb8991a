package runtime

import (
	"context"
	"log/slog"
	"time"

	"social-live/domain"
)

// Fanout drains the event channel and hands each event to every sink in
// turn. It is the single consumer of the channel, so events for one room
// reach the sinks in the order the relay accepted them: this is what the
// per-room delivery ordering guarantee rests on.
//
// Best-effort only: no delivery, durability or retry guarantees. A slow
// sink is bounded by the per-sink timeout and its error is logged, not
// propagated back to the sender.
type Fanout struct {
	log         *slog.Logger
	events      <-chan domain.DomainEvent
	sinks       []EventSink
	sinkTimeout time.Duration
}

func NewFanout(log *slog.Logger, events <-chan domain.DomainEvent,
	sinkTimeout time.Duration, sinks ...EventSink) *Fanout {
	return &Fanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.log.Debug("Context done, stopping fanout")
			return nil
		case e, ok := <-f.events:
			if !ok {
				return nil
			}
			f.fanout(ctx, e)
		}
	}
}

func (f *Fanout) fanout(ctx context.Context, e domain.DomainEvent) {
	for _, sink := range f.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			f.log.Warn("sink failed to consume event", "chat_id", e.Chat(), "error", err)
		}
		cancel()
	}
}
