package realtime

import (
	"context"
	"log/slog"

	"social-live/domain"
	"social-live/observability"
)

// BroadcastSink delivers persisted messages to the live sockets of a chat
// room. It sits at the end of the fanout pipeline, so delivery order for
// one room follows the server processing order of sendMessage calls.
type BroadcastSink struct {
	registry *Registry
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewBroadcastSink(registry *Registry, monitor *observability.Monitor, log *slog.Logger) *BroadcastSink {
	return &BroadcastSink{registry: registry, monitor: monitor, log: log}
}

// Consume fans a MessagePosted event out to everyone in the room except
// the sender's own socket, which already holds an optimistic copy.
// Offline participants are simply not in the room: they catch up on
// their next paginated fetch.
func (s *BroadcastSink) Consume(_ context.Context, e domain.DomainEvent) error {
	evt, ok := e.(domain.MessagePosted)
	if !ok {
		return nil
	}

	payload, err := marshalEnvelope(EventReceiveMessage, evt.Message)
	if err != nil {
		return err
	}

	delivered := s.registry.Broadcast(ChatRoom(string(evt.ChatID)), payload, evt.SenderSocket)
	s.monitor.MessagesDelivered(delivered)
	s.log.Debug("message broadcast", "chat_id", evt.ChatID, "delivered", delivered)
	return nil
}
