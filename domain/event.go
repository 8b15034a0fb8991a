package domain

// DomainEvent is anything the fanout pipeline can deliver to sinks.
type DomainEvent interface {
	Chat() ChatID
}

// MessagePosted is emitted after a message has been durably appended.
// SenderSocket identifies the originating connection so broadcast can
// exclude it: the sender already holds a local optimistic copy.
type MessagePosted struct {
	ChatID       ChatID
	Message      Message
	SenderSocket string
}

func (e MessagePosted) Chat() ChatID {
	return e.ChatID
}
