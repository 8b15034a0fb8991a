package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"social-live/domain"
	"social-live/errors"
	"social-live/moderation"
	"social-live/observability"
	"social-live/repositories"
)

type IChatService interface {
	CreateDirectChat(requesterID, participantEmail string) (ChatSummary, bool, error)
	CreateGroupChat(requesterID string) (domain.Chat, error)
	FetchSummaries(userID string) ([]ChatSummary, error)
	Messages(userID string, chatID domain.ChatID, page, limit int) (MessagePage, error)
	ChatForUser(chatID domain.ChatID, userID string) (domain.Chat, error)
	PostMessage(ctx context.Context, cmd PostMessageCommand) error
}

// PostMessageCommand carries everything the relay knows about an inbound
// message. SenderSocket lets delivery skip the originating connection.
type PostMessageCommand struct {
	ChatID       domain.ChatID
	Sender       string
	SenderSocket string
	Message      domain.Message
}

// ChatSummary is the listing shape the mobile client renders: the other
// participant's display name resolved from the directory, plus the chat head.
type ChatSummary struct {
	ChatID               string    `json:"chatId"`
	Group                bool      `json:"group"`
	OtherParticipantName string    `json:"otherParticipantName,omitempty"`
	LastMessage          string    `json:"lastMessage,omitempty"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp,omitempty"`
	MessageCount         uint64    `json:"messageCount"`
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalMessages int  `json:"totalMessages"`
	HasMore       bool `json:"hasMore"`
}

// MessagePage is one reverse-chronological history window: page 1 holds
// the newest messages, and messages within a page stay chronological.
// Participant is the other side's display name for the chat header,
// empty for group chats.
type MessagePage struct {
	Messages    []domain.Message `json:"messages"`
	Participant string           `json:"participant,omitempty"`
	Pagination  Pagination       `json:"pagination"`
}

type ChatService struct {
	log       *slog.Logger
	chats     repositories.IChatRepository
	users     repositories.IUserRepository
	moderator *moderation.Moderator
	monitor   *observability.Monitor
	events    chan<- domain.DomainEvent
}

func NewChatService(log *slog.Logger, chats repositories.IChatRepository,
	users repositories.IUserRepository, moderator *moderation.Moderator,
	monitor *observability.Monitor, events chan<- domain.DomainEvent) *ChatService {
	return &ChatService{
		log:       log,
		chats:     chats,
		users:     users,
		moderator: moderator,
		monitor:   monitor,
		events:    events,
	}
}

// CreateDirectChat resolves the peer by email and creates (or returns) the
// direct chat for the pair. Calling it twice for the same pair yields the
// same chat: direct chat identity is the participant pair, not the call.
func (s *ChatService) CreateDirectChat(requesterID, participantEmail string) (ChatSummary, bool, error) {
	peer, err := s.users.GetByEmail(participantEmail)
	if err != nil {
		return ChatSummary{}, false, err
	}

	chat, created, err := s.chats.CreateDirect(requesterID, peer.ID)
	if err != nil {
		return ChatSummary{}, false, err
	}
	return ChatSummary{
		ChatID:               string(chat.ID),
		OtherParticipantName: peer.Name,
		LastMessage:          chat.LastMessage,
		LastMessageTimestamp: chat.LastMessageAt,
		MessageCount:         chat.MessageCount,
	}, created, nil
}

// CreateGroupChat opens a chat holding every registered user, requester
// included. Users registered later are not back-filled.
func (s *ChatService) CreateGroupChat(requesterID string) (domain.Chat, error) {
	ids, err := s.users.ListIDs()
	if err != nil {
		return domain.Chat{}, err
	}
	chat, err := s.chats.CreateGroup(append(ids, requesterID))
	if err != nil {
		return domain.Chat{}, err
	}
	s.log.Info("group chat created", "chat_id", chat.ID, "members", len(chat.Participants))
	return chat, nil
}

// FetchSummaries lists the caller's chats, most recently active first.
func (s *ChatService) FetchSummaries(userID string) ([]ChatSummary, error) {
	chats, err := s.chats.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{
			ChatID:               string(chat.ID),
			Group:                chat.Group,
			LastMessage:          chat.LastMessage,
			LastMessageTimestamp: chat.LastMessageAt,
			MessageCount:         chat.MessageCount,
		}
		if !chat.Group {
			if peer, err := s.users.GetByID(chat.Other(userID)); err == nil {
				summary.OtherParticipantName = peer.Name
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTimestamp.After(summaries[j].LastMessageTimestamp)
	})
	return summaries, nil
}

// Messages serves one history window to a proven participant.
func (s *ChatService) Messages(userID string, chatID domain.ChatID, page, limit int) (MessagePage, error) {
	chat, err := s.ChatForUser(chatID, userID)
	if err != nil {
		return MessagePage{}, err
	}

	var participant string
	if !chat.Group {
		if peer, err := s.users.GetByID(chat.Other(userID)); err == nil {
			participant = peer.Name
		}
	}

	messages, total, err := s.chats.Messages(chatID, page, limit)
	if err != nil {
		return MessagePage{}, err
	}

	totalPages := (total + limit - 1) / limit
	return MessagePage{
		Messages:    messages,
		Participant: participant,
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalMessages: total,
			HasMore:       page*limit < total,
		},
	}, nil
}

// ChatForUser loads a chat and proves the caller belongs to it.
func (s *ChatService) ChatForUser(chatID domain.ChatID, userID string) (domain.Chat, error) {
	chat, err := s.chats.Get(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return domain.Chat{}, errors.ErrForbidden
	}
	return chat, nil
}

// PostMessage validates, authorizes, censors, durably appends and then
// emits the delivery event. The sender identity always comes from the
// authenticated connection, never from the payload. Emission is
// non-blocking: when the pipeline is saturated the message is already
// durable, only live delivery is skipped and counted as dropped.
func (s *ChatService) PostMessage(ctx context.Context, cmd PostMessageCommand) error {
	msg := cmd.Message
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	msg.Sender = cmd.Sender

	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}

	chat, err := s.ChatForUser(cmd.ChatID, cmd.Sender)
	if err != nil {
		return err
	}

	if msg.Type == domain.MessageText {
		msg.Text = s.moderator.Censor(msg.Text)
	}

	stored, err := s.chats.AppendMessage(chat.ID, msg)
	if err != nil {
		return err
	}
	s.monitor.MessagePosted()

	event := domain.MessagePosted{
		ChatID:       chat.ID,
		Message:      stored,
		SenderSocket: cmd.SenderSocket,
	}
	select {
	case s.events <- event:
	default:
		s.monitor.EventDropped()
		s.log.Warn("event pipeline saturated, delivery skipped",
			"chat_id", chat.ID, "message_id", stored.ID)
	}
	return nil
}
