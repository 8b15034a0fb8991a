package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"social-live/errors"
)

type ChatID string

// Chat is the persisted conversation container. Participants are
// deduplicated and number at least two; direct chats have exactly two.
// Chats are never deleted.
type Chat struct {
	ID            ChatID    `json:"id"`
	Participants  []string  `json:"participants"`
	Group         bool      `json:"group"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageTimestamp,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	MessageCount  uint64    `json:"messageCount"`
}

func NewDirectChat(a, b string) (Chat, error) {
	if a == b || a == "" || b == "" {
		return Chat{}, errors.ErrSelfChat
	}
	return Chat{
		ID:           ChatID(uuid.NewString()),
		Participants: []string{a, b},
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func NewGroupChat(members []string) (Chat, error) {
	members = lo.Uniq(members)
	if len(members) < 2 {
		return Chat{}, errors.ErrSelfChat
	}
	return Chat{
		ID:           ChatID(uuid.NewString()),
		Participants: members,
		Group:        true,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (c Chat) HasParticipant(userID string) bool {
	return lo.Contains(c.Participants, userID)
}

// Other returns the participant that is not userID, for direct chat summaries.
func (c Chat) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// DirectKey is the order-independent identity of a participant pair.
// Two createChat calls for the same pair resolve to the same key.
func DirectKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}
