// Package projection builds local read models from observed events.
// It does not emit events and does not touch persistence.
package projection

import (
	"context"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"

	"social-live/domain"
)

// ChatActivity is a per-chat snapshot: message volume, last activity and
// a tally of detected message languages.
type ChatActivity struct {
	Messages     int            `json:"messages"`
	LastActivity time.Time      `json:"last_activity"`
	Languages    map[string]int `json:"languages"`
}

// Activity tallies chat traffic from the event stream. Safe for
// concurrent use; Consume runs on the fanout goroutine while Snapshot is
// served from the stats endpoint.
type Activity struct {
	mu    sync.RWMutex
	chats map[domain.ChatID]*ChatActivity
}

func NewActivity() *Activity {
	return &Activity{chats: make(map[domain.ChatID]*ChatActivity)}
}

func (a *Activity) Consume(_ context.Context, e domain.DomainEvent) error {
	evt, ok := e.(domain.MessagePosted)
	if !ok {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.chats[evt.ChatID]
	if entry == nil {
		entry = &ChatActivity{Languages: make(map[string]int)}
		a.chats[evt.ChatID] = entry
	}
	entry.Messages++
	entry.LastActivity = evt.Message.SentAt

	if evt.Message.Type == domain.MessageText {
		info := whatlanggo.Detect(evt.Message.Text)
		if code := info.Lang.Iso6391(); code != "" {
			entry.Languages[code]++
		}
	}
	return nil
}

// Snapshot copies the current state for reporting.
func (a *Activity) Snapshot() map[string]ChatActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]ChatActivity, len(a.chats))
	for id, entry := range a.chats {
		languages := make(map[string]int, len(entry.Languages))
		for lang, n := range entry.Languages {
			languages[lang] = n
		}
		out[string(id)] = ChatActivity{
			Messages:     entry.Messages,
			LastActivity: entry.LastActivity,
			Languages:    languages,
		}
	}
	return out
}
