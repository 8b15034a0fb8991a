//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-live/domain"
	"social-live/errors"
)

type IChatRepository interface {
	CreateDirect(a, b string) (domain.Chat, bool, error)
	CreateGroup(members []string) (domain.Chat, error)
	Get(id domain.ChatID) (domain.Chat, error)
	ListForUser(userID string) ([]domain.Chat, error)
	AppendMessage(id domain.ChatID, msg domain.Message) (domain.Message, error)
	Messages(id domain.ChatID, page, limit int) ([]domain.Message, int, error)
}

// ChatRepository persists chat documents and their ordered message logs
// in BadgerDB.
//
// Key layout:
//   - "chat:{chat_id}"              the chat document (participants, head)
//   - "chatmsg:{chat_id}:{seq}"     one message, seq zero-padded to 19
//     digits so a prefix scan yields chronological order
//   - "direct:{a|b}"                order-independent pair -> chat id,
//     making direct chat creation idempotent
//   - "member:{user_id}:{chat_id}"  membership index for chat listings
type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log}
}

const appendRetries = 5

// CreateDirect returns the existing chat for the pair when one exists;
// the second return reports whether a new chat was created.
func (r *ChatRepository) CreateDirect(a, b string) (domain.Chat, bool, error) {
	chat, err := domain.NewDirectChat(a, b)
	if err != nil {
		return domain.Chat{}, false, err
	}

	pairKey := []byte("direct:" + domain.DirectKey(a, b))
	created := false
	err = r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey)
		if err == nil {
			// Already exists: load the referenced chat instead.
			return item.Value(func(val []byte) error {
				existing, err := getChat(txn, domain.ChatID(val))
				if err != nil {
					return err
				}
				chat = existing
				return nil
			})
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		created = true
		if err := setChat(txn, chat); err != nil {
			return err
		}
		if err := txn.Set(pairKey, []byte(chat.ID)); err != nil {
			return err
		}
		return setMembers(txn, chat)
	})
	if err != nil {
		return domain.Chat{}, false, err
	}
	return chat, created, nil
}

func (r *ChatRepository) CreateGroup(members []string) (domain.Chat, error) {
	chat, err := domain.NewGroupChat(members)
	if err != nil {
		return domain.Chat{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := setChat(txn, chat); err != nil {
			return err
		}
		return setMembers(txn, chat)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (r *ChatRepository) Get(id domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		loaded, err := getChat(txn, id)
		if err != nil {
			return err
		}
		chat = loaded
		return nil
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (r *ChatRepository) ListForUser(userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("member:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			chatID := domain.ChatID(strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
			chat, err := getChat(txn, chatID)
			if err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// AppendMessage durably appends a message and moves the chat head
// (lastMessage, lastMessageTimestamp, count) in a single transaction.
// Badger detects write conflicts between concurrent senders, so the
// read-modify-write is retried instead of losing an update.
func (r *ChatRepository) AppendMessage(id domain.ChatID, msg domain.Message) (domain.Message, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			chat, err := getChat(txn, id)
			if err != nil {
				return err
			}
			chat.MessageCount++
			chat.LastMessage = msg.Preview()
			chat.LastMessageAt = msg.SentAt

			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(messageKey(id, chat.MessageCount)), data); err != nil {
				return err
			}
			return setChat(txn, chat)
		})
		if err == nil {
			return msg, nil
		}
		if err != badger.ErrConflict {
			return domain.Message{}, err
		}
		lastErr = err
		r.log.Debug("append conflict, retrying", "chat_id", id, "attempt", attempt+1)
	}
	return domain.Message{}, lastErr
}

// Messages returns one reverse-chronological window over the ordered log
// plus the total message count. Page 1 holds the newest messages; within
// a page messages stay in chronological order. The padded sequence keys
// let the window be served by a bounded prefix scan rather than loading
// the whole history.
func (r *ChatRepository) Messages(id domain.ChatID, page, limit int) ([]domain.Message, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, errors.ErrInvalidMessage
	}

	var messages []domain.Message
	var total int
	err := r.db.View(func(txn *badger.Txn) error {
		chat, err := getChat(txn, id)
		if err != nil {
			return err
		}
		total = int(chat.MessageCount)

		end := total - (page-1)*limit
		if end < 1 {
			return nil
		}
		start := end - limit + 1
		if start < 1 {
			start = 1
		}

		prefix := []byte(fmt.Sprintf("chatmsg:%s:", id))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(messageKey(id, uint64(start)))); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == end-start+1 {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func messageKey(id domain.ChatID, seq uint64) string {
	return fmt.Sprintf("chatmsg:%s:%019d", id, seq)
}

func getChat(txn *badger.Txn, id domain.ChatID) (domain.Chat, error) {
	item, err := txn.Get([]byte("chat:" + id))
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, errors.ErrNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	var chat domain.Chat
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &chat)
	})
	return chat, err
}

func setChat(txn *badger.Txn, chat domain.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return err
	}
	return txn.Set([]byte("chat:"+chat.ID), data)
}

func setMembers(txn *badger.Txn, chat domain.Chat) error {
	for _, p := range chat.Participants {
		if err := txn.Set([]byte("member:"+p+":"+string(chat.ID)), nil); err != nil {
			return err
		}
	}
	return nil
}
