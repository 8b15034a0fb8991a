package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"social-live/domain"
	"social-live/errors"
	"social-live/realtime"
)

// SendState tracks one outbound message through its lifecycle. Delivered
// and failed are terminal: a failed send is only retried when the user
// asks for it.
type SendState string

const (
	SendPending   SendState = "pending"
	SendDelivered SendState = "delivered"
	SendFailed    SendState = "failed"
)

const (
	historyAttempts = 3
	historyBackoff  = 500 * time.Millisecond
	historyPageSize = 20
)

type pendingOp struct {
	ChatID  string
	Message domain.Message
	State   SendState
}

// ChatController mirrors one open chat screen: the local message view,
// optimistic sends, history paging and the live subscription.
type ChatController struct {
	rest   *RestClient
	socket *Socket
	chatID string

	mu       sync.Mutex
	view     []domain.Message
	seen     map[string]struct{}
	ops      map[string]*pendingOp
	oldest   int // next history page to load
	loadSeq  uint64
	totalMsg int
}

func NewChatController(rest *RestClient, socket *Socket, chatID string) *ChatController {
	return &ChatController{
		rest:   rest,
		socket: socket,
		chatID: chatID,
		seen:   make(map[string]struct{}),
		ops:    make(map[string]*pendingOp),
		oldest: 1,
	}
}

// Open joins the chat's live room and loads the newest history page.
func (c *ChatController) Open() error {
	if err := c.socket.Emit(realtime.EventJoinChat, map[string]string{"chatId": c.chatID}); err != nil {
		return err
	}
	return c.LoadOlder()
}

func (c *ChatController) Close() error {
	return c.socket.Emit(realtime.EventLeaveChat, map[string]string{"chatId": c.chatID})
}

// SendText sends a text message optimistically: it enters the local view
// immediately and the returned operation id tracks its fate.
func (c *ChatController) SendText(text string) (string, error) {
	msg := domain.Message{
		ID:     uuid.New(),
		Type:   domain.MessageText,
		Text:   text,
		SentAt: time.Now().UTC(),
	}
	return c.send(msg)
}

// SendMedia uploads the attachment and sends the referencing message.
// Oversized payloads are rejected here, before any network traffic.
func (c *ChatController) SendMedia(mediaType domain.MediaType, mimeType, fileName string, payload []byte) (string, error) {
	if int64(len(payload)) > domain.MaxBytes(mediaType) {
		return "", errors.ErrMediaTooLarge
	}

	mediaID, err := c.rest.UploadMedia(mediaType, mimeType, payload)
	if err != nil {
		return "", err
	}

	// Video files travel as document messages; the message variant set is
	// text, image, audio, document.
	msgType := domain.MessageType(mediaType)
	if mediaType == domain.MediaVideo {
		msgType = domain.MessageDocument
	}
	msg := domain.Message{
		ID:       uuid.New(),
		Type:     msgType,
		MediaRef: mediaID,
		FileName: fileName,
		FileSize: int64(len(payload)),
		SentAt:   time.Now().UTC(),
	}
	return c.send(msg)
}

func (c *ChatController) send(msg domain.Message) (string, error) {
	opID := uuid.NewString()

	c.mu.Lock()
	c.ops[opID] = &pendingOp{ChatID: c.chatID, Message: msg, State: SendPending}
	c.appendLocked(msg)
	c.mu.Unlock()

	c.emit(opID)
	return opID, nil
}

// Retry re-sends a failed operation. Pending and delivered operations are
// left alone.
func (c *ChatController) Retry(opID string) error {
	c.mu.Lock()
	op, ok := c.ops[opID]
	if !ok || op.State != SendFailed {
		c.mu.Unlock()
		return fmt.Errorf("operation %s is not retryable", opID)
	}
	op.State = SendPending
	c.mu.Unlock()

	c.emit(opID)
	return nil
}

func (c *ChatController) emit(opID string) {
	c.mu.Lock()
	op := c.ops[opID]
	c.mu.Unlock()

	raw, err := json.Marshal(op.Message)
	if err == nil {
		err = c.socket.Emit(realtime.EventSendMessage, map[string]any{
			"chatId":  op.ChatID,
			"message": json.RawMessage(raw),
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		op.State = SendFailed
		return
	}
	op.State = SendDelivered
}

// State reports the lifecycle state of a send operation.
func (c *ChatController) State(opID string) (SendState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[opID]
	if !ok {
		return "", false
	}
	return op.State, true
}

// LoadOlder fetches the next history page and prepends it to the view.
// The fetch is retried up to three times with a doubling delay; a
// response from a superseded fetch is discarded so stale pages never
// overwrite newer state.
func (c *ChatController) LoadOlder() error {
	c.mu.Lock()
	page := c.oldest
	seq := c.loadSeq + 1
	c.loadSeq = seq
	c.mu.Unlock()

	var window struct {
		Messages   []domain.Message
		HasMore    bool
		TotalCount int
	}
	var err error
	delay := historyBackoff
	for attempt := 0; attempt < historyAttempts; attempt++ {
		pageResp, fetchErr := c.rest.Messages(c.chatID, page, historyPageSize)
		if fetchErr == nil {
			window.Messages = pageResp.Messages
			window.HasMore = pageResp.Pagination.HasMore
			window.TotalCount = pageResp.Pagination.TotalMessages
			err = nil
			break
		}
		err = fetchErr
		if attempt < historyAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	if err != nil {
		return fmt.Errorf("loading history page %d: %w", page, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		// A newer load superseded this one while it was in flight.
		return nil
	}

	prepend := make([]domain.Message, 0, len(window.Messages))
	for _, msg := range window.Messages {
		if _, dup := c.seen[msg.ID.String()]; dup {
			continue
		}
		c.seen[msg.ID.String()] = struct{}{}
		prepend = append(prepend, msg)
	}
	c.view = append(prepend, c.view...)
	c.totalMsg = window.TotalCount
	if window.HasMore {
		c.oldest = page + 1
	}
	return nil
}

// HandleEvent folds one server-pushed envelope into the local view.
// Unrelated events are ignored and returned false.
func (c *ChatController) HandleEvent(env realtime.Envelope) bool {
	if env.Event != realtime.EventReceiveMessage {
		return false
	}
	var msg domain.Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(msg)
	return true
}

// Messages snapshots the view in chronological order.
func (c *ChatController) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.view))
	copy(out, c.view)
	return out
}

func (c *ChatController) appendLocked(msg domain.Message) {
	if _, dup := c.seen[msg.ID.String()]; dup {
		return
	}
	c.seen[msg.ID.String()] = struct{}{}
	c.view = append(c.view, msg)
}
