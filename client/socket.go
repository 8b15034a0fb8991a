package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"social-live/realtime"
)

// Socket is the live connection. Inbound envelopes are surfaced on the
// Events channel; the read loop stops and closes the channel when the
// connection drops. The socket never reconnects on its own.
type Socket struct {
	conn   *websocket.Conn
	events chan realtime.Envelope

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial opens and authenticates the live connection. The token travels as
// a query parameter because upgrade requests cannot always carry headers.
func Dial(socketURL, token string) (*Socket, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.Dial(socketURL+"?token="+token, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("handshake refused: authentication required")
		}
		return nil, err
	}

	s := &Socket{
		conn:   conn,
		events: make(chan realtime.Envelope, 64),
	}
	go s.readLoop()
	return s, nil
}

// Events delivers server-pushed envelopes in arrival order.
func (s *Socket) Events() <-chan realtime.Envelope {
	return s.events
}

// Emit sends one named event with a JSON payload.
func (s *Socket) Emit(event string, data any) error {
	inner, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(realtime.Envelope{Event: event, Data: inner})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

func (s *Socket) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		s.events <- env
	}
}
