package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"social-live/auth"
	"social-live/domain"
	"social-live/observability"
	"social-live/services"
)

// Envelope is the wire frame for every socket event, client to server and
// back: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server event names.
const (
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventVideoFrame  = "videoFrame"
)

// Server -> client event names.
const (
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

type chatRef struct {
	ChatID string `json:"chatId"`
}

type roomRef struct {
	RoomID string `json:"roomId"`
}

type sendMessagePayload struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}

type framePayload struct {
	RoomID string `json:"roomId"`
	Frame  string `json:"frame"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Gateway authenticates live connections, manages room membership and
// routes socket events. Chat rooms and call rooms live in separate key
// namespaces of the same registry.
type Gateway struct {
	log      *slog.Logger
	registry *Registry
	chats    services.IChatService
	monitor  *observability.Monitor
	upgrader websocket.Upgrader
}

func NewGateway(log *slog.Logger, registry *Registry, chats services.IChatService,
	monitor *observability.Monitor) *Gateway {
	return &Gateway{
		log:      log,
		registry: registry,
		chats:    chats,
		monitor:  monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle authenticates the handshake and runs the connection's read loop.
// A missing, invalid or expired token refuses the connection before the
// upgrade; the gateway never retries on the client's behalf.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := NewConnection(claims.UserID, ws)
	g.registry.Attach(conn)
	conn.Start()
	g.monitor.SocketOpened()
	g.log.Info("socket connected", "user_id", claims.UserID, "socket_id", conn.SocketID())

	defer func() {
		g.registry.Detach(conn.SocketID())
		conn.Close(websocket.CloseNormalClosure, "bye")
		g.monitor.SocketClosed()
		g.log.Info("socket disconnected", "user_id", claims.UserID, "socket_id", conn.SocketID())
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(r.Context(), conn, data)
	}
}

func (g *Gateway) dispatch(ctx context.Context, conn *Connection, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(conn, "malformed event")
		return
	}

	switch env.Event {
	case EventJoinChat:
		g.joinChat(conn, env.Data)
	case EventLeaveChat:
		g.leaveChat(conn, env.Data)
	case EventSendMessage:
		g.sendMessage(ctx, conn, env.Data)
	case EventJoinRoom:
		g.joinRoom(conn, env.Data)
	case EventLeaveRoom:
		g.leaveRoom(conn, env.Data)
	case EventVideoFrame:
		g.relayFrame(conn, env.Data)
	default:
		g.sendError(conn, fmt.Sprintf("unknown event %q", env.Event))
	}
}

// joinChat enrolls the socket into the chat's room, but only after the
// caller proves membership of the chat document itself. A non-participant
// gets an error event and is never enrolled.
func (g *Gateway) joinChat(conn *Connection, data []byte) {
	var ref chatRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.ChatID == "" {
		g.sendError(conn, "malformed event")
		return
	}

	if _, err := g.chats.ChatForUser(domain.ChatID(ref.ChatID), conn.Identity()); err != nil {
		g.sendError(conn, err.Error())
		return
	}
	g.registry.Join(ChatRoom(ref.ChatID), conn)
}

func (g *Gateway) leaveChat(conn *Connection, data []byte) {
	var ref chatRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return
	}
	g.registry.Leave(ChatRoom(ref.ChatID), conn.SocketID())
}

func (g *Gateway) sendMessage(ctx context.Context, conn *Connection, data []byte) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		g.sendError(conn, "malformed event")
		return
	}

	cmd := services.PostMessageCommand{
		ChatID:       domain.ChatID(payload.ChatID),
		Sender:       conn.Identity(),
		SenderSocket: conn.SocketID(),
	}
	if err := json.Unmarshal(payload.Message, &cmd.Message); err != nil {
		g.sendError(conn, "malformed message")
		return
	}

	if err := g.chats.PostMessage(ctx, cmd); err != nil {
		g.sendError(conn, err.Error())
	}
}

func (g *Gateway) joinRoom(conn *Connection, data []byte) {
	var ref roomRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.RoomID == "" {
		g.sendError(conn, "malformed event")
		return
	}
	g.registry.Join(CallRoom(ref.RoomID), conn)
}

func (g *Gateway) leaveRoom(conn *Connection, data []byte) {
	var ref roomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return
	}
	g.registry.Leave(CallRoom(ref.RoomID), conn.SocketID())
}

func (g *Gateway) sendError(conn *Connection, message string) {
	payload, err := marshalEnvelope(EventError, errorPayload{Message: message})
	if err != nil {
		return
	}
	_ = conn.Send(payload)
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	inner, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: inner})
}

// ChatRoom maps a chat id to its registry room key.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// CallRoom maps a call room id to its registry room key, keeping call
// sessions out of the chat namespace.
func CallRoom(roomID string) string {
	return "call:" + roomID
}
