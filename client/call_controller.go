package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"social-live/realtime"
)

// FrameSource yields the next outbound frame, typically a base64-encoded
// camera capture. Returning an empty string skips the tick.
type FrameSource interface {
	NextFrame() string
}

// CallController drives one pseudo video call: it joins the call room,
// publishes a frame per tick from the local source, and keeps only the
// most recent frame received per remote sender. There is no negotiation
// and no media stream, just periodic frame relay.
type CallController struct {
	socket   *Socket
	roomID   string
	source   FrameSource
	interval time.Duration

	mu     sync.Mutex
	remote map[string]string // sender -> latest frame
}

func NewCallController(socket *Socket, roomID string, source FrameSource, interval time.Duration) *CallController {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &CallController{
		socket:   socket,
		roomID:   roomID,
		source:   source,
		interval: interval,
		remote:   make(map[string]string),
	}
}

// Run joins the room and publishes frames until the context ends, then
// leaves. Frames that fail to send are dropped; the next tick replaces
// them anyway.
func (c *CallController) Run(ctx context.Context) error {
	if err := c.socket.Emit(realtime.EventJoinRoom, map[string]string{"roomId": c.roomID}); err != nil {
		return err
	}
	defer func() {
		_ = c.socket.Emit(realtime.EventLeaveRoom, map[string]string{"roomId": c.roomID})
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame := c.source.NextFrame()
			if frame == "" {
				continue
			}
			_ = c.socket.Emit(realtime.EventVideoFrame, map[string]string{
				"roomId": c.roomID,
				"frame":  frame,
			})
		}
	}
}

// HandleEvent stores an incoming remote frame, replacing the previous one
// from the same sender.
func (c *CallController) HandleEvent(env realtime.Envelope) bool {
	if env.Event != realtime.EventVideoFrame {
		return false
	}
	var payload struct {
		Frame  string `json:"frame"`
		Sender string `json:"sender"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Sender == "" {
		return false
	}

	c.mu.Lock()
	c.remote[payload.Sender] = payload.Frame
	c.mu.Unlock()
	return true
}

// RemoteFrame returns the latest frame seen from one sender.
func (c *CallController) RemoteFrame(sender string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, ok := c.remote[sender]
	return frame, ok
}
