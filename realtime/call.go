package realtime

import (
	"encoding/json"
)

type frameOut struct {
	Frame  string `json:"frame"`
	Sender string `json:"sender"`
}

// relayFrame is the whole of the pseudo video call: a frame arriving for
// room R is re-broadcast verbatim to every other socket in R. Nothing is
// persisted, nothing is acknowledged, dropped frames are silent. A
// star-topology relay through the server, not a media transport.
func (g *Gateway) relayFrame(conn *Connection, data []byte) {
	var payload framePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		g.sendError(conn, "malformed event")
		return
	}

	roomID := CallRoom(payload.RoomID)
	if !g.registry.IsMember(roomID, conn.SocketID()) {
		g.sendError(conn, "join the room before sending frames")
		return
	}

	out, err := marshalEnvelope(EventVideoFrame, frameOut{
		Frame:  payload.Frame,
		Sender: conn.Identity(),
	})
	if err != nil {
		return
	}
	g.registry.Broadcast(roomID, out, conn.SocketID())
	g.monitor.FrameRelayed(len(payload.Frame))
}
