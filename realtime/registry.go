package realtime

import (
	"sync"
)

type memberSet map[string]Sender

// Registry is the process-local connection registry: socket id -> live
// sender plus room id -> member sockets. Rooms come into existence on
// first join and disappear when the last member leaves, which is the
// whole lifecycle of a call session. The registry does not survive the
// process and is not shared across instances; multi-instance fan-out
// would need a shared broadcast channel instead.
type Registry struct {
	mu          sync.RWMutex
	sockets     map[string]Sender
	rooms       map[string]memberSet
	socketRooms map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sockets:     make(map[string]Sender),
		rooms:       make(map[string]memberSet),
		socketRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a live connection. Joining rooms is a separate step:
// membership is enrolled on demand, after authorization.
func (r *Registry) Attach(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[s.SocketID()] = s
	r.socketRooms[s.SocketID()] = make(map[string]struct{})
}

// Detach removes a connection and its memberships. Emptied rooms are
// deleted so the registry does not leak over time.
func (r *Registry) Detach(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.socketRooms[socketID] {
		r.leaveLocked(roomID, socketID)
	}
	delete(r.socketRooms, socketID)
	delete(r.sockets, socketID)
}

// Join enrolls the socket into the room, creating the room on first use.
func (r *Registry) Join(roomID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sockets[s.SocketID()]; !ok {
		return
	}

	room := r.rooms[roomID]
	if room == nil {
		room = make(memberSet)
		r.rooms[roomID] = room
	}
	room[s.SocketID()] = s
	r.socketRooms[s.SocketID()][roomID] = struct{}{}
}

// Leave removes the socket from the room. Idempotent: leaving a room the
// socket never joined is a no-op.
func (r *Registry) Leave(roomID, socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, socketID)
}

// IsMember reports whether the socket is currently enrolled in the room.
func (r *Registry) IsMember(roomID, socketID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][socketID]
	return ok
}

// Broadcast writes payload to every room member except excludeSocket and
// returns the number of successful deliveries. Delivery is at-most-once:
// a failed send is counted out, not retried.
func (r *Registry) Broadcast(roomID string, payload []byte, excludeSocket string) int {
	r.mu.RLock()
	room := r.rooms[roomID]
	members := make([]Sender, 0, len(room))
	for id, s := range room {
		if id == excludeSocket {
			continue
		}
		members = append(members, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range members {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close clears all state. Part of the defined init/teardown of the
// process-scoped registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets = make(map[string]Sender)
	r.rooms = make(map[string]memberSet)
	r.socketRooms = make(map[string]map[string]struct{})
}

func (r *Registry) leaveLocked(roomID, socketID string) {
	room := r.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, socketID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
	if memberships, ok := r.socketRooms[socketID]; ok {
		delete(memberships, roomID)
	}
}
