package realtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSender records payloads instead of writing to a real socket.
type fakeSender struct {
	id       string
	userID   string
	received [][]byte
	failing  bool
}

func (f *fakeSender) SocketID() string { return f.id }
func (f *fakeSender) Identity() string { return f.userID }
func (f *fakeSender) Send(payload []byte) error {
	if f.failing {
		return errors.New("socket gone")
	}
	f.received = append(f.received, payload)
	return nil
}

func Test_Join_Requires_Attach(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s := &fakeSender{id: "s1", userID: "alice"}

	registry.Join("room", s)
	req.False(registry.IsMember("room", "s1"))

	registry.Attach(s)
	registry.Join("room", s)
	req.True(registry.IsMember("room", "s1"))
}

func Test_Broadcast_Excludes_The_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := &fakeSender{id: "s1", userID: "alice"}
	bob := &fakeSender{id: "s2", userID: "bob"}
	for _, s := range []Sender{alice, bob} {
		registry.Attach(s)
		registry.Join("room", s)
	}

	delivered := registry.Broadcast("room", []byte("hello"), "s1")

	req.Equal(1, delivered)
	req.Empty(alice.received)
	req.Len(bob.received, 1)
	req.Equal([]byte("hello"), bob.received[0])
}

func Test_Broadcast_Counts_Only_Successful_Sends(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	bob := &fakeSender{id: "s2", userID: "bob", failing: true}
	clara := &fakeSender{id: "s3", userID: "clara"}
	for _, s := range []Sender{bob, clara} {
		registry.Attach(s)
		registry.Join("room", s)
	}

	delivered := registry.Broadcast("room", []byte("x"), "")
	req.Equal(1, delivered)
}

func Test_Detach_Cleans_Up_Memberships_And_Empty_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := &fakeSender{id: "s1", userID: "alice"}
	registry.Attach(alice)
	registry.Join("chat:1", alice)
	registry.Join("call:9", alice)

	registry.Detach("s1")

	req.False(registry.IsMember("chat:1", "s1"))
	req.False(registry.IsMember("call:9", "s1"))
	// Rebroadcasting into the emptied rooms reaches nobody.
	req.Zero(registry.Broadcast("chat:1", []byte("x"), ""))
	req.Zero(registry.Broadcast("call:9", []byte("x"), ""))
}

func Test_Leave_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := &fakeSender{id: "s1", userID: "alice"}
	registry.Attach(alice)
	registry.Join("room", alice)

	registry.Leave("room", "s1")
	registry.Leave("room", "s1")
	registry.Leave("never-existed", "s1")
	req.False(registry.IsMember("room", "s1"))
}

func Test_Chat_And_Call_Namespaces_Do_Not_Collide(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := &fakeSender{id: "s1", userID: "alice"}
	registry.Attach(alice)
	registry.Join(ChatRoom("42"), alice)

	req.True(registry.IsMember(ChatRoom("42"), "s1"))
	req.False(registry.IsMember(CallRoom("42"), "s1"))
}
