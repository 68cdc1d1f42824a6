package api

import (
	"sync"
	"testing"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chat-backend/modules/realtime"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// fakeConn records every payload written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []interface{}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func setupSignalTest() (*APIModule, *realtime.Client, *fakeConn) {
	logger := &mockLogger{}
	m := NewModule(logger)
	m.SetRealtime(realtime.NewModule(logger))

	conn := &fakeConn{}
	client := &realtime.Client{ID: "c1", Conn: conn}
	m.realtime.Hub().Register(client)
	return m, client, conn
}

func TestDispatchSignal_JoinAndLeave(t *testing.T) {
	m, client, _ := setupSignalTest()
	hub := m.realtime.Hub()

	m.dispatchSignal(client, []byte(`{"type":"join","payload":"room1"}`))
	if rooms := hub.ClientRooms("c1"); len(rooms) != 1 || rooms[0] != "room1" {
		t.Fatalf("ClientRooms after join = %v, want [room1]", rooms)
	}

	m.dispatchSignal(client, []byte(`{"type":"leave","payload":"room1"}`))
	if rooms := hub.ClientRooms("c1"); len(rooms) != 0 {
		t.Errorf("ClientRooms after leave = %v, want none", rooms)
	}
}

func TestDispatchSignal_JoinRoomTracksCurrentRoom(t *testing.T) {
	m, client, _ := setupSignalTest()

	m.dispatchSignal(client, []byte(`{"type":"join room","payload":"room1"}`))

	if client.CurrentRoom != "room1" {
		t.Errorf("CurrentRoom = %q, want room1", client.CurrentRoom)
	}
	if rooms := m.realtime.Hub().ClientRooms("c1"); len(rooms) != 1 {
		t.Errorf("ClientRooms = %v, want [room1]", rooms)
	}
}

func TestDispatchSignal_Typing(t *testing.T) {
	m, client, conn := setupSignalTest()

	m.dispatchSignal(client, []byte(`{"type":"typing","payload":{"location":"room1","user":"alice","typing":true}}`))

	// Typing is broadcast, so the sender's own connection records it.
	if conn.frameCount() != 1 {
		t.Errorf("frameCount = %d, want 1", conn.frameCount())
	}
}

func TestDispatchSignal_MalformedFramesAreDropped(t *testing.T) {
	m, client, conn := setupSignalTest()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `this is not json`},
		{"unknown type", `{"type":"shutdown","payload":"now"}`},
		{"join with object payload", `{"type":"join","payload":{"roomId":"room1"}}`},
		{"join with number payload", `{"type":"join","payload":42}`},
		{"join with empty payload", `{"type":"join","payload":""}`},
		{"typing with string payload", `{"type":"typing","payload":"room1"}`},
		{"authentication without user", `{"type":"authentication","payload":{"username":"ghost"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.dispatchSignal(client, []byte(tt.raw))

			if rooms := m.realtime.Hub().ClientRooms("c1"); len(rooms) != 0 {
				t.Errorf("ClientRooms = %v, want none", rooms)
			}
			if conn.frameCount() != 0 {
				t.Errorf("frameCount = %d, want 0", conn.frameCount())
			}
		})
	}
}
