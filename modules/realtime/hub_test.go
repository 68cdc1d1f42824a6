package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errNotFound = errors.New("not found")

// overlapConn fails the single-writer contract check if two WriteJSON calls
// ever overlap, the way a real websocket connection would panic.
type overlapConn struct {
	active   atomic.Int32
	overlaps atomic.Int32
	writes   atomic.Int32
}

func (c *overlapConn) WriteJSON(_ interface{}) error {
	if c.active.Add(1) > 1 {
		c.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)
	c.active.Add(-1)
	c.writes.Add(1)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, _ := newTestClient("c1")

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}
	if _, ok := hub.Client("c1"); !ok {
		t.Error("expected client c1 to be registered")
	}

	hub.JoinRoom("c1", "room1")
	hub.Unregister("c1")

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() after unregister = %d, want 0", hub.ClientCount())
	}
	if hub.RoomClientCount("room1") != 0 {
		t.Errorf("RoomClientCount(room1) = %d, want 0", hub.RoomClientCount("room1"))
	}

	// Unregistering twice must not panic.
	hub.Unregister("c1")
}

func TestHub_JoinRoomIdempotent(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, conn := newTestClient("c1")
	hub.Register(client)

	hub.JoinRoom("c1", "room1")
	hub.JoinRoom("c1", "room1")
	hub.JoinRoom("c1", "room1")

	if n := hub.RoomClientCount("room1"); n != 1 {
		t.Fatalf("RoomClientCount(room1) = %d, want 1", n)
	}

	// A single join means a single delivery.
	hub.Emit("room1", Envelope{Event: "test"})
	if conn.frameCount() != 1 {
		t.Errorf("frameCount = %d, want 1", conn.frameCount())
	}
}

func TestHub_JoinRoomGuards(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, _ := newTestClient("c1")
	hub.Register(client)

	hub.JoinRoom("c1", "")
	if len(hub.ClientRooms("c1")) != 0 {
		t.Error("empty room id must be ignored")
	}

	hub.JoinRoom("ghost", "room1")
	if hub.RoomClientCount("room1") != 0 {
		t.Error("unknown client must be ignored")
	}
}

func TestHub_EmitIsRoomScoped(t *testing.T) {
	hub := NewHub(newMockLogger())
	inRoom, inConn := newTestClient("in")
	outRoom, outConn := newTestClient("out")
	hub.Register(inRoom)
	hub.Register(outRoom)
	hub.JoinRoom("in", "room1")
	hub.JoinRoom("out", "room2")

	hub.Emit("room1", Envelope{Event: "insert message"})

	if inConn.frameCount() != 1 {
		t.Errorf("room member frameCount = %d, want 1", inConn.frameCount())
	}
	if outConn.frameCount() != 0 {
		t.Errorf("outsider frameCount = %d, want 0", outConn.frameCount())
	}
}

func TestHub_EmitUnknownRoomIsInert(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, conn := newTestClient("c1")
	hub.Register(client)

	hub.Emit("nobody-here", Envelope{Event: "test"})

	if conn.frameCount() != 0 {
		t.Errorf("frameCount = %d, want 0", conn.frameCount())
	}
}

func TestHub_BroadcastReachesEveryone(t *testing.T) {
	hub := NewHub(newMockLogger())
	a, aConn := newTestClient("a")
	b, bConn := newTestClient("b")
	hub.Register(a)
	hub.Register(b)
	hub.JoinRoom("a", "room1")
	// b is in no room at all.

	hub.Broadcast(Envelope{Event: "delete message", Document: Stub{ID: "m1"}})

	if aConn.frameCount() != 1 || bConn.frameCount() != 1 {
		t.Errorf("frameCounts = %d, %d, want 1, 1", aConn.frameCount(), bConn.frameCount())
	}
}

func TestHub_LeaveRoom(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, conn := newTestClient("c1")
	hub.Register(client)
	hub.JoinRoom("c1", "room1")

	hub.LeaveRoom("c1", "room1")
	hub.Emit("room1", Envelope{Event: "test"})

	if conn.frameCount() != 0 {
		t.Errorf("frameCount after leave = %d, want 0", conn.frameCount())
	}

	// Leaving a room the client is not in is a no-op.
	hub.LeaveRoom("c1", "never-joined")
}

func TestHub_LeaveAllKeepsClientRegistered(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, _ := newTestClient("c1")
	hub.Register(client)
	hub.JoinRoom("c1", "room1")
	hub.JoinRoom("c1", "room2")

	hub.LeaveAll("c1")

	if len(hub.ClientRooms("c1")) != 0 {
		t.Errorf("ClientRooms = %v, want none", hub.ClientRooms("c1"))
	}
	if _, ok := hub.Client("c1"); !ok {
		t.Error("client must stay registered after LeaveAll")
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(newMockLogger())
	client, conn := newTestClient("c1")
	hub.Register(client)
	hub.JoinRoom("c1", "room1")

	hub.CloseAll()

	if !conn.closed {
		t.Error("expected connection to be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ConcurrentSendsAreSerializedPerConnection(t *testing.T) {
	hub := NewHub(newMockLogger())
	conn := &overlapConn{}
	hub.Register(&Client{ID: "c1", Conn: conn})
	hub.JoinRoom("c1", "room1")

	// Watcher callbacks and read-loop relays send from independent
	// goroutines; all of them may target the same connection at once.
	const senders = 8
	const sendsEach = 5
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < sendsEach; j++ {
				if n%2 == 0 {
					hub.Emit("room1", Envelope{Event: "update message"})
				} else {
					hub.Broadcast(Envelope{Event: "typing"})
				}
			}
		}(i)
	}
	wg.Wait()

	if got := conn.overlaps.Load(); got != 0 {
		t.Fatalf("observed %d overlapping writes, want 0", got)
	}
	if got := conn.writes.Load(); got != senders*sendsEach {
		t.Errorf("writes = %d, want %d", got, senders*sendsEach)
	}
}
