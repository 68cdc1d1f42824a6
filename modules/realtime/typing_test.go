package realtime

import (
	"testing"
)

func TestRelayTyping_BroadcastsToEveryone(t *testing.T) {
	m := newTestModule(newFakeStore())
	typist, typistConn := newTestClient("typist")
	watcher, watcherConn := newTestClient("watcher")
	m.hub.Register(typist)
	m.hub.Register(watcher)

	m.RelayTyping(typist, TypingSignal{
		Location: "s1",
		User:     "alice",
		Typing:   true,
	})

	// The typist hears its own indicator too; clients filter locally.
	if typistConn.frameCount() != 1 || watcherConn.frameCount() != 1 {
		t.Fatalf("frameCounts = %d, %d, want 1, 1", typistConn.frameCount(), watcherConn.frameCount())
	}
	env := envelopeAt(t, watcherConn, 0)
	if env["event"] != "typing" {
		t.Errorf("event = %v, want typing", env["event"])
	}
	if env["location"] != "s1" || env["user"] != "alice" || env["typing"] != true {
		t.Errorf("signal = %v, want s1/alice/true", env)
	}
}

func TestRelayTyping_StopClearsTrackedState(t *testing.T) {
	m := newTestModule(newFakeStore())
	typist, _ := newTestClient("typist")
	m.hub.Register(typist)

	m.RelayTyping(typist, TypingSignal{Location: "s1", User: "alice", Typing: true})
	if typist.typing == nil {
		t.Fatal("active typing must be tracked on the client")
	}

	m.RelayTyping(typist, TypingSignal{Location: "s1", User: "alice", Typing: false})
	if typist.typing != nil {
		t.Error("stopped typing must clear the tracked state")
	}
}

func TestHandleDisconnect_SynthesizesTypingStopped(t *testing.T) {
	m := newTestModule(newFakeStore())
	typist, _ := newTestClient("typist")
	watcher, watcherConn := newTestClient("watcher")
	m.hub.Register(typist)
	m.hub.Register(watcher)
	m.MarkCurrentRoom(typist, "s1")

	m.RelayTyping(typist, TypingSignal{Location: "s1", User: "alice", Typing: true})
	m.HandleDisconnect(typist)

	// First frame is the relay, second the synthesized stop.
	if watcherConn.frameCount() != 2 {
		t.Fatalf("frameCount = %d, want 2", watcherConn.frameCount())
	}
	env := envelopeAt(t, watcherConn, 1)
	if env["typing"] != false || env["location"] != "s1" || env["user"] != "alice" {
		t.Errorf("synthesized signal = %v, want stopped typing in s1 by alice", env)
	}

	if _, ok := m.hub.Client("typist"); ok {
		t.Error("client must be unregistered after disconnect")
	}
}

func TestHandleDisconnect_NoActiveTypingIsQuiet(t *testing.T) {
	m := newTestModule(newFakeStore())
	quiet, _ := newTestClient("quiet")
	watcher, watcherConn := newTestClient("watcher")
	m.hub.Register(quiet)
	m.hub.Register(watcher)
	m.MarkCurrentRoom(quiet, "s1")

	m.HandleDisconnect(quiet)

	if watcherConn.frameCount() != 0 {
		t.Errorf("frameCount = %d, want 0", watcherConn.frameCount())
	}
}

func TestMarkCurrentRoom(t *testing.T) {
	m := newTestModule(newFakeStore())
	client, _ := newTestClient("c1")
	m.hub.Register(client)

	m.MarkCurrentRoom(client, "s1")

	if client.CurrentRoom != "s1" {
		t.Errorf("CurrentRoom = %q, want s1", client.CurrentRoom)
	}
	rooms := m.hub.ClientRooms("c1")
	if len(rooms) != 1 || rooms[0] != "s1" {
		t.Errorf("ClientRooms = %v, want [s1]", rooms)
	}
}
