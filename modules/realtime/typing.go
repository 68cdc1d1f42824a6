package realtime

// RelayTyping rebroadcasts a typing indicator to every connected client.
// Typing state is never persisted; the last signal is remembered on the
// client only so disconnect cleanup can clear a stuck indicator.
func (m *Module) RelayTyping(client *Client, signal TypingSignal) {
	signal.Event = "typing"
	if signal.Typing {
		client.typing = &signal
	} else {
		client.typing = nil
	}
	m.hub.Broadcast(signal)
}

// HandleDisconnect runs the disconnect cleanup path: if the client reported
// being in a room and its last typing signal was still active, synthesize a
// typing-stopped signal so other clients don't show a stuck indicator.
func (m *Module) HandleDisconnect(client *Client) {
	if client.CurrentRoom != "" && client.typing != nil {
		m.hub.Broadcast(TypingSignal{
			Event:    "typing",
			Location: client.CurrentRoom,
			User:     client.typing.User,
			Typing:   false,
		})
		client.typing = nil
	}
	m.hub.Unregister(client.ID)
}

// MarkCurrentRoom joins the client to the room and records it as the
// client's active room for typing cleanup.
func (m *Module) MarkCurrentRoom(client *Client, roomID string) {
	m.hub.JoinRoom(client.ID, roomID)
	client.CurrentRoom = roomID
}
