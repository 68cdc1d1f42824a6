package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/chat-backend/modules/realtime"
)

// clientSignal is the envelope every client frame must use. Payload stays
// raw until the signal type picks the concrete shape.
type clientSignal struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleWebSocket owns one socket for its whole lifetime: register, read
// loop, teardown.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	client := &realtime.Client{
		ID:   uuid.New().String(),
		Conn: c,
	}
	hub := m.realtime.Hub()
	hub.Register(client)
	m.logger.Debug("socket connected", "client_id", client.ID)

	defer func() {
		m.realtime.HandleDisconnect(client)
		m.logger.Debug("socket disconnected", "client_id", client.ID)
		c.Close()
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		m.dispatchSignal(client, raw)
	}
}

// dispatchSignal decodes one frame and routes it. Unknown types and
// payloads of the wrong shape are dropped, never echoed back.
func (m *APIModule) dispatchSignal(client *realtime.Client, raw []byte) {
	var signal clientSignal
	if err := json.Unmarshal(raw, &signal); err != nil {
		m.logger.Debug("dropping malformed frame", "client_id", client.ID, "error", err)
		return
	}

	hub := m.realtime.Hub()
	switch signal.Type {
	case "authentication":
		var identity realtime.Identity
		if err := json.Unmarshal(signal.Payload, &identity); err != nil || identity.UserID == "" {
			m.logger.Debug("dropping bad authentication payload", "client_id", client.ID)
			return
		}
		m.realtime.Sessions().Bind(context.Background(), client, identity)
	case "deauthentication":
		m.realtime.Sessions().Unbind(client)
	case "join":
		roomID, ok := stringPayload(signal.Payload)
		if !ok {
			m.logger.Debug("dropping bad join payload", "client_id", client.ID)
			return
		}
		hub.JoinRoom(client.ID, roomID)
	case "join room":
		roomID, ok := stringPayload(signal.Payload)
		if !ok {
			m.logger.Debug("dropping bad join room payload", "client_id", client.ID)
			return
		}
		m.realtime.MarkCurrentRoom(client, roomID)
	case "leave":
		roomID, ok := stringPayload(signal.Payload)
		if !ok {
			m.logger.Debug("dropping bad leave payload", "client_id", client.ID)
			return
		}
		hub.LeaveRoom(client.ID, roomID)
	case "typing":
		var typing realtime.TypingSignal
		if err := json.Unmarshal(signal.Payload, &typing); err != nil {
			m.logger.Debug("dropping bad typing payload", "client_id", client.ID)
			return
		}
		m.realtime.RelayTyping(client, typing)
	default:
		m.logger.Debug("dropping unknown signal", "client_id", client.ID, "type", signal.Type)
	}
}

// stringPayload decodes a payload that must be a bare JSON string.
func stringPayload(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
