package realtime

import (
	"context"

	"github.com/go-monolith/mono/pkg/types"
)

// MembershipPort looks up stored conversation memberships. Backed by the
// store module's request-reply service.
type MembershipPort interface {
	ConversationsOf(ctx context.Context, userID string) ([]string, error)
}

// Sessions binds live connections to authenticated identities and their
// entitled rooms.
type Sessions struct {
	hub     *Hub
	members MembershipPort
	logger  types.Logger
}

// NewSessions creates a new session binder.
func NewSessions(hub *Hub, members MembershipPort, logger types.Logger) *Sessions {
	return &Sessions{hub: hub, members: members, logger: logger}
}

// Bind associates a connection with an identity and joins it to every room
// it is entitled to: its personal room, each claimed server, and every
// conversation it is a member of per the store. This is a one-shot bulk
// join; rooms granted later need an explicit join signal.
//
// The identity is client-supplied and not re-verified here; trusting it is
// a known gap. A stricter variant would re-verify the bearer token before
// honoring the claimed ServerIDs.
func (s *Sessions) Bind(ctx context.Context, client *Client, identity Identity) {
	if identity.UserID == "" {
		return
	}

	client.UserID = identity.UserID
	client.Username = identity.Username

	// Personal room for account-private notifications.
	s.hub.JoinRoom(client.ID, identity.UserID)

	for _, serverID := range identity.ServerIDs {
		s.hub.JoinRoom(client.ID, serverID)
	}

	conversations, err := s.members.ConversationsOf(ctx, identity.UserID)
	if err != nil {
		// The client still receives server and personal events; it can
		// re-authenticate to pick up conversation rooms.
		s.logger.Warn("conversation membership lookup failed",
			"userID", identity.UserID, "error", err)
		return
	}
	for _, conversationID := range conversations {
		s.hub.JoinRoom(client.ID, conversationID)
	}
}

// Unbind leaves every room the connection is in and drops its identity.
func (s *Sessions) Unbind(client *Client) {
	s.hub.LeaveAll(client.ID)
	client.UserID = ""
	client.Username = ""
	client.CurrentRoom = ""
}
