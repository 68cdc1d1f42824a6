package realtime

import (
	"context"

	"github.com/go-monolith/mono"

	chat "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
)

// StorePort provides the rehydration lookups watchers need. The raw change
// feed only carries foreign keys; clients need the joined view.
type StorePort interface {
	MessageView(ctx context.Context, id string) (*chat.MessageView, error)
	ServerByID(ctx context.Context, id string) (*chat.Server, error)
	UserByID(ctx context.Context, id string) (*chat.User, error)
	Profile(ctx context.Context, userID string) (*chat.PublicProfile, error)
	ConversationView(ctx context.Context, id string) (*chat.ConversationView, error)
}

// ProfileCache is a cache-aside layer for public profile lookups. Satisfied
// by the cache module; may be nil, in which case every lookup hits the
// store.
type ProfileCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// Server fields whose change is worth pushing. Other server updates are
// internal bookkeeping the clients do not render.
var serverWatchedFields = []string{"name", "icon", "description"}

// Public profile fields. Changes to these are broadcast to everyone because
// other clients render this user's name and avatar in shared contexts.
var userPublicFields = []string{"username", "avatar"}

// A watcher failure never stops the feed: the handler logs, drops the one
// event and returns nil so the consumer keeps running. The store remains
// the source of truth; clients reconcile on their next fetch.

func (m *Module) handleMessageChanged(ctx context.Context, ev events.MessageChangedEvent, _ *mono.Msg) error {
	if ev.Operation == events.OpDelete {
		// No room can be resolved for a tombstone, so over-deliver
		// globally; clients filter by id.
		m.hub.Broadcast(Envelope{
			Event:     "delete message",
			Operation: ev.Operation,
			Document:  Stub{ID: ev.EntityID},
		})
		return nil
	}

	view, err := m.store.MessageView(ctx, ev.EntityID)
	if err != nil {
		m.logger.Warn("message rehydration failed, event dropped",
			"messageID", ev.EntityID, "error", err)
		return nil
	}

	for _, room := range messageRooms(&view.Message) {
		m.hub.Emit(room, Envelope{
			Event:     ev.Operation + " message",
			Operation: ev.Operation,
			Document:  view,
		})
	}
	return nil
}

func (m *Module) handleCategoryChanged(_ context.Context, ev events.CategoryChangedEvent, _ *mono.Msg) error {
	var serverID string
	if ev.Document != nil {
		serverID = ev.Document.ServerID
	}
	m.emitSection(ev.Operation, "category", ev.EntityID, serverID, ev.Document)
	return nil
}

func (m *Module) handleChannelChanged(_ context.Context, ev events.ChannelChangedEvent, _ *mono.Msg) error {
	var serverID string
	if ev.Document != nil {
		serverID = ev.Document.ServerID
	}
	m.emitSection(ev.Operation, "channel", ev.EntityID, serverID, ev.Document)
	return nil
}

// emitSection handles both categories and channels; the section
// discriminator lets one client-side handler demux them.
func (m *Module) emitSection(operation, section, entityID, serverID string, document interface{}) {
	if operation == events.OpDelete {
		m.hub.Broadcast(Envelope{
			Event:     operation + " " + section,
			Operation: operation,
			Document:  Stub{ID: entityID},
			Section:   section,
		})
		return
	}

	if serverID == "" {
		m.logger.Warn("section change without document, event dropped",
			"section", section, "entityID", entityID)
		return
	}
	m.hub.Emit(serverID, Envelope{
		Event:     operation + " " + section,
		Operation: operation,
		Document:  document,
		Section:   section,
	})
}

func (m *Module) handleServerChanged(ctx context.Context, ev events.ServerChangedEvent, _ *mono.Msg) error {
	// Creation and deletion are observed by the acting client through the
	// REST response, not via fan-out.
	if ev.Operation != events.OpUpdate {
		return nil
	}

	if fieldsInclude(ev.Fields, serverWatchedFields...) {
		server, err := m.store.ServerByID(ctx, ev.EntityID)
		if err != nil {
			m.logger.Warn("server rehydration failed, event dropped",
				"serverID", ev.EntityID, "error", err)
		} else {
			m.hub.Emit(ev.EntityID, Envelope{
				Event:     "update server",
				Operation: ev.Operation,
				Document:  server,
			})
		}
	}

	if fieldsInclude(ev.Fields, "members") {
		// Signal only: members count changes on every join/leave and the
		// full document would be refetched far too often.
		m.hub.Emit(ev.EntityID, Envelope{Event: "member update"})
	}
	return nil
}

func (m *Module) handleUserChanged(ctx context.Context, ev events.UserChangedEvent, _ *mono.Msg) error {
	if ev.Operation != events.OpUpdate {
		return nil
	}

	user, err := m.store.UserByID(ctx, ev.EntityID)
	if err != nil {
		m.logger.Warn("user rehydration failed, event dropped",
			"userID", ev.EntityID, "error", err)
		return nil
	}

	// The owner's personal room gets every field change.
	m.hub.Emit(user.ID, Envelope{
		Event:     "account update",
		Operation: ev.Operation,
		Document:  user,
		Fields:    ev.Fields,
	})

	// Name/avatar changes go to everyone, stripped to the public subset.
	if fieldsInclude(ev.Fields, userPublicFields...) {
		profile := user.Public()
		if m.profiles != nil {
			if err := m.profiles.Set(ctx, user.ID, profile); err != nil {
				m.logger.Debug("profile cache refresh failed", "userID", user.ID, "error", err)
			}
		}
		m.hub.Broadcast(Envelope{
			Event:     "user update",
			Operation: ev.Operation,
			Document:  profile,
			Fields:    ev.Fields,
		})
	}
	return nil
}

// The emote catalogue is shared by everyone, so every change goes to every
// connected client. Reactions themselves travel as message updates.
func (m *Module) handleEmoteChanged(_ context.Context, ev events.EmoteChangedEvent, _ *mono.Msg) error {
	if ev.Operation == events.OpDelete {
		m.hub.Broadcast(Envelope{
			Event:     "delete emote",
			Operation: ev.Operation,
			Document:  Stub{ID: ev.EntityID},
		})
		return nil
	}

	if ev.Document == nil {
		m.logger.Warn("emote change without document, event dropped",
			"emoteID", ev.EntityID)
		return nil
	}
	m.hub.Broadcast(Envelope{
		Event:     ev.Operation + " emote",
		Operation: ev.Operation,
		Document:  ev.Document,
	})
	return nil
}

func (m *Module) handleFriendChanged(ctx context.Context, ev events.FriendChangedEvent, _ *mono.Msg) error {
	switch ev.Operation {
	case events.OpInsert, events.OpUpdate:
		if ev.Document == nil {
			m.logger.Warn("friend change without document, event dropped",
				"friendID", ev.EntityID)
			return nil
		}

		sender, err := m.profile(ctx, ev.Document.SenderID)
		if err != nil {
			m.logger.Warn("friend sender rehydration failed, event dropped",
				"friendID", ev.EntityID, "error", err)
			return nil
		}
		recipient, err := m.profile(ctx, ev.Document.RecipientID)
		if err != nil {
			m.logger.Warn("friend recipient rehydration failed, event dropped",
				"friendID", ev.EntityID, "error", err)
			return nil
		}

		view := chat.FriendView{
			ID:        ev.Document.ID,
			Sender:    *sender,
			Recipient: *recipient,
			Status:    ev.Document.Status,
		}
		for _, room := range friendRooms(ev.Document) {
			m.hub.Emit(room, Envelope{
				Event:     ev.Operation + " friend",
				Operation: ev.Operation,
				Document:  view,
			})
		}

	case events.OpDelete:
		// The ex-friends cannot be resolved from a tombstone.
		m.hub.Broadcast(Envelope{
			Event:     "delete friend",
			Operation: ev.Operation,
			Document:  Stub{ID: ev.EntityID},
		})
	}
	return nil
}

func (m *Module) handleConversationChanged(ctx context.Context, ev events.ConversationChangedEvent, _ *mono.Msg) error {
	// Conversations are immutable after creation.
	if ev.Operation != events.OpInsert {
		return nil
	}

	view, err := m.store.ConversationView(ctx, ev.EntityID)
	if err != nil {
		m.logger.Warn("conversation rehydration failed, event dropped",
			"conversationID", ev.EntityID, "error", err)
		return nil
	}

	for _, room := range conversationRooms(view.Members) {
		m.hub.Emit(room, Envelope{
			Event:     "insert conversation",
			Operation: ev.Operation,
			Document:  view,
		})
		// Bootstrap membership for members who are connected right now,
		// so they receive conversation events without reconnecting.
		m.hub.Emit(room, Envelope{
			Event:    "join",
			Document: view.ID,
		})
	}
	return nil
}

func (m *Module) handleActivityChanged(_ context.Context, ev events.ActivityChangedEvent, _ *mono.Msg) error {
	if ev.Operation != events.OpUpdate || ev.Document == nil {
		return nil
	}
	// The activity id is the owning user's id; no resolution needed.
	m.hub.Emit(ev.EntityID, Envelope{
		Event:     "activity update",
		Operation: ev.Operation,
		Document:  ev.Document,
	})
	return nil
}

// profile looks up a public profile through the cache when one is wired.
func (m *Module) profile(ctx context.Context, userID string) (*chat.PublicProfile, error) {
	if m.profiles != nil {
		var cached chat.PublicProfile
		hit, err := m.profiles.Get(ctx, userID, &cached)
		if err != nil {
			m.logger.Debug("profile cache read failed", "userID", userID, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	profile, err := m.store.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.profiles != nil {
		if err := m.profiles.Set(ctx, userID, profile); err != nil {
			m.logger.Debug("profile cache write failed", "userID", userID, "error", err)
		}
	}
	return profile, nil
}
