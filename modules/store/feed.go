package store

import (
	chat "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
)

// Change publication. Events are published after the write commits, in
// commit order per entity type. A publish failure is logged and not
// retried: the store remains the source of truth and clients reconcile on
// their next read. With a nil bus (unit tests) publication is skipped.

func (m *Module) publishMessageChange(op string, id string, doc *chat.Message, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.MessageChangedV1.Publish(m.eventBus, events.MessageChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish message change", "messageID", id, "error", err)
	}
}

func (m *Module) publishCategoryChange(op string, id string, doc *chat.Category, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.CategoryChangedV1.Publish(m.eventBus, events.CategoryChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish category change", "categoryID", id, "error", err)
	}
}

func (m *Module) publishChannelChange(op string, id string, doc *chat.Channel, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.ChannelChangedV1.Publish(m.eventBus, events.ChannelChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish channel change", "channelID", id, "error", err)
	}
}

func (m *Module) publishServerChange(op string, id string, doc *chat.Server, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.ServerChangedV1.Publish(m.eventBus, events.ServerChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish server change", "serverID", id, "error", err)
	}
}

func (m *Module) publishUserChange(op string, id string, doc *chat.User, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.UserChangedV1.Publish(m.eventBus, events.UserChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish user change", "userID", id, "error", err)
	}
}

func (m *Module) publishEmoteChange(op string, id string, doc *chat.Emote, fields []string) {
	if m.eventBus == nil {
		return
	}
	err := events.EmoteChangedV1.Publish(m.eventBus, events.EmoteChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
		Fields:    fields,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish emote change", "emoteID", id, "error", err)
	}
}

func (m *Module) publishFriendChange(op string, id string, doc *chat.Friend) {
	if m.eventBus == nil {
		return
	}
	err := events.FriendChangedV1.Publish(m.eventBus, events.FriendChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish friend change", "friendID", id, "error", err)
	}
}

func (m *Module) publishConversationChange(op string, id string, doc *chat.Conversation) {
	if m.eventBus == nil {
		return
	}
	err := events.ConversationChangedV1.Publish(m.eventBus, events.ConversationChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish conversation change", "conversationID", id, "error", err)
	}
}

func (m *Module) publishActivityChange(op string, id string, doc *chat.Activity) {
	if m.eventBus == nil {
		return
	}
	err := events.ActivityChangedV1.Publish(m.eventBus, events.ActivityChangedEvent{
		Operation: op,
		EntityID:  id,
		Document:  doc,
	}, nil)
	if err != nil {
		m.logger.Warn("failed to publish activity change", "userID", id, "error", err)
	}
}
