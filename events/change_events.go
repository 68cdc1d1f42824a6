// Package events defines the change-feed event catalogue. The store module
// publishes one event per committed write; the realtime module consumes them
// and fans the change out to connected clients.
package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	chat "github.com/example/chat-backend/domain/chat"
)

// Change operations. Publish order matches commit order per entity type.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Delete events never carry the document, only its id. The feed has no
// access to deleted content; consumers get a tombstone and nothing else.

// MessageChangedEvent is published when a message is written.
type MessageChangedEvent struct {
	Operation string        `json:"operation"`
	EntityID  string        `json:"entity_id"`
	Document  *chat.Message `json:"document,omitempty"`
	Fields    []string      `json:"fields,omitempty"`
}

// CategoryChangedEvent is published when a category is written.
type CategoryChangedEvent struct {
	Operation string         `json:"operation"`
	EntityID  string         `json:"entity_id"`
	Document  *chat.Category `json:"document,omitempty"`
	Fields    []string       `json:"fields,omitempty"`
}

// ChannelChangedEvent is published when a channel is written.
type ChannelChangedEvent struct {
	Operation string        `json:"operation"`
	EntityID  string        `json:"entity_id"`
	Document  *chat.Channel `json:"document,omitempty"`
	Fields    []string      `json:"fields,omitempty"`
}

// ServerChangedEvent is published when a server is written.
type ServerChangedEvent struct {
	Operation string       `json:"operation"`
	EntityID  string       `json:"entity_id"`
	Document  *chat.Server `json:"document,omitempty"`
	Fields    []string     `json:"fields,omitempty"`
}

// UserChangedEvent is published when a user account is written.
type UserChangedEvent struct {
	Operation string     `json:"operation"`
	EntityID  string     `json:"entity_id"`
	Document  *chat.User `json:"document,omitempty"`
	Fields    []string   `json:"fields,omitempty"`
}

// EmoteChangedEvent is published when the emote catalogue is written.
type EmoteChangedEvent struct {
	Operation string      `json:"operation"`
	EntityID  string      `json:"entity_id"`
	Document  *chat.Emote `json:"document,omitempty"`
	Fields    []string    `json:"fields,omitempty"`
}

// FriendChangedEvent is published when a friendship is written.
type FriendChangedEvent struct {
	Operation string       `json:"operation"`
	EntityID  string       `json:"entity_id"`
	Document  *chat.Friend `json:"document,omitempty"`
	Fields    []string     `json:"fields,omitempty"`
}

// ConversationChangedEvent is published when a conversation is created.
type ConversationChangedEvent struct {
	Operation string             `json:"operation"`
	EntityID  string             `json:"entity_id"`
	Document  *chat.Conversation `json:"document,omitempty"`
}

// ActivityChangedEvent is published when a user's activity is written.
type ActivityChangedEvent struct {
	Operation string         `json:"operation"`
	EntityID  string         `json:"entity_id"`
	Document  *chat.Activity `json:"document,omitempty"`
}

// Event definitions for the store change feed.
var (
	MessageChangedV1 = helper.EventDefinition[MessageChangedEvent](
		"store",
		"MessageChanged",
		"v1",
	)

	CategoryChangedV1 = helper.EventDefinition[CategoryChangedEvent](
		"store",
		"CategoryChanged",
		"v1",
	)

	ChannelChangedV1 = helper.EventDefinition[ChannelChangedEvent](
		"store",
		"ChannelChanged",
		"v1",
	)

	ServerChangedV1 = helper.EventDefinition[ServerChangedEvent](
		"store",
		"ServerChanged",
		"v1",
	)

	UserChangedV1 = helper.EventDefinition[UserChangedEvent](
		"store",
		"UserChanged",
		"v1",
	)

	EmoteChangedV1 = helper.EventDefinition[EmoteChangedEvent](
		"store",
		"EmoteChanged",
		"v1",
	)

	FriendChangedV1 = helper.EventDefinition[FriendChangedEvent](
		"store",
		"FriendChanged",
		"v1",
	)

	ConversationChangedV1 = helper.EventDefinition[ConversationChangedEvent](
		"store",
		"ConversationChanged",
		"v1",
	)

	ActivityChangedV1 = helper.EventDefinition[ActivityChangedEvent](
		"store",
		"ActivityChanged",
		"v1",
	)
)
