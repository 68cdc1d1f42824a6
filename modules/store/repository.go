package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	chat "github.com/example/chat-backend/domain/chat"
)

// Sentinel errors for the persistence layer.
var (
	ErrNotFound = errors.New("record not found")
	// ErrMessageRoom is returned when a message does not target exactly
	// one of server or conversation.
	ErrMessageRoom = errors.New("message must target exactly one of server or conversation")
)

// Repository provides access to all chat aggregates.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}

// Users

// CreateUser saves a new user.
func (r *Repository) CreateUser(ctx context.Context, user *chat.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UserByID retrieves a user by ID, private fields included.
func (r *Repository) UserByID(ctx context.Context, id string) (*chat.User, error) {
	var user chat.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// UserByUsername retrieves a user by username.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*chat.User, error) {
	var user chat.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// UpdateUser applies a partial update and returns the changed column names.
func (r *Repository) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&chat.User{}).Where("id = ?", id).Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Profile retrieves a user's public profile.
func (r *Repository) Profile(ctx context.Context, userID string) (*chat.PublicProfile, error) {
	var user chat.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "avatar").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	profile := user.Public()
	return &profile, nil
}

// Servers

// CreateServer saves a new server and enrolls the admin as first member.
func (r *Repository) CreateServer(ctx context.Context, server *chat.Server) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(server).Error; err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		member := chat.ServerMember{ServerID: server.ID, UserID: server.AdminID}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to enroll admin: %w", err)
		}
		return nil
	})
}

// ServerByID retrieves a server with its member list.
func (r *Repository) ServerByID(ctx context.Context, id string) (*chat.Server, error) {
	var server chat.Server
	err := r.db.WithContext(ctx).Preload("Members").First(&server, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "server")
	}
	return &server, nil
}

// UpdateServer applies a partial settings update.
func (r *Repository) UpdateServer(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&chat.Server{}).Where("id = ?", id).Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddServerMember enrolls a user in a server. Idempotent.
func (r *Repository) AddServerMember(ctx context.Context, serverID, userID string) error {
	member := chat.ServerMember{ServerID: serverID, UserID: userID}
	err := r.db.WithContext(ctx).
		Where(&member).
		FirstOrCreate(&member).Error
	if err != nil {
		return fmt.Errorf("failed to add server member: %w", err)
	}
	return nil
}

// RemoveServerMember removes a user from a server.
func (r *Repository) RemoveServerMember(ctx context.Context, serverID, userID string) error {
	err := r.db.WithContext(ctx).
		Delete(&chat.ServerMember{}, "server_id = ? AND user_id = ?", serverID, userID).Error
	if err != nil {
		return fmt.Errorf("failed to remove server member: %w", err)
	}
	return nil
}

// ServersOf returns the ids of the servers a user belongs to.
func (r *Repository) ServersOf(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&chat.ServerMember{}).
		Where("user_id = ?", userID).
		Pluck("server_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list servers of user: %w", err)
	}
	return ids, nil
}

// Categories and channels

// CreateCategory saves a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *chat.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// CategoryByID retrieves a category.
func (r *Repository) CategoryByID(ctx context.Context, id string) (*chat.Category, error) {
	var category chat.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &category, nil
}

// UpdateCategory renames a category.
func (r *Repository) UpdateCategory(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&chat.Category{}).Where("id = ?", id).Update("name", name)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Category{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateChannel saves a new channel.
func (r *Repository) CreateChannel(ctx context.Context, channel *chat.Channel) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// ChannelByID retrieves a channel.
func (r *Repository) ChannelByID(ctx context.Context, id string) (*chat.Channel, error) {
	var channel chat.Channel
	if err := r.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "channel")
	}
	return &channel, nil
}

// UpdateChannel renames a channel.
func (r *Repository) UpdateChannel(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&chat.Channel{}).Where("id = ?", id).Update("name", name)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChannel removes a channel.
func (r *Repository) DeleteChannel(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Channel{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages

// CreateMessage saves a new message with its attachments. Exactly one of
// ServerID/ConversationID must be set.
func (r *Repository) CreateMessage(ctx context.Context, message *chat.Message) error {
	if (message.ServerID == "") == (message.ConversationID == "") {
		return ErrMessageRoom
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// MessageByID retrieves a message with its attachments and reactions.
func (r *Repository) MessageByID(ctx context.Context, id string) (*chat.Message, error) {
	var message chat.Message
	err := r.db.WithContext(ctx).Preload("Files").First(&message, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "message")
	}
	if message.Reactions, err = r.messageReactions(ctx, id); err != nil {
		return nil, err
	}
	return &message, nil
}

// MessageView retrieves a message with attachments and the author
// rehydrated to a public profile.
func (r *Repository) MessageView(ctx context.Context, id string) (*chat.MessageView, error) {
	message, err := r.MessageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	author, err := r.Profile(ctx, message.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate author: %w", err)
	}
	return &chat.MessageView{Message: *message, Author: *author}, nil
}

// UpdateMessage applies a partial update to a message.
func (r *Repository) UpdateMessage(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&chat.Message{}).Where("id = ?", id).Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message.
func (r *Repository) DeleteMessage(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Message{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelMessages lists the most recent messages of a channel, oldest first.
func (r *Repository) ChannelMessages(ctx context.Context, channelID string, limit int) ([]chat.Message, error) {
	return r.listMessages(ctx, "channel_id = ?", channelID, limit)
}

// ConversationMessages lists the most recent messages of a conversation,
// oldest first.
func (r *Repository) ConversationMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	return r.listMessages(ctx, "conversation_id = ?", conversationID, limit)
}

func (r *Repository) listMessages(ctx context.Context, where, id string, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	q := r.db.WithContext(ctx).Preload("Files").Where(where, id).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	for i := range messages {
		reactions, err := r.messageReactions(ctx, messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].Reactions = reactions
	}
	return messages, nil
}

// messageReactions loads a message's reaction rows folded into per-emote
// groups. Row order is fixed so group order is deterministic.
func (r *Repository) messageReactions(ctx context.Context, messageID string) ([]chat.ReactionGroup, error) {
	var rows []chat.Reaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("emote_id, user_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return chat.GroupReactions(rows), nil
}

// AddReaction records a user's emote reaction on a message. Reacting twice
// with the same emote is a no-op.
func (r *Repository) AddReaction(ctx context.Context, messageID, emoteID, userID string) error {
	reaction := chat.Reaction{MessageID: messageID, EmoteID: emoteID, UserID: userID}
	err := r.db.WithContext(ctx).
		Where(&reaction).
		FirstOrCreate(&reaction).Error
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

// RemoveReaction withdraws a user's emote reaction. When the last user
// withdraws, the emote's group disappears from the message.
func (r *Repository) RemoveReaction(ctx context.Context, messageID, emoteID, userID string) error {
	result := r.db.WithContext(ctx).
		Delete(&chat.Reaction{}, "message_id = ? AND emote_id = ? AND user_id = ?", messageID, emoteID, userID)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Conversations

// CreateConversation saves a new conversation with its member list.
func (r *Repository) CreateConversation(ctx context.Context, conversation *chat.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// ConversationByID retrieves a conversation with its member links.
func (r *Repository) ConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := r.db.WithContext(ctx).Preload("Members").First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "conversation")
	}
	return &conversation, nil
}

// ConversationView retrieves a conversation with members rehydrated to
// public profiles.
func (r *Repository) ConversationView(ctx context.Context, id string) (*chat.ConversationView, error) {
	conversation, err := r.ConversationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &chat.ConversationView{ID: conversation.ID}
	for _, member := range conversation.Members {
		profile, err := r.Profile(ctx, member.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to rehydrate member: %w", err)
		}
		view.Members = append(view.Members, *profile)
	}
	return view, nil
}

// ConversationsOf returns the ids of the conversations a user belongs to.
func (r *Repository) ConversationsOf(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&chat.ConversationMember{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations of user: %w", err)
	}
	return ids, nil
}

// Friends

// CreateFriend saves a new friendship request.
func (r *Repository) CreateFriend(ctx context.Context, friend *chat.Friend) error {
	if err := r.db.WithContext(ctx).Create(friend).Error; err != nil {
		return fmt.Errorf("failed to create friend: %w", err)
	}
	return nil
}

// FriendByID retrieves a friendship.
func (r *Repository) FriendByID(ctx context.Context, id string) (*chat.Friend, error) {
	var friend chat.Friend
	if err := r.db.WithContext(ctx).First(&friend, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "friend")
	}
	return &friend, nil
}

// UpdateFriendStatus flips a pending request to mutual.
func (r *Repository) UpdateFriendStatus(ctx context.Context, id string, status bool) error {
	result := r.db.WithContext(ctx).Model(&chat.Friend{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update friend: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFriend removes a friendship.
func (r *Repository) DeleteFriend(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Friend{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete friend: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendsOf lists every friendship a user is part of.
func (r *Repository) FriendsOf(ctx context.Context, userID string) ([]chat.Friend, error) {
	var friends []chat.Friend
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

// Activity

// UpsertActivityEntry records the time a user last visited a room and
// returns the user's full activity document.
func (r *Repository) UpsertActivityEntry(ctx context.Context, userID, room string, timestamp int64) (*chat.Activity, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activity := chat.Activity{UserID: userID}
		if err := tx.Where(&chat.Activity{UserID: userID}).FirstOrCreate(&activity).Error; err != nil {
			return fmt.Errorf("failed to upsert activity: %w", err)
		}
		entry := chat.ActivityEntry{UserID: userID, Room: room}
		err := tx.Where(&entry).
			Assign(chat.ActivityEntry{Timestamp: timestamp}).
			FirstOrCreate(&entry).Error
		if err != nil {
			return fmt.Errorf("failed to upsert activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.ActivityOf(ctx, userID)
}

// ActivityOf retrieves a user's activity document.
func (r *Repository) ActivityOf(ctx context.Context, userID string) (*chat.Activity, error) {
	var activity chat.Activity
	err := r.db.WithContext(ctx).Preload("Entries").First(&activity, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFound(err, "activity")
	}
	return &activity, nil
}

// Emotes

// CreateEmote saves a new emote.
func (r *Repository) CreateEmote(ctx context.Context, emote *chat.Emote) error {
	if err := r.db.WithContext(ctx).Create(emote).Error; err != nil {
		return fmt.Errorf("failed to create emote: %w", err)
	}
	return nil
}

// EmoteByID retrieves an emote.
func (r *Repository) EmoteByID(ctx context.Context, id string) (*chat.Emote, error) {
	var emote chat.Emote
	if err := r.db.WithContext(ctx).First(&emote, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "emote")
	}
	return &emote, nil
}

// EmoteByName retrieves an emote by its colon-form name.
func (r *Repository) EmoteByName(ctx context.Context, name string) (*chat.Emote, error) {
	var emote chat.Emote
	if err := r.db.WithContext(ctx).First(&emote, "name = ?", name).Error; err != nil {
		return nil, notFound(err, "emote")
	}
	return &emote, nil
}

// Emotes lists the whole catalogue.
func (r *Repository) Emotes(ctx context.Context) ([]chat.Emote, error) {
	var emotes []chat.Emote
	if err := r.db.WithContext(ctx).Order("name").Find(&emotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list emotes: %w", err)
	}
	return emotes, nil
}

// UpdateEmote applies a partial emote update.
func (r *Repository) UpdateEmote(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&chat.Emote{}).Where("id = ?", id).Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update emote: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmote removes an emote from the catalogue.
func (r *Repository) DeleteEmote(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Emote{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete emote: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
