package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	chat "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
)

// Validation errors for the write path.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrNameRequired     = errors.New("name is required")
	ErrTextRequired     = errors.New("message text is required")
	ErrMembersRequired  = errors.New("at least two members are required")
	ErrSelfFriend       = errors.New("cannot befriend yourself")
	ErrImageRequired    = errors.New("emote image is required")
	ErrEmoteNameTaken   = errors.New("emote name is already taken")
)

// Users

// CreateUser saves a new account. The password must already be hashed by
// the auth module.
func (m *Module) CreateUser(ctx context.Context, username, email, passwordHash string) (*chat.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	user := &chat.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: passwordHash,
	}
	if err := m.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	m.publishUserChange(events.OpInsert, user.ID, user, nil)
	return user, nil
}

// UserUpdate is a partial account update. Nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Avatar   *string
}

// UpdateUser applies a partial account update and publishes the changed
// field names with the event.
func (m *Module) UpdateUser(ctx context.Context, id string, update UserUpdate) (*chat.User, error) {
	updates := map[string]interface{}{}
	var fields []string
	if update.Username != nil {
		updates["username"] = *update.Username
		fields = append(fields, "username")
	}
	if update.Email != nil {
		updates["email"] = *update.Email
		fields = append(fields, "email")
	}
	if update.Avatar != nil {
		updates["avatar"] = *update.Avatar
		fields = append(fields, "avatar")
	}
	if len(updates) == 0 {
		return m.repo.UserByID(ctx, id)
	}

	if err := m.repo.UpdateUser(ctx, id, updates); err != nil {
		return nil, err
	}
	user, err := m.repo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishUserChange(events.OpUpdate, id, user, fields)
	return user, nil
}

// Servers

// CreateServer saves a new server with the creator as admin and first
// member.
func (m *Module) CreateServer(ctx context.Context, name, icon, description, adminID string) (*chat.Server, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	server := &chat.Server{
		ID:          uuid.New().String(),
		Name:        name,
		Icon:        icon,
		Description: description,
		AdminID:     adminID,
	}
	if err := m.repo.CreateServer(ctx, server); err != nil {
		return nil, err
	}
	m.publishServerChange(events.OpInsert, server.ID, server, nil)
	return server, nil
}

// ServerUpdate is a partial server settings update.
type ServerUpdate struct {
	Name        *string
	Icon        *string
	Description *string
}

// UpdateServerSettings applies a settings update.
func (m *Module) UpdateServerSettings(ctx context.Context, id string, update ServerUpdate) (*chat.Server, error) {
	updates := map[string]interface{}{}
	var fields []string
	if update.Name != nil {
		updates["name"] = *update.Name
		fields = append(fields, "name")
	}
	if update.Icon != nil {
		updates["icon"] = *update.Icon
		fields = append(fields, "icon")
	}
	if update.Description != nil {
		updates["description"] = *update.Description
		fields = append(fields, "description")
	}
	if len(updates) == 0 {
		return m.repo.ServerByID(ctx, id)
	}

	if err := m.repo.UpdateServer(ctx, id, updates); err != nil {
		return nil, err
	}
	server, err := m.repo.ServerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishServerChange(events.OpUpdate, id, server, fields)
	return server, nil
}

// AddServerMember enrolls a user in a server and signals the members
// change.
func (m *Module) AddServerMember(ctx context.Context, serverID, userID string) error {
	if _, err := m.repo.ServerByID(ctx, serverID); err != nil {
		return err
	}
	if err := m.repo.AddServerMember(ctx, serverID, userID); err != nil {
		return err
	}
	m.publishServerChange(events.OpUpdate, serverID, nil, []string{"members"})
	return nil
}

// RemoveServerMember removes a user from a server and signals the members
// change.
func (m *Module) RemoveServerMember(ctx context.Context, serverID, userID string) error {
	if err := m.repo.RemoveServerMember(ctx, serverID, userID); err != nil {
		return err
	}
	m.publishServerChange(events.OpUpdate, serverID, nil, []string{"members"})
	return nil
}

// Categories and channels

// CreateCategory saves a new category in a server.
func (m *Module) CreateCategory(ctx context.Context, serverID, name string) (*chat.Category, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	category := &chat.Category{
		ID:       uuid.New().String(),
		Name:     name,
		ServerID: serverID,
	}
	if err := m.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	m.publishCategoryChange(events.OpInsert, category.ID, category, nil)
	return category, nil
}

// UpdateCategory renames a category.
func (m *Module) UpdateCategory(ctx context.Context, id, name string) (*chat.Category, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := m.repo.UpdateCategory(ctx, id, name); err != nil {
		return nil, err
	}
	category, err := m.repo.CategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishCategoryChange(events.OpUpdate, id, category, []string{"name"})
	return category, nil
}

// DeleteCategory removes a category. The change event is a tombstone.
func (m *Module) DeleteCategory(ctx context.Context, id string) error {
	if err := m.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	m.publishCategoryChange(events.OpDelete, id, nil, nil)
	return nil
}

// CreateChannel saves a new channel in a server.
func (m *Module) CreateChannel(ctx context.Context, serverID, categoryID, name string) (*chat.Channel, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	channel := &chat.Channel{
		ID:         uuid.New().String(),
		Name:       name,
		ServerID:   serverID,
		CategoryID: categoryID,
	}
	if err := m.repo.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}
	m.publishChannelChange(events.OpInsert, channel.ID, channel, nil)
	return channel, nil
}

// UpdateChannel renames a channel.
func (m *Module) UpdateChannel(ctx context.Context, id, name string) (*chat.Channel, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := m.repo.UpdateChannel(ctx, id, name); err != nil {
		return nil, err
	}
	channel, err := m.repo.ChannelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishChannelChange(events.OpUpdate, id, channel, []string{"name"})
	return channel, nil
}

// DeleteChannel removes a channel. The change event is a tombstone.
func (m *Module) DeleteChannel(ctx context.Context, id string) error {
	if err := m.repo.DeleteChannel(ctx, id); err != nil {
		return err
	}
	m.publishChannelChange(events.OpDelete, id, nil, nil)
	return nil
}

// Messages

// MessageDraft is the write-path input for a new message.
type MessageDraft struct {
	AuthorID       string
	Text           string
	ServerID       string
	ChannelID      string
	ConversationID string
	Files          []chat.Attachment
}

// CreateMessage saves a new message. Exactly one of ServerID and
// ConversationID must be set.
func (m *Module) CreateMessage(ctx context.Context, draft MessageDraft) (*chat.Message, error) {
	if draft.Text == "" && len(draft.Files) == 0 {
		return nil, ErrTextRequired
	}
	message := &chat.Message{
		ID:             uuid.New().String(),
		AuthorID:       draft.AuthorID,
		Text:           draft.Text,
		ServerID:       draft.ServerID,
		ChannelID:      draft.ChannelID,
		ConversationID: draft.ConversationID,
	}
	for i := range draft.Files {
		draft.Files[i].ID = uuid.New().String()
		draft.Files[i].MessageID = message.ID
	}
	message.Files = draft.Files

	if err := m.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	m.publishMessageChange(events.OpInsert, message.ID, message, nil)
	return message, nil
}

// MessageUpdate is a partial message update.
type MessageUpdate struct {
	Text   *string
	Pinned *bool
}

// UpdateMessage edits a message. Text edits also flip the edited flag.
func (m *Module) UpdateMessage(ctx context.Context, id string, update MessageUpdate) (*chat.Message, error) {
	updates := map[string]interface{}{}
	var fields []string
	if update.Text != nil {
		updates["text"] = *update.Text
		updates["edited"] = true
		fields = append(fields, "text", "edited")
	}
	if update.Pinned != nil {
		updates["pinned"] = *update.Pinned
		fields = append(fields, "pinned")
	}
	if len(updates) == 0 {
		return m.repo.MessageByID(ctx, id)
	}

	if err := m.repo.UpdateMessage(ctx, id, updates); err != nil {
		return nil, err
	}
	message, err := m.repo.MessageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishMessageChange(events.OpUpdate, id, message, fields)
	return message, nil
}

// DeleteMessage removes a message. The change event is a tombstone.
func (m *Module) DeleteMessage(ctx context.Context, id string) error {
	if err := m.repo.DeleteMessage(ctx, id); err != nil {
		return err
	}
	m.publishMessageChange(events.OpDelete, id, nil, nil)
	return nil
}

// Emotes and reactions

// normalizeEmoteName lowercases a name and wraps it in colons if the
// client sent the bare form.
func normalizeEmoteName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, ":") {
		name = ":" + name + ":"
	}
	return name
}

// CreateEmote adds an emote to the shared catalogue. Names are unique
// across the catalogue.
func (m *Module) CreateEmote(ctx context.Context, name, category, image string) (*chat.Emote, error) {
	name = normalizeEmoteName(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if image == "" {
		return nil, ErrImageRequired
	}
	if category == "" {
		category = "other"
	}
	if _, err := m.repo.EmoteByName(ctx, name); err == nil {
		return nil, ErrEmoteNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	emote := &chat.Emote{
		ID:       uuid.New().String(),
		Name:     name,
		Category: strings.ToLower(category),
		Image:    image,
	}
	if err := m.repo.CreateEmote(ctx, emote); err != nil {
		return nil, err
	}
	m.publishEmoteChange(events.OpInsert, emote.ID, emote, nil)
	return emote, nil
}

// EmoteUpdate is a partial emote update.
type EmoteUpdate struct {
	Name     *string
	Category *string
	Image    *string
}

// UpdateEmote applies a partial update. Renames keep the uniqueness rule.
func (m *Module) UpdateEmote(ctx context.Context, id string, update EmoteUpdate) (*chat.Emote, error) {
	updates := map[string]interface{}{}
	var fields []string
	if update.Name != nil {
		name := normalizeEmoteName(*update.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if existing, err := m.repo.EmoteByName(ctx, name); err == nil && existing.ID != id {
			return nil, ErrEmoteNameTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		updates["name"] = name
		fields = append(fields, "name")
	}
	if update.Category != nil {
		updates["category"] = strings.ToLower(*update.Category)
		fields = append(fields, "category")
	}
	if update.Image != nil {
		updates["image"] = *update.Image
		fields = append(fields, "image")
	}
	if len(updates) == 0 {
		return m.repo.EmoteByID(ctx, id)
	}

	if err := m.repo.UpdateEmote(ctx, id, updates); err != nil {
		return nil, err
	}
	emote, err := m.repo.EmoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishEmoteChange(events.OpUpdate, id, emote, fields)
	return emote, nil
}

// DeleteEmote removes an emote. The change event is a tombstone.
func (m *Module) DeleteEmote(ctx context.Context, id string) error {
	if err := m.repo.DeleteEmote(ctx, id); err != nil {
		return err
	}
	m.publishEmoteChange(events.OpDelete, id, nil, nil)
	return nil
}

// AddReaction records a user's emote reaction on a message. The change
// surfaces as a message update so it reaches the message's room.
func (m *Module) AddReaction(ctx context.Context, messageID, emoteID, userID string) (*chat.Message, error) {
	if _, err := m.repo.EmoteByID(ctx, emoteID); err != nil {
		return nil, err
	}
	if _, err := m.repo.MessageByID(ctx, messageID); err != nil {
		return nil, err
	}
	if err := m.repo.AddReaction(ctx, messageID, emoteID, userID); err != nil {
		return nil, err
	}
	message, err := m.repo.MessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	m.publishMessageChange(events.OpUpdate, messageID, message, []string{"reaction"})
	return message, nil
}

// RemoveReaction withdraws a user's emote reaction from a message.
func (m *Module) RemoveReaction(ctx context.Context, messageID, emoteID, userID string) (*chat.Message, error) {
	if err := m.repo.RemoveReaction(ctx, messageID, emoteID, userID); err != nil {
		return nil, err
	}
	message, err := m.repo.MessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	m.publishMessageChange(events.OpUpdate, messageID, message, []string{"reaction"})
	return message, nil
}

// Conversations

// CreateConversation saves a new conversation. Conversations are immutable
// after creation.
func (m *Module) CreateConversation(ctx context.Context, memberIDs []string) (*chat.Conversation, error) {
	if len(memberIDs) < 2 {
		return nil, ErrMembersRequired
	}
	conversation := &chat.Conversation{ID: uuid.New().String()}
	for _, userID := range memberIDs {
		conversation.Members = append(conversation.Members, chat.ConversationMember{
			ConversationID: conversation.ID,
			UserID:         userID,
		})
	}
	if err := m.repo.CreateConversation(ctx, conversation); err != nil {
		return nil, err
	}
	m.publishConversationChange(events.OpInsert, conversation.ID, conversation)
	return conversation, nil
}

// Friends

// CreateFriend saves a pending friendship request.
func (m *Module) CreateFriend(ctx context.Context, senderID, recipientID string) (*chat.Friend, error) {
	if senderID == recipientID {
		return nil, ErrSelfFriend
	}
	friend := &chat.Friend{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      false,
	}
	if err := m.repo.CreateFriend(ctx, friend); err != nil {
		return nil, err
	}
	m.publishFriendChange(events.OpInsert, friend.ID, friend)
	return friend, nil
}

// AcceptFriend flips a pending request to mutual.
func (m *Module) AcceptFriend(ctx context.Context, id string) (*chat.Friend, error) {
	if err := m.repo.UpdateFriendStatus(ctx, id, true); err != nil {
		return nil, err
	}
	friend, err := m.repo.FriendByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.publishFriendChange(events.OpUpdate, id, friend)
	return friend, nil
}

// DeleteFriend removes a friendship. The change event is a tombstone.
func (m *Module) DeleteFriend(ctx context.Context, id string) error {
	if err := m.repo.DeleteFriend(ctx, id); err != nil {
		return err
	}
	m.publishFriendChange(events.OpDelete, id, nil)
	return nil
}

// Activity

// TouchActivity records a room visit and publishes the refreshed activity
// document.
func (m *Module) TouchActivity(ctx context.Context, userID, room string) (*chat.Activity, error) {
	activity, err := m.repo.UpsertActivityEntry(ctx, userID, room, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}
	m.publishActivityChange(events.OpUpdate, userID, activity)
	return activity, nil
}

// Read delegates used by the realtime watchers (rehydration lookups).

// MessageView retrieves a message with its author rehydrated.
func (m *Module) MessageView(ctx context.Context, id string) (*chat.MessageView, error) {
	return m.repo.MessageView(ctx, id)
}

// ServerByID retrieves a server with its member list.
func (m *Module) ServerByID(ctx context.Context, id string) (*chat.Server, error) {
	return m.repo.ServerByID(ctx, id)
}

// UserByID retrieves a full user document.
func (m *Module) UserByID(ctx context.Context, id string) (*chat.User, error) {
	return m.repo.UserByID(ctx, id)
}

// Profile retrieves a user's public profile.
func (m *Module) Profile(ctx context.Context, userID string) (*chat.PublicProfile, error) {
	return m.repo.Profile(ctx, userID)
}

// ConversationView retrieves a conversation with member profiles.
func (m *Module) ConversationView(ctx context.Context, id string) (*chat.ConversationView, error) {
	return m.repo.ConversationView(ctx, id)
}
