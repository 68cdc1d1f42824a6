package chat

import (
	"time"

	"gorm.io/gorm"
)

// User is an account. Password and Email are private fields: they are never
// included in realtime payloads sent to other users.
type User struct {
	ID        string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Username  string         `gorm:"size:50;not null" json:"username"`
	Password  string         `gorm:"size:100;not null" json:"-"`
	Email     string         `gorm:"size:254;not null" json:"email,omitempty"`
	Avatar    string         `gorm:"size:255" json:"avatar,omitempty"`
}

// TableName returns the table name for User model.
func (User) TableName() string {
	return "users"
}

// PublicProfile is the subset of a user every other client is allowed to see.
type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Public returns the user's public profile.
func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Server is a community with channels and a member list.
type Server struct {
	ID          string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Icon        string         `gorm:"size:255" json:"icon,omitempty"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	AdminID     string         `gorm:"size:36;not null" json:"admin"`
	Members     []ServerMember `gorm:"foreignKey:ServerID" json:"members,omitempty"`
}

// TableName returns the table name for Server model.
func (Server) TableName() string {
	return "servers"
}

// ServerMember links a user to a server.
type ServerMember struct {
	ServerID string `gorm:"primarykey;size:36" json:"server"`
	UserID   string `gorm:"primarykey;size:36" json:"user"`
}

// TableName returns the table name for ServerMember model.
func (ServerMember) TableName() string {
	return "server_members"
}

// Category groups channels inside a server.
type Category struct {
	ID        string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	ServerID  string         `gorm:"size:36;not null;index" json:"server"`
}

// TableName returns the table name for Category model.
func (Category) TableName() string {
	return "categories"
}

// Channel is a text channel belonging to a server.
type Channel struct {
	ID         string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	ServerID   string         `gorm:"size:36;not null;index" json:"server"`
	CategoryID string         `gorm:"size:36;index" json:"category,omitempty"`
}

// TableName returns the table name for Channel model.
func (Channel) TableName() string {
	return "channels"
}

// Message is a chat message posted either in a server channel or in a
// private conversation. Exactly one of ServerID/ConversationID is set;
// the write path enforces this.
type Message struct {
	ID             string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	AuthorID       string         `gorm:"size:36;not null;index" json:"author"`
	Text           string         `gorm:"size:5000" json:"text"`
	ServerID       string         `gorm:"size:36;index" json:"server,omitempty"`
	ChannelID      string         `gorm:"size:36;index" json:"channel,omitempty"`
	ConversationID string         `gorm:"size:36;index" json:"conversation,omitempty"`
	Edited         bool           `json:"edited,omitempty"`
	Pinned         bool           `json:"pinned,omitempty"`
	Files          []Attachment   `gorm:"foreignKey:MessageID" json:"files,omitempty"`

	// Reactions is the per-emote aggregation of the reaction rows. Loaded
	// by the repository, not mapped to a column.
	Reactions []ReactionGroup `gorm:"-" json:"reaction,omitempty"`
}

// TableName returns the table name for Message model.
func (Message) TableName() string {
	return "messages"
}

// Room returns the broadcast room a message belongs to.
func (m *Message) Room() string {
	if m.ServerID != "" {
		return m.ServerID
	}
	return m.ConversationID
}

// Emote is a named image in the shared emote catalogue, usable as a message
// reaction. Names are stored in colon form (":smile:"). Image bytes live in
// external storage; only the reference is kept here.
type Emote struct {
	ID        string         `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;not null;index" json:"name"`
	Category  string         `gorm:"size:20;not null" json:"category"`
	Image     string         `gorm:"size:255;not null" json:"image"`
}

// TableName returns the table name for Emote model.
func (Emote) TableName() string {
	return "emotes"
}

// Reaction is one user's emote reaction on a message.
type Reaction struct {
	MessageID string `gorm:"primarykey;size:36" json:"message"`
	EmoteID   string `gorm:"primarykey;size:36" json:"emote"`
	UserID    string `gorm:"primarykey;size:36" json:"user"`
}

// TableName returns the table name for Reaction model.
func (Reaction) TableName() string {
	return "reactions"
}

// ReactionGroup aggregates a message's reactions per emote, the shape
// clients render: one emote badge with the users who picked it.
type ReactionGroup struct {
	EmoteID string   `json:"emote"`
	Users   []string `json:"users"`
}

// GroupReactions folds per-user reaction rows into per-emote groups,
// preserving the input row order.
func GroupReactions(rows []Reaction) []ReactionGroup {
	if len(rows) == 0 {
		return nil
	}
	index := make(map[string]int)
	var groups []ReactionGroup
	for _, row := range rows {
		i, ok := index[row.EmoteID]
		if !ok {
			i = len(groups)
			index[row.EmoteID] = i
			groups = append(groups, ReactionGroup{EmoteID: row.EmoteID})
		}
		groups[i].Users = append(groups[i].Users, row.UserID)
	}
	return groups
}

// Attachment is a reference to an uploaded file attached to a message.
// File contents live in external storage; only the reference is kept here.
type Attachment struct {
	ID        string `gorm:"primarykey;size:36" json:"id"`
	MessageID string `gorm:"size:36;not null;index" json:"-"`
	Name      string `gorm:"size:255;not null" json:"name"`
	URL       string `gorm:"size:255;not null" json:"url"`
}

// TableName returns the table name for Attachment model.
func (Attachment) TableName() string {
	return "attachments"
}

// Conversation is a private message group. Immutable after creation: the
// member list is fixed when the conversation is created.
type Conversation struct {
	ID        string               `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Members   []ConversationMember `gorm:"foreignKey:ConversationID" json:"members,omitempty"`
}

// TableName returns the table name for Conversation model.
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMember links a user to a conversation.
type ConversationMember struct {
	ConversationID string `gorm:"primarykey;size:36" json:"conversation"`
	UserID         string `gorm:"primarykey;size:36" json:"user"`
}

// TableName returns the table name for ConversationMember model.
func (ConversationMember) TableName() string {
	return "conversation_members"
}

// Friend is a friendship edge. Status is false while the request is
// pending and true once both users are mutuals.
type Friend struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	SenderID    string    `gorm:"size:36;not null;index" json:"sender"`
	RecipientID string    `gorm:"size:36;not null;index" json:"recipient"`
	Status      bool      `gorm:"not null;default:false" json:"status"`
}

// TableName returns the table name for Friend model.
func (Friend) TableName() string {
	return "friends"
}

// Activity tracks when a user last visited each room. Its ID is the owning
// user's ID, so realtime updates go straight to that personal room.
type Activity struct {
	UserID  string          `gorm:"primarykey;size:36" json:"id"`
	Entries []ActivityEntry `gorm:"foreignKey:UserID" json:"activity"`
}

// TableName returns the table name for Activity model.
func (Activity) TableName() string {
	return "activities"
}

// ActivityEntry is a single room-visit record.
type ActivityEntry struct {
	UserID    string `gorm:"primarykey;size:36" json:"-"`
	Room      string `gorm:"primarykey;size:36" json:"room"`
	Timestamp int64  `gorm:"not null" json:"timestamp"`
}

// TableName returns the table name for ActivityEntry model.
func (ActivityEntry) TableName() string {
	return "activity_entries"
}
