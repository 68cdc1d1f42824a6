package chat

// MessageView is a message with its author rehydrated to a public profile.
// The change feed only carries the author's foreign key; clients need the
// joined view.
type MessageView struct {
	Message
	Author PublicProfile `json:"author"`
}

// FriendView is a friendship with both parties rehydrated to public profiles.
type FriendView struct {
	ID        string        `json:"id"`
	Sender    PublicProfile `json:"sender"`
	Recipient PublicProfile `json:"recipient"`
	Status    bool          `json:"status"`
}

// ConversationView is a conversation with its members rehydrated to public
// profiles.
type ConversationView struct {
	ID      string          `json:"id"`
	Members []PublicProfile `json:"members"`
}
