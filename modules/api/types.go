package api

import chat "github.com/example/chat-backend/domain/chat"

// RegisterRequest is the request to create an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request to authenticate.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful register/login.
type TokenResponse struct {
	Token string     `json:"token"`
	User  *chat.User `json:"user"`
}

// UpdateUserRequest is a partial account update. Omitted fields are left
// untouched.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

// CreateServerRequest is the request to create a server.
type CreateServerRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// UpdateServerRequest is a partial server settings update.
type UpdateServerRequest struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

// AddMemberRequest enrolls a user in a server.
type AddMemberRequest struct {
	UserID string `json:"user"`
}

// CreateSectionRequest creates a category or channel.
type CreateSectionRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"category,omitempty"`
}

// RenameRequest renames a category or channel.
type RenameRequest struct {
	Name string `json:"name"`
}

// AttachmentRequest is a file reference attached to a new message.
type AttachmentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CreateMessageRequest posts a new message.
type CreateMessageRequest struct {
	Text  string              `json:"text"`
	Files []AttachmentRequest `json:"files"`
}

// UpdateMessageRequest edits a message.
type UpdateMessageRequest struct {
	Text   *string `json:"text"`
	Pinned *bool   `json:"pinned"`
}

// CreateConversationRequest creates a conversation. The caller is added to
// the member list if absent.
type CreateConversationRequest struct {
	Members []string `json:"members"`
}

// CreateEmoteRequest adds an emote to the catalogue. Image is a reference
// into external storage.
type CreateEmoteRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// UpdateEmoteRequest is a partial emote update.
type UpdateEmoteRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Image    *string `json:"image"`
}

// CreateFriendRequest sends a friendship request.
type CreateFriendRequest struct {
	Recipient string `json:"recipient"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
