package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	chat "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/modules/auth"
	"github.com/example/chat-backend/modules/store"
)

const defaultMessageLimit = 50

// storeError maps a storage error onto an HTTP error response.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrUsernameRequired),
		errors.Is(err, store.ErrNameRequired),
		errors.Is(err, store.ErrTextRequired),
		errors.Is(err, store.ErrMembersRequired),
		errors.Is(err, store.ErrSelfFriend),
		errors.Is(err, store.ErrImageRequired),
		errors.Is(err, store.ErrEmoteNameTaken),
		errors.Is(err, store.ErrMessageRoom):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: "operation failed",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}

// Auth

// register handles POST /api/v1/auth/register.
func (m *APIModule) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return badRequest(c, err.Error())
		}
		return storeError(c, err)
	}

	user, err := m.store.CreateUser(c.Context(), req.Username, req.Email, hash)
	if err != nil {
		return storeError(c, err)
	}

	token, err := m.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		m.logger.Error("failed to issue token", "error", err)
		return storeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token, User: user})
}

// login handles POST /api/v1/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	user, err := m.store.Repository().UserByUsername(c.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return storeError(c, err)
	}
	if err != nil || !auth.CheckPassword(req.Password, user.Password) {
		// Same response for unknown user and wrong password.
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid credentials",
		})
	}

	token, err := m.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		m.logger.Error("failed to issue token", "error", err)
		return storeError(c, err)
	}

	return c.JSON(TokenResponse{Token: token, User: user})
}

// Users

func (m *APIModule) getUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == callerID(c) {
		user, err := m.store.UserByID(c.Context(), id)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(user)
	}
	// Other accounts are only visible through their public profile.
	profile, err := m.store.Profile(c.Context(), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(profile)
}

func (m *APIModule) updateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != callerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "cannot update another account",
		})
	}
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	user, err := m.store.UpdateUser(c.Context(), id, store.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(user)
}

// Servers

func (m *APIModule) createServer(c *fiber.Ctx) error {
	var req CreateServerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	server, err := m.store.CreateServer(c.Context(), req.Name, req.Icon, req.Description, callerID(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(server)
}

func (m *APIModule) getServer(c *fiber.Ctx) error {
	server, err := m.store.ServerByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(server)
}

func (m *APIModule) updateServer(c *fiber.Ctx) error {
	var req UpdateServerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	server, err := m.store.UpdateServerSettings(c.Context(), c.Params("id"), store.ServerUpdate{
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(server)
}

func (m *APIModule) addServerMember(c *fiber.Ctx) error {
	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "user is required")
	}
	if err := m.store.AddServerMember(c.Context(), c.Params("id"), req.UserID); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (m *APIModule) removeServerMember(c *fiber.Ctx) error {
	if err := m.store.RemoveServerMember(c.Context(), c.Params("id"), c.Params("userId")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Categories

func (m *APIModule) createCategory(c *fiber.Ctx) error {
	var req CreateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	category, err := m.store.CreateCategory(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (m *APIModule) updateCategory(c *fiber.Ctx) error {
	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	category, err := m.store.UpdateCategory(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(category)
}

func (m *APIModule) deleteCategory(c *fiber.Ctx) error {
	if err := m.store.DeleteCategory(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Channels

func (m *APIModule) createChannel(c *fiber.Ctx) error {
	var req CreateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	channel, err := m.store.CreateChannel(c.Context(), c.Params("id"), req.CategoryID, req.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

func (m *APIModule) updateChannel(c *fiber.Ctx) error {
	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	channel, err := m.store.UpdateChannel(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(channel)
}

func (m *APIModule) deleteChannel(c *fiber.Ctx) error {
	if err := m.store.DeleteChannel(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Messages

func messageLimit(c *fiber.Ctx) int {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

func attachments(files []AttachmentRequest) []chat.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]chat.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, chat.Attachment{Name: f.Name, URL: f.URL})
	}
	return out
}

func (m *APIModule) channelMessages(c *fiber.Ctx) error {
	messages, err := m.store.Repository().ChannelMessages(c.Context(), c.Params("id"), messageLimit(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(messages)
}

func (m *APIModule) createChannelMessage(c *fiber.Ctx) error {
	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	channel, err := m.store.Repository().ChannelByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	message, err := m.store.CreateMessage(c.Context(), store.MessageDraft{
		AuthorID:  callerID(c),
		Text:      strings.TrimSpace(req.Text),
		ServerID:  channel.ServerID,
		ChannelID: channel.ID,
		Files:     attachments(req.Files),
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

func (m *APIModule) updateMessage(c *fiber.Ctx) error {
	var req UpdateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	message, err := m.store.UpdateMessage(c.Context(), c.Params("id"), store.MessageUpdate{
		Text:   req.Text,
		Pinned: req.Pinned,
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(message)
}

func (m *APIModule) deleteMessage(c *fiber.Ctx) error {
	if err := m.store.DeleteMessage(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (m *APIModule) addReaction(c *fiber.Ctx) error {
	message, err := m.store.AddReaction(c.Context(), c.Params("id"), c.Params("emoteId"), callerID(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(message)
}

func (m *APIModule) removeReaction(c *fiber.Ctx) error {
	message, err := m.store.RemoveReaction(c.Context(), c.Params("id"), c.Params("emoteId"), callerID(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(message)
}

// Emotes

func (m *APIModule) listEmotes(c *fiber.Ctx) error {
	emotes, err := m.store.Repository().Emotes(c.Context())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(emotes)
}

func (m *APIModule) getEmote(c *fiber.Ctx) error {
	emote, err := m.store.Repository().EmoteByID(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(emote)
}

func (m *APIModule) createEmote(c *fiber.Ctx) error {
	var req CreateEmoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	emote, err := m.store.CreateEmote(c.Context(), req.Name, req.Category, req.Image)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(emote)
}

func (m *APIModule) updateEmote(c *fiber.Ctx) error {
	var req UpdateEmoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	emote, err := m.store.UpdateEmote(c.Context(), c.Params("id"), store.EmoteUpdate{
		Name:     req.Name,
		Category: req.Category,
		Image:    req.Image,
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(emote)
}

func (m *APIModule) deleteEmote(c *fiber.Ctx) error {
	if err := m.store.DeleteEmote(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Conversations

func (m *APIModule) createConversation(c *fiber.Ctx) error {
	var req CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	members := req.Members
	caller := callerID(c)
	included := false
	for _, id := range members {
		if id == caller {
			included = true
			break
		}
	}
	if !included {
		members = append(members, caller)
	}
	conversation, err := m.store.CreateConversation(c.Context(), members)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

func (m *APIModule) listConversations(c *fiber.Ctx) error {
	repo := m.store.Repository()
	ids, err := repo.ConversationsOf(c.Context(), callerID(c))
	if err != nil {
		return storeError(c, err)
	}
	views := make([]chat.ConversationView, 0, len(ids))
	for _, id := range ids {
		view, err := repo.ConversationView(c.Context(), id)
		if err != nil {
			return storeError(c, err)
		}
		views = append(views, *view)
	}
	return c.JSON(views)
}

func (m *APIModule) conversationMessages(c *fiber.Ctx) error {
	messages, err := m.store.Repository().ConversationMessages(c.Context(), c.Params("id"), messageLimit(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(messages)
}

func (m *APIModule) createConversationMessage(c *fiber.Ctx) error {
	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	message, err := m.store.CreateMessage(c.Context(), store.MessageDraft{
		AuthorID:       callerID(c),
		Text:           strings.TrimSpace(req.Text),
		ConversationID: c.Params("id"),
		Files:          attachments(req.Files),
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// Friends

func (m *APIModule) createFriend(c *fiber.Ctx) error {
	var req CreateFriendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Recipient == "" {
		return badRequest(c, "recipient is required")
	}
	friend, err := m.store.CreateFriend(c.Context(), callerID(c), req.Recipient)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(friend)
}

func (m *APIModule) listFriends(c *fiber.Ctx) error {
	repo := m.store.Repository()
	friends, err := repo.FriendsOf(c.Context(), callerID(c))
	if err != nil {
		return storeError(c, err)
	}
	views := make([]chat.FriendView, 0, len(friends))
	for _, friend := range friends {
		sender, err := repo.Profile(c.Context(), friend.SenderID)
		if err != nil {
			return storeError(c, err)
		}
		recipient, err := repo.Profile(c.Context(), friend.RecipientID)
		if err != nil {
			return storeError(c, err)
		}
		views = append(views, chat.FriendView{
			ID:        friend.ID,
			Sender:    *sender,
			Recipient: *recipient,
			Status:    friend.Status,
		})
	}
	return c.JSON(views)
}

func (m *APIModule) acceptFriend(c *fiber.Ctx) error {
	friend, err := m.store.AcceptFriend(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(friend)
}

func (m *APIModule) deleteFriend(c *fiber.Ctx) error {
	if err := m.store.DeleteFriend(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activity

func (m *APIModule) touchActivity(c *fiber.Ctx) error {
	activity, err := m.store.TouchActivity(c.Context(), callerID(c), c.Params("room"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(activity)
}
