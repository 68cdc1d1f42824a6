package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-monolith/mono/pkg/types"

	chat "github.com/example/chat-backend/domain/chat"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// newTestModule builds a store module on an in-memory database. The event
// bus stays nil: publishing is skipped, writes still go through.
func newTestModule(t *testing.T) *Module {
	t.Helper()
	return &Module{
		repo:   NewRepository(setupTestDB(t)),
		logger: &mockLogger{},
	}
}

func TestModule_CreateUser(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	tests := []struct {
		name      string
		username  string
		wantError error
	}{
		{"valid user", "alice", nil},
		{"missing username", "", ErrUsernameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := m.CreateUser(ctx, tt.username, "a@example.com", "hash")
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("CreateUser() error = %v, want %v", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateUser() unexpected error: %v", err)
			}
			if user.ID == "" {
				t.Error("CreateUser() must assign an id")
			}
		})
	}
}

func TestModule_UpdateUserComputesChangedFields(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)
	user, err := m.CreateUser(ctx, "alice", "a@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	avatar := "new.png"
	updated, err := m.UpdateUser(ctx, user.ID, UserUpdate{Avatar: &avatar})
	if err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	if updated.Avatar != "new.png" {
		t.Errorf("Avatar = %q, want new.png", updated.Avatar)
	}
	if updated.Username != "alice" {
		t.Errorf("Username = %q, want alice untouched", updated.Username)
	}

	// No fields set: the update is a plain read.
	same, err := m.UpdateUser(ctx, user.ID, UserUpdate{})
	if err != nil {
		t.Fatalf("UpdateUser(empty) error: %v", err)
	}
	if same.Avatar != "new.png" {
		t.Errorf("Avatar = %q, want new.png", same.Avatar)
	}
}

func TestModule_UpdateMessageFlipsEdited(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	message, err := m.CreateMessage(ctx, MessageDraft{
		AuthorID: "u1", Text: "original", ServerID: "s1", ChannelID: "ch1",
	})
	if err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}

	text := "revised"
	updated, err := m.UpdateMessage(ctx, message.ID, MessageUpdate{Text: &text})
	if err != nil {
		t.Fatalf("UpdateMessage() error: %v", err)
	}
	if updated.Text != "revised" || !updated.Edited {
		t.Errorf("message = %q edited=%v, want revised/true", updated.Text, updated.Edited)
	}

	// Pinning alone does not mark the message edited.
	other, err := m.CreateMessage(ctx, MessageDraft{
		AuthorID: "u1", Text: "keep", ServerID: "s1", ChannelID: "ch1",
	})
	if err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}
	pinned := true
	updated, err = m.UpdateMessage(ctx, other.ID, MessageUpdate{Pinned: &pinned})
	if err != nil {
		t.Fatalf("UpdateMessage() error: %v", err)
	}
	if !updated.Pinned || updated.Edited {
		t.Errorf("message pinned=%v edited=%v, want true/false", updated.Pinned, updated.Edited)
	}
}

func TestModule_CreateMessageValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	if _, err := m.CreateMessage(ctx, MessageDraft{AuthorID: "u1", ServerID: "s1"}); !errors.Is(err, ErrTextRequired) {
		t.Errorf("empty draft error = %v, want ErrTextRequired", err)
	}

	// Attachments alone are enough.
	message, err := m.CreateMessage(ctx, MessageDraft{
		AuthorID: "u1", ServerID: "s1", ChannelID: "ch1",
		Files: []chat.Attachment{{Name: "pic.png", URL: "https://cdn/pic.png"}},
	})
	if err != nil {
		t.Fatalf("CreateMessage(files only) error: %v", err)
	}
	if len(message.Files) != 1 || message.Files[0].ID == "" {
		t.Errorf("Files = %v, want one with an assigned id", message.Files)
	}
}

func TestModule_CreateConversationValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	if _, err := m.CreateConversation(ctx, []string{"u1"}); !errors.Is(err, ErrMembersRequired) {
		t.Errorf("single member error = %v, want ErrMembersRequired", err)
	}

	conversation, err := m.CreateConversation(ctx, []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}
	if len(conversation.Members) != 2 {
		t.Errorf("Members = %d, want 2", len(conversation.Members))
	}
}

func TestModule_FriendLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	if _, err := m.CreateFriend(ctx, "u1", "u1"); !errors.Is(err, ErrSelfFriend) {
		t.Errorf("self friend error = %v, want ErrSelfFriend", err)
	}

	friend, err := m.CreateFriend(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("CreateFriend() error: %v", err)
	}
	if friend.Status {
		t.Error("a new request must be pending")
	}

	accepted, err := m.AcceptFriend(ctx, friend.ID)
	if err != nil {
		t.Fatalf("AcceptFriend() error: %v", err)
	}
	if !accepted.Status {
		t.Error("accepted friendship must be mutual")
	}

	if err := m.DeleteFriend(ctx, friend.ID); err != nil {
		t.Fatalf("DeleteFriend() error: %v", err)
	}
	if _, err := m.repo.FriendByID(ctx, friend.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FriendByID(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestModule_TouchActivity(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	activity, err := m.TouchActivity(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("TouchActivity() error: %v", err)
	}
	if activity.UserID != "u1" || len(activity.Entries) != 1 {
		t.Fatalf("activity = %+v, want one entry for u1", activity)
	}
	if activity.Entries[0].Timestamp == 0 {
		t.Error("entry timestamp must be set")
	}
}

func TestModule_ConversationsOfService(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	conversation, err := m.CreateConversation(ctx, []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}

	resp, err := m.conversationsOf(ctx, ConversationsOfRequest{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("conversationsOf() error: %v", err)
	}
	if len(resp.ConversationIDs) != 1 || resp.ConversationIDs[0] != conversation.ID {
		t.Errorf("ConversationIDs = %v, want [%s]", resp.ConversationIDs, conversation.ID)
	}

	if _, err := m.conversationsOf(ctx, ConversationsOfRequest{}, nil); err == nil {
		t.Error("conversationsOf() without user_id must fail")
	}
}

func TestModule_CreateEmoteValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	tests := []struct {
		name    string
		emote   string
		image   string
		wantErr error
	}{
		{name: "missing name", emote: "", image: "/e/x.png", wantErr: ErrNameRequired},
		{name: "blank name", emote: "   ", image: "/e/x.png", wantErr: ErrNameRequired},
		{name: "missing image", emote: "wave", image: "", wantErr: ErrImageRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.CreateEmote(ctx, tt.emote, "", tt.image); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateEmote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	emote, err := m.CreateEmote(ctx, "Wave", "Social", "/e/wave.png")
	if err != nil {
		t.Fatalf("CreateEmote() error: %v", err)
	}
	if emote.Name != ":wave:" {
		t.Errorf("Name = %q, want colon form :wave:", emote.Name)
	}
	if emote.Category != "social" {
		t.Errorf("Category = %q, want social", emote.Category)
	}

	// The colon form and the bare form collide.
	if _, err := m.CreateEmote(ctx, ":wave:", "", "/e/wave2.png"); !errors.Is(err, ErrEmoteNameTaken) {
		t.Errorf("CreateEmote() duplicate error = %v, want ErrEmoteNameTaken", err)
	}

	// Default category.
	plain, err := m.CreateEmote(ctx, "dot", "", "/e/dot.png")
	if err != nil {
		t.Fatalf("CreateEmote() error: %v", err)
	}
	if plain.Category != "other" {
		t.Errorf("default Category = %q, want other", plain.Category)
	}
}

func TestModule_UpdateEmoteKeepsNamesUnique(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	first, err := m.CreateEmote(ctx, "wave", "", "/e/wave.png")
	if err != nil {
		t.Fatalf("CreateEmote() error: %v", err)
	}
	second, err := m.CreateEmote(ctx, "dot", "", "/e/dot.png")
	if err != nil {
		t.Fatalf("CreateEmote() error: %v", err)
	}

	rename := "wave"
	if _, err := m.UpdateEmote(ctx, second.ID, EmoteUpdate{Name: &rename}); !errors.Is(err, ErrEmoteNameTaken) {
		t.Errorf("UpdateEmote() rename onto taken name error = %v, want ErrEmoteNameTaken", err)
	}

	// Renaming to the name it already holds is allowed.
	same := "wave"
	got, err := m.UpdateEmote(ctx, first.ID, EmoteUpdate{Name: &same})
	if err != nil {
		t.Fatalf("UpdateEmote() same name error: %v", err)
	}
	if got.Name != ":wave:" {
		t.Errorf("Name = %q, want :wave:", got.Name)
	}
}

func TestModule_ReactionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestModule(t)

	emote, err := m.CreateEmote(ctx, "wave", "", "/e/wave.png")
	if err != nil {
		t.Fatalf("CreateEmote() error: %v", err)
	}
	message, err := m.CreateMessage(ctx, MessageDraft{
		AuthorID: "u1", Text: "hi", ServerID: "s1", ChannelID: "ch1",
	})
	if err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}

	if _, err := m.AddReaction(ctx, message.ID, "no-such-emote", "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddReaction() unknown emote error = %v, want ErrNotFound", err)
	}
	if _, err := m.AddReaction(ctx, "no-such-message", emote.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddReaction() unknown message error = %v, want ErrNotFound", err)
	}

	got, err := m.AddReaction(ctx, message.ID, emote.ID, "u2")
	if err != nil {
		t.Fatalf("AddReaction() error: %v", err)
	}
	if len(got.Reactions) != 1 || len(got.Reactions[0].Users) != 1 {
		t.Fatalf("Reactions = %+v, want one group with one user", got.Reactions)
	}

	// Same user, same emote: still a single entry.
	got, err = m.AddReaction(ctx, message.ID, emote.ID, "u2")
	if err != nil {
		t.Fatalf("AddReaction() repeat error: %v", err)
	}
	if len(got.Reactions) != 1 || len(got.Reactions[0].Users) != 1 {
		t.Fatalf("Reactions after repeat = %+v, want one group with one user", got.Reactions)
	}

	got, err = m.RemoveReaction(ctx, message.ID, emote.ID, "u2")
	if err != nil {
		t.Fatalf("RemoveReaction() error: %v", err)
	}
	if len(got.Reactions) != 0 {
		t.Errorf("Reactions after remove = %+v, want none", got.Reactions)
	}
	if _, err := m.RemoveReaction(ctx, message.ID, emote.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveReaction() twice error = %v, want ErrNotFound", err)
	}
}
