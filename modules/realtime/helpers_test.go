package realtime

import (
	"context"
	"encoding/json"
	"sync"
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

func newMockLogger() types.Logger {
	return &mockLogger{}
}

// fakeConn records every payload written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []interface{}
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) frame(t *testing.T, i int) interface{} {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.frames) {
		t.Fatalf("expected at least %d frames, got %d", i+1, len(c.frames))
	}
	return c.frames[i]
}

// envelopeAt re-decodes a recorded frame through JSON so tests observe
// exactly what a client would.
func envelopeAt(t *testing.T, c *fakeConn, i int) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(c.frame(t, i))
	if err != nil {
		t.Fatalf("failed to marshal frame: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	return decoded
}

func newTestClient(id string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return &Client{ID: id, Conn: conn}, conn
}

// fakeStore is an in-memory StorePort.
type fakeStore struct {
	messages      map[string]*chat.MessageView
	servers       map[string]*chat.Server
	users         map[string]*chat.User
	conversations map[string]*chat.ConversationView
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:      make(map[string]*chat.MessageView),
		servers:       make(map[string]*chat.Server),
		users:         make(map[string]*chat.User),
		conversations: make(map[string]*chat.ConversationView),
	}
}

func (s *fakeStore) MessageView(_ context.Context, id string) (*chat.MessageView, error) {
	if v, ok := s.messages[id]; ok {
		return v, nil
	}
	return nil, errNotFound
}

func (s *fakeStore) ServerByID(_ context.Context, id string) (*chat.Server, error) {
	if v, ok := s.servers[id]; ok {
		return v, nil
	}
	return nil, errNotFound
}

func (s *fakeStore) UserByID(_ context.Context, id string) (*chat.User, error) {
	if v, ok := s.users[id]; ok {
		return v, nil
	}
	return nil, errNotFound
}

func (s *fakeStore) Profile(_ context.Context, userID string) (*chat.PublicProfile, error) {
	if v, ok := s.users[userID]; ok {
		profile := v.Public()
		return &profile, nil
	}
	return nil, errNotFound
}

func (s *fakeStore) ConversationView(_ context.Context, id string) (*chat.ConversationView, error) {
	if v, ok := s.conversations[id]; ok {
		return v, nil
	}
	return nil, errNotFound
}

// fakeMembers is an in-memory MembershipPort.
type fakeMembers struct {
	conversations map[string][]string
	err           error
}

func (f *fakeMembers) ConversationsOf(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conversations[userID], nil
}

// newTestModule assembles a module around a fresh hub without the framework
// lifecycle.
func newTestModule(store StorePort) *Module {
	logger := newMockLogger()
	m := &Module{
		hub:    NewHub(logger),
		store:  store,
		logger: logger,
	}
	return m
}
