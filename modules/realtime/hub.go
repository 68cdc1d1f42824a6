package realtime

import (
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// Conn is the transport side of a client connection. Satisfied by
// *websocket.Conn; tests plug in a recording fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client represents a connected WebSocket client. A client may be a member
// of many rooms at once: its personal room, its servers and its
// conversations.
type Client struct {
	ID       string
	Conn     Conn
	UserID   string
	Username string

	// CurrentRoom is the room the client last reported being active in
	// via the "join room" signal. Read only by disconnect cleanup to
	// synthesize a typing-stopped signal.
	CurrentRoom string

	// typing holds the last typing payload the client relayed, so
	// disconnect cleanup can clear a stuck indicator.
	typing *TypingSignal

	// writeMu serializes writes to Conn. The websocket transport allows at
	// most one concurrent writer per connection, and watchers and the
	// typing relay fan out from independent goroutines.
	writeMu sync.Mutex
}

// Hub is the room registry plus fan-out dispatcher. Membership is a runtime
// cache of stored membership: rebuilt at bind time, updated incrementally by
// join/leave signals, and allowed to go stale in between.
type Hub struct {
	clients     map[string]*Client         // clientID -> Client
	rooms       map[string]map[string]bool // roomID -> set of clientIDs
	clientRooms map[string]map[string]bool // clientID -> set of roomIDs
	mu          sync.RWMutex
	logger      types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]bool),
		clientRooms: make(map[string]map[string]bool),
		logger:      logger,
	}
}

// Register adds a client to the hub. The client is not in any room yet.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.clientRooms[client.ID] = make(map[string]bool)
	h.logger.Debug("client registered", "clientID", client.ID)
}

// Unregister removes a client and all its room memberships.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	h.removeFromAllRooms(clientID)
	delete(h.clientRooms, clientID)
	delete(h.clients, clientID)
	h.logger.Debug("client unregistered", "clientID", clientID)
}

// JoinRoom adds a client to a room. Joining twice is a no-op; unknown
// clients are ignored.
func (h *Hub) JoinRoom(clientID, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
	h.clientRooms[clientID][roomID] = true
}

// LeaveRoom removes a client from a room. Leaving a room the client is not
// in is a no-op.
func (h *Hub) LeaveRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] != nil {
		delete(h.rooms[roomID], clientID)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if h.clientRooms[clientID] != nil {
		delete(h.clientRooms[clientID], roomID)
	}
}

// LeaveAll removes a client from every room it is in. The client stays
// registered.
func (h *Hub) LeaveAll(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromAllRooms(clientID)
	if _, ok := h.clients[clientID]; ok {
		h.clientRooms[clientID] = make(map[string]bool)
	}
}

// removeFromAllRooms must be called with the lock held.
func (h *Hub) removeFromAllRooms(clientID string) {
	for roomID := range h.clientRooms[clientID] {
		if h.rooms[roomID] != nil {
			delete(h.rooms[roomID], clientID)
			if len(h.rooms[roomID]) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// Emit sends a payload to every client in a room. Unknown room ids are
// inert: nobody is listening, nothing is sent. Best effort, no
// acknowledgement; write errors are logged and the event is lost for that
// client.
func (h *Hub) Emit(roomID string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID := range h.rooms[roomID] {
		if client, ok := h.clients[clientID]; ok {
			h.send(client, payload)
		}
	}
}

// Broadcast sends a payload to every connected client. Used for delete
// tombstones whose room cannot be resolved, global profile updates and the
// typing relay.
func (h *Hub) Broadcast(payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		h.send(client, payload)
	}
}

func (h *Hub) send(client *Client, payload interface{}) {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	if err := client.Conn.WriteJSON(payload); err != nil {
		h.logger.Warn("failed to send to client", "clientID", client.ID, "error", err)
	}
}

// Client returns a client by ID.
func (h *Hub) Client(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// RoomClients returns all clients currently in a room.
func (h *Hub) RoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for clientID := range h.rooms[roomID] {
		if client, ok := h.clients[clientID]; ok {
			clients = append(clients, client)
		}
	}
	return clients
}

// ClientRooms returns the rooms a client is currently in.
func (h *Hub) ClientRooms(clientID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.clientRooms[clientID]))
	for roomID := range h.clientRooms[clientID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// CloseAll closes every client connection and clears the registry. Called
// on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.clientRooms = make(map[string]map[string]bool)
}
