package realtime

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chat-backend/events"
	"github.com/example/chat-backend/modules/store"
)

// Module is the realtime fan-out core: it owns the hub, binds sessions and
// consumes the store's change feed, pushing envelopes to the right rooms.
type Module struct {
	hub      *Hub
	sessions *Sessions
	store    StorePort
	members  MembershipPort
	profiles ProfileCache
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the realtime module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "realtime"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.members = store.NewMembershipAdapter(container)
	}
}

// SetStore injects the rehydration lookups. Done from main.go because the
// read path is not exposed via the service container.
func (m *Module) SetStore(s StorePort) {
	m.store = s
}

// SetProfileCache injects the optional profile cache.
func (m *Module) SetProfileCache(c ProfileCache) {
	m.profiles = c
}

// Hub returns the hub for the API module's WebSocket handler.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Sessions returns the session binder.
func (m *Module) Sessions() *Sessions {
	return m.sessions
}

// RegisterEventConsumers subscribes one watcher per entity type to the
// store change feed. Watchers live for the process lifetime.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageChangedV1, m.handleMessageChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.CategoryChangedV1, m.handleCategoryChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register CategoryChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ChannelChangedV1, m.handleChannelChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register ChannelChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ServerChangedV1, m.handleServerChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register ServerChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserChangedV1, m.handleUserChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register UserChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.EmoteChangedV1, m.handleEmoteChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register EmoteChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.FriendChangedV1, m.handleFriendChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register FriendChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ConversationChangedV1, m.handleConversationChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register ConversationChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ActivityChangedV1, m.handleActivityChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register ActivityChanged consumer: %w", err)
	}

	m.logger.Info("registered change feed watchers",
		"entities", "message, category, channel, server, user, emote, friend, conversation, activity")
	return nil
}

// Start wires the session binder once dependencies are in place.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("store port not set")
	}
	if m.members == nil {
		return fmt.Errorf("membership port not set")
	}
	m.sessions = NewSessions(m.hub, m.members, m.logger)
	m.logger.Info("realtime module started")
	return nil
}

// Stop closes every client connection.
func (m *Module) Stop(_ context.Context) error {
	clients := m.hub.ClientCount()
	m.hub.CloseAll()
	m.logger.Info("realtime module stopped", "disconnectedClients", clients)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}
