package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	chat "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
)

// ServiceConversationsOf is the request-reply membership lookup consumed by
// the realtime module at session bind time.
const ServiceConversationsOf = "conversations_of"

// Module owns persistence for every chat aggregate. Every committed write
// publishes a change event; that feed is the only coupling between the
// write path and the realtime core.
type Module struct {
	db       *gorm.DB
	repo     *Repository
	eventBus mono.EventBus
	logger   types.Logger
	dbPath   string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the store module.
func NewModule(log types.Logger) *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: log,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the change feed this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageChangedV1.ToBase(),
		events.CategoryChangedV1.ToBase(),
		events.ChannelChangedV1.ToBase(),
		events.ServerChangedV1.ToBase(),
		events.UserChangedV1.ToBase(),
		events.EmoteChangedV1.ToBase(),
		events.FriendChangedV1.ToBase(),
		events.ConversationChangedV1.ToBase(),
		events.ActivityChangedV1.ToBase(),
	}
}

// RegisterServices registers the membership lookup service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceConversationsOf, json.Unmarshal, json.Marshal, m.conversationsOf,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceConversationsOf, err)
	}
	m.logger.Info("registered store services", "services", ServiceConversationsOf)
	return nil
}

// ConversationsOfRequest is the membership lookup request.
type ConversationsOfRequest struct {
	UserID string `json:"user_id"`
}

// ConversationsOfResponse is the membership lookup response.
type ConversationsOfResponse struct {
	ConversationIDs []string `json:"conversation_ids"`
}

func (m *Module) conversationsOf(ctx context.Context, req ConversationsOfRequest, _ *mono.Msg) (ConversationsOfResponse, error) {
	if req.UserID == "" {
		return ConversationsOfResponse{}, fmt.Errorf("user_id is required")
	}
	ids, err := m.repo.ConversationsOf(ctx, req.UserID)
	if err != nil {
		return ConversationsOfResponse{}, err
	}
	return ConversationsOfResponse{ConversationIDs: ids}, nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	err = m.db.AutoMigrate(
		&chat.User{},
		&chat.Server{},
		&chat.ServerMember{},
		&chat.Category{},
		&chat.Channel{},
		&chat.Message{},
		&chat.Attachment{},
		&chat.Emote{},
		&chat.Reaction{},
		&chat.Conversation{},
		&chat.ConversationMember{},
		&chat.Friend{},
		&chat.Activity{},
		&chat.ActivityEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)
	m.logger.Info("store module started", "path", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	m.logger.Info("store module stopped")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// Repository exposes the read path for the API module.
func (m *Module) Repository() *Repository {
	return m.repo
}
