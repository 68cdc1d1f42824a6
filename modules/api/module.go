package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/chat-backend/modules/realtime"
	"github.com/example/chat-backend/modules/store"
)

// APIModule is the HTTP surface: the REST write path that drives the change
// feed, plus the WebSocket endpoint speaking the realtime signal protocol.
type APIModule struct {
	app      *fiber.App
	store    *store.Module
	auth     AuthPort
	realtime *realtime.Module
	logger   types.Logger
	port     string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(logger types.Logger) *APIModule {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &APIModule{
		port:   port,
		logger: logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// SetStore injects the store module (called from main.go; the read path is
// not exposed via the service container).
func (m *APIModule) SetStore(s *store.Module) {
	m.store = s
}

// SetAuth injects the bearer-token checker.
func (m *APIModule) SetAuth(a AuthPort) {
	m.auth = a
}

// SetRealtime injects the realtime module for the WebSocket endpoint.
func (m *APIModule) SetRealtime(rt *realtime.Module) {
	m.realtime = rt
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("store dependency not set")
	}
	if m.auth == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.realtime == nil {
		return fmt.Errorf("realtime dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(m.loggerMiddleware())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("shutting down HTTP server")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	api := m.app.Group("/api/v1")

	api.Post("/auth/register", m.register)
	api.Post("/auth/login", m.login)

	api.Use(AuthMiddleware(m.auth))

	api.Get("/users/:id", m.getUser)
	api.Put("/users/:id", m.updateUser)

	api.Post("/servers", m.createServer)
	api.Get("/servers/:id", m.getServer)
	api.Put("/servers/:id", m.updateServer)
	api.Post("/servers/:id/members", m.addServerMember)
	api.Delete("/servers/:id/members/:userId", m.removeServerMember)

	api.Post("/servers/:id/categories", m.createCategory)
	api.Put("/categories/:id", m.updateCategory)
	api.Delete("/categories/:id", m.deleteCategory)

	api.Post("/servers/:id/channels", m.createChannel)
	api.Put("/channels/:id", m.updateChannel)
	api.Delete("/channels/:id", m.deleteChannel)

	api.Get("/channels/:id/messages", m.channelMessages)
	api.Post("/channels/:id/messages", m.createChannelMessage)
	api.Put("/messages/:id", m.updateMessage)
	api.Delete("/messages/:id", m.deleteMessage)
	api.Post("/messages/:id/reactions/:emoteId", m.addReaction)
	api.Delete("/messages/:id/reactions/:emoteId", m.removeReaction)

	api.Get("/emotes", m.listEmotes)
	api.Post("/emotes", m.createEmote)
	api.Get("/emotes/:id", m.getEmote)
	api.Put("/emotes/:id", m.updateEmote)
	api.Delete("/emotes/:id", m.deleteEmote)

	api.Post("/conversations", m.createConversation)
	api.Get("/conversations", m.listConversations)
	api.Get("/conversations/:id/messages", m.conversationMessages)
	api.Post("/conversations/:id/messages", m.createConversationMessage)

	api.Post("/friends", m.createFriend)
	api.Get("/friends", m.listFriends)
	api.Put("/friends/:id", m.acceptFriend)
	api.Delete("/friends/:id", m.deleteFriend)

	api.Put("/activity/:room", m.touchActivity)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.realtime.Hub().ClientCount(),
		},
	})
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func (m *APIModule) loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		m.logger.Debug("request",
			"method", c.Method(), "path", c.Path(), "status", c.Response().StatusCode())
		return err
	}
}
