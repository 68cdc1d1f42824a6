package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-backend/modules/api"
	"github.com/example/chat-backend/modules/auth"
	"github.com/example/chat-backend/modules/cache"
	"github.com/example/chat-backend/modules/realtime"
	"github.com/example/chat-backend/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	storeModule := store.NewModule(logger)
	authModule := auth.NewModule(logger)
	realtimeModule := realtime.NewModule(logger)
	apiModule := api.NewModule(logger)

	// The realtime module consumes change events from the bus but reads
	// documents straight from the store. The hub is likewise handed to the
	// API module directly because it is not exposed via ServiceContainer.
	realtimeModule.SetStore(storeModule)
	apiModule.SetStore(storeModule)
	apiModule.SetAuth(authModule)
	apiModule.SetRealtime(realtimeModule)

	// Profile caching is optional: without a Redis address every profile
	// read goes to the database.
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cacheModule := cache.NewModule(redisAddr, logger)
		realtimeModule.SetProfileCache(cacheModule)
		app.Register(cacheModule)
	}

	// Order: providers first, then consumers, then the HTTP surface.
	app.Register(storeModule)
	app.Register(authModule)
	app.Register(realtimeModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Storage: GORM + SQLite (DB_PATH, default chat.db)")
	log.Println("  - Change Feed: NATS JetStream (internal pubsub)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Printf("REST API (http://localhost:%s/api/v1):", port)
	log.Println("  POST   /auth/register, /auth/login")
	log.Println("  GET|PUT /users/:id")
	log.Println("  POST   /servers, GET|PUT /servers/:id, members, categories, channels")
	log.Println("  GET|POST /channels/:id/messages, PUT|DELETE /messages/:id")
	log.Println("  POST|DELETE /messages/:id/reactions/:emoteId")
	log.Println("  GET|POST /emotes, GET|PUT|DELETE /emotes/:id")
	log.Println("  GET|POST /conversations, /conversations/:id/messages")
	log.Println("  GET|POST /friends, PUT|DELETE /friends/:id")
	log.Println("  PUT    /activity/:room")
	log.Println("")
	log.Printf("WebSocket Endpoint: ws://localhost:%s/ws", port)
	log.Println("  Signals: authentication, deauthentication, join, leave, join room, typing")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
