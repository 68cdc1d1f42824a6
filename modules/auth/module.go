package auth

import (
	"context"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module is the bearer-token checker the REST layer delegates to. Session
// management beyond issue/verify is out of scope.
type Module struct {
	jwt    *JWTManager
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)

// NewModule creates the auth module. The signing secret comes from
// JWT_SECRET; the development fallback is only suitable for local runs.
func NewModule(logger types.Logger) *Module {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-in-production"
	}
	return &Module{
		jwt: NewJWTManager(JWTConfig{
			SecretKey:     secret,
			TokenDuration: 24 * time.Hour,
			Issuer:        "chat-backend",
		}),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("auth module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	return nil
}

// IssueToken issues an access token for a user.
func (m *Module) IssueToken(userID, username string) (string, error) {
	return m.jwt.Generate(userID, username)
}

// VerifyToken validates a bearer token and returns its claims.
func (m *Module) VerifyToken(_ context.Context, token string) (*Claims, error) {
	return m.jwt.Verify(token)
}
