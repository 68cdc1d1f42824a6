package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/chat-backend/modules/auth"
)

// UserContextKey is the key used to store token claims in the Fiber context.
const UserContextKey = "user"

// AuthPort is everything the REST layer needs from the auth module.
type AuthPort interface {
	TokenVerifier
	IssueToken(userID, username string) (string, error)
}

// TokenVerifier is the bearer-token checker the REST layer delegates to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// callerID returns the authenticated user id from the request context.
func callerID(c *fiber.Ctx) string {
	claims, ok := c.Locals(UserContextKey).(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.UserID
}
