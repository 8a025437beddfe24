package middleware

import (
	"strings"

	"Backend-Attendance/src/utils"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID = "userId"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*utils.JWTClaims, error)
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), true
}

func setClaims(c *fiber.Ctx, claims *utils.JWTClaims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalEmail, claims.Email)
	c.Locals(LocalRole, claims.Role)
}

// AuthJWT rejects requests without a valid bearer token.
func AuthJWT(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing or invalid Authorization header"})
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token", "detail": err.Error()})
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuthJWT resolves identity when a valid token is present and lets
// the request through either way. The scan handler reports a missing
// identity as a scan result rather than a bare 401.
func OptionalAuthJWT(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(tokenStr); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// RequireRole must run after AuthJWT.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		if _, ok := allowed[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient role"})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
