package signup

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is where validated claims land in the request locals.
const DefaultContextKey = "signup_session"

const authScheme = "Bearer"

// Protected guards a route with bearer-token validation. Claims from a
// valid token are stored under DefaultContextKey for downstream handlers.
func Protected(tokens TokenService) fiber.Handler {
	return ProtectedWithKey(tokens, DefaultContextKey)
}

// ProtectedWithKey is Protected with a custom locals key.
func ProtectedWithKey(tokens TokenService, contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "missing or malformed JWT",
			})
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "invalid or expired session token",
			})
		}

		c.Locals(contextKey, claims)
		return c.Next()
	}
}

// ClaimsFromContext retrieves the claims a Protected middleware stored.
func ClaimsFromContext(c *fiber.Ctx) (AuthClaims, bool) {
	claims, ok := c.Locals(DefaultContextKey).(AuthClaims)
	return claims, ok
}

func tokenFromHeader(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
