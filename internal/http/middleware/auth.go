package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/auth"
)

const (
	// ClaimsLocalKey is the key under which Auth stores the verified claims.
	ClaimsLocalKey = "claims"
	// TokenLocalKey holds the raw bearer token, used by sign-out.
	TokenLocalKey = "token"
	// TokenQueryParam carries the token for clients that cannot set headers (EventSource).
	TokenQueryParam = "access_token"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid session token with 401.
// The token is read from "Authorization: Bearer <token>" or the access_token query parameter.
func Auth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query(TokenQueryParam)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(ClaimsLocalKey, claims)
		c.Locals(TokenLocalKey, token)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth, or nil.
func ClaimsFrom(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(ClaimsLocalKey).(*auth.Claims)
	return claims
}

// TokenFrom returns the raw token accepted by Auth.
func TokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(TokenLocalKey).(string)
	return token
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
