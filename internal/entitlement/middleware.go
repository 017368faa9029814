package entitlement

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/domain"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

const claimsContextKey = "entitlement_claims"

// Middleware resolves entitlement tokens on incoming requests.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware builds middleware around the given token manager.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// ResolvePlan parses an optional bearer token and stores the verified claims.
// Missing, expired or tampered tokens leave the caller on the free plan;
// pro-gated operations then reject with a payment-required error downstream.
func (m *Middleware) ResolvePlan(c *fiber.Ctx) error {
	if token := bearerToken(c); token != "" {
		if claims, err := m.tokens.Verify(token); err == nil {
			c.Locals(claimsContextKey, claims)
		}
	}
	return c.Next()
}

// Require rejects requests without a verified, unexpired entitlement token.
func (m *Middleware) Require(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperrors.NewTokenExpired()
		}
		return apperrors.NewInvalidToken("invalid entitlement token")
	}

	c.Locals(claimsContextKey, claims)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClaimsFromContext returns claims stored by ResolvePlan or Require.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsContextKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

// PlanFromContext returns the caller's effective plan, defaulting to free.
func PlanFromContext(c *fiber.Ctx) domain.Plan {
	if claims, ok := ClaimsFromContext(c); ok && claims.Plan.Valid() {
		return claims.Plan
	}
	return domain.PlanFree
}
