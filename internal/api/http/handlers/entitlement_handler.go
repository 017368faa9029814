package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/api/dto"
	"github.com/spec-kit/converter-service/internal/entitlement"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

// EntitlementHandler reports the verified claims behind the caller's token.
type EntitlementHandler struct{}

// NewEntitlementHandler constructs handler.
func NewEntitlementHandler() *EntitlementHandler {
	return &EntitlementHandler{}
}

// Status GET /api/entitlement.
func (h *EntitlementHandler) Status(c *fiber.Ctx) error {
	claims, ok := entitlement.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("entitlement token required")
	}

	ent := claims.Entitlement()
	return c.JSON(fiber.Map{"data": dto.EntitlementStatusResponse{
		Subject:   ent.Subject,
		Plan:      string(ent.Plan),
		LicenseID: ent.LicenseID,
		IssuedAt:  ent.IssuedAt,
		ExpiresAt: ent.ExpiresAt,
	}})
}
