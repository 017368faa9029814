package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/api/dto"
	"github.com/spec-kit/converter-service/internal/service"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

// LicenseHandler exposes license verification and entitlement refresh.
type LicenseHandler struct {
	service *service.LicenseService
}

// NewLicenseHandler constructs handler.
func NewLicenseHandler(licenseService *service.LicenseService) *LicenseHandler {
	return &LicenseHandler{service: licenseService}
}

// Verify POST /api/license/verify.
func (h *LicenseHandler) Verify(c *fiber.Ctx) error {
	var req dto.LicenseVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.LicenseKey) == "" {
		return apperrors.NewValidationError("license_key required", nil)
	}

	grant, err := h.service.VerifyLicense(c.Context(), req.LicenseKey, req.UserEmail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tokenResponse(grant)})
}

// Refresh POST /api/entitlement/refresh.
func (h *LicenseHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EntitlementToken == "" {
		return apperrors.NewValidationError("entitlement_token required", nil)
	}

	grant, err := h.service.Refresh(c.Context(), req.EntitlementToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tokenResponse(grant)})
}

func tokenResponse(grant *service.EntitlementGrant) dto.EntitlementTokenResponse {
	return dto.EntitlementTokenResponse{
		EntitlementToken: grant.Token,
		Plan:             string(grant.Plan),
		ExpiresAt:        grant.ExpiresAt.Unix(),
	}
}
