package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/api/dto"
	"github.com/spec-kit/converter-service/internal/entitlement"
	"github.com/spec-kit/converter-service/internal/service"
	apperrors "github.com/spec-kit/converter-service/pkg/util/errorutil"
)

// ConvertHandler exposes the unit conversion endpoint.
type ConvertHandler struct {
	service *service.ConversionService
}

// NewConvertHandler constructs handler.
func NewConvertHandler(conversionService *service.ConversionService) *ConvertHandler {
	return &ConvertHandler{service: conversionService}
}

// Convert POST /api/convert.
func (h *ConvertHandler) Convert(c *fiber.Ctx) error {
	var req dto.ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Value == nil || req.FromUnit == "" || req.ToUnit == "" {
		return apperrors.NewValidationError("value, from_unit and to_unit required", nil)
	}

	plan := entitlement.PlanFromContext(c)
	result, err := h.service.Convert(plan, *req.Value, req.FromUnit, req.ToUnit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.ConvertResponse{
		Result: result.Result,
		Plan:   string(result.Plan),
	}})
}
