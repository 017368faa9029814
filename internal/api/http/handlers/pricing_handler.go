package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/api/dto"
)

// PricingHandler serves the static upgrade catalog.
type PricingHandler struct{}

// NewPricingHandler constructs handler.
func NewPricingHandler() *PricingHandler {
	return &PricingHandler{}
}

// Get GET /api/pricing.
func (h *PricingHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.PricingResponse{
		Currency: "USD",
		Monthly:  dto.PriceOption{Price: 3, Interval: "month"},
		Yearly:   dto.PriceOption{Price: 30, Interval: "year"},
		Provider: "Dodo",
	}})
}
