package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/converter-service/internal/api/http/handlers"
	"github.com/spec-kit/converter-service/internal/entitlement"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Convert     *handlers.ConvertHandler
	License     *handlers.LicenseHandler
	Entitlement *handlers.EntitlementHandler
	Pricing     *handlers.PricingHandler
	Middleware  *entitlement.Middleware
	Limiter     *RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/convert", cfg.Middleware.ResolvePlan, cfg.Convert.Convert)
	api.Get("/pricing", cfg.Pricing.Get)

	licenseGroup := api.Group("", cfg.Limiter.Handle)
	licenseGroup.Post("/license/verify", cfg.License.Verify)
	licenseGroup.Post("/entitlement/refresh", cfg.License.Refresh)

	api.Get("/entitlement", cfg.Middleware.Require, cfg.Entitlement.Status)
}
