package analytics

import (
	"crm-support/internal/config"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsApi struct {
	controller *AnalyticsController
	config     *config.Config
}

func NewAnalyticsApi(controller *AnalyticsController, config *config.Config) *AnalyticsApi {
	return &AnalyticsApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers analytics routes
func (h *AnalyticsApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	staffOnly := middleware.RequireRole("admin", "staff")

	app.Get("/api/analytics/status", auth, staffOnly, h.controller.TicketsByStatus)
	app.Get("/api/analytics/priority", auth, staffOnly, h.controller.TicketsByPriority)
	app.Get("/api/analytics/technicians", auth, staffOnly, h.controller.TechnicianPerformance)
}
