package report

import (
	"crm-support/internal/config"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers report routes
func (h *ReportApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	// GET /api/reports?from=2024-01-01&to=2024-01-31&status=open&assignedTo=<id>&createdBy=<id>&page=2&limit=5
	app.Get("/api/reports", auth, middleware.RequireRole("admin", "staff"), h.controller.TicketReport)
	app.Get("/api/reports/export", auth, middleware.RequireRole("admin", "staff"), h.controller.ExportTicketReport)
}
