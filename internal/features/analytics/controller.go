package analytics

import (
	"crm-support/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsController struct {
	AnalyticsService AnalyticsService
}

func NewAnalyticsController(analyticsService AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		AnalyticsService: analyticsService,
	}
}

func (ctrl *AnalyticsController) TicketsByStatus(c *fiber.Ctx) error {
	counts, err := ctrl.AnalyticsService.TicketsByStatus(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(counts)
}

func (ctrl *AnalyticsController) TicketsByPriority(c *fiber.Ctx) error {
	counts, err := ctrl.AnalyticsService.TicketsByPriority(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(counts)
}

func (ctrl *AnalyticsController) TechnicianPerformance(c *fiber.Ctx) error {
	summaries, err := ctrl.AnalyticsService.TechnicianSummaries(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(summaries)
}
