package report

import (
	"fmt"
	"strconv"
	"time"

	"crm-support/internal/common/apperr"
	"crm-support/internal/features/ticket"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{
		ReportService: reportService,
	}
}

func queryFromCtx(c *fiber.Ctx) ReportQuery {
	q := ReportQuery{
		Status:     ticket.TicketStatus(c.Query("status")),
		AssignedTo: c.Query("assignedTo"),
		CreatedBy:  c.Query("createdBy"),
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			q.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			q.To = &t
		}
	}

	q.Page, _ = strconv.ParseInt(c.Query("page", "1"), 10, 64)
	q.Limit, _ = strconv.ParseInt(c.Query("limit", "10"), 10, 64)

	return q
}

func (ctrl *ReportController) TicketReport(c *fiber.Ctx) error {
	result, err := ctrl.ReportService.TicketReport(c.Context(), queryFromCtx(c))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(result)
}

func (ctrl *ReportController) ExportTicketReport(c *fiber.Ctx) error {
	data, filename, err := ctrl.ReportService.ExportTicketReport(c.Context(), queryFromCtx(c))
	if err != nil {
		return apperr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
