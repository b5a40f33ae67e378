package ticket

import (
	"crm-support/internal/config"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TicketApi struct {
	controller *TicketController
	config     *config.Config
}

func NewTicketApi(controller *TicketController, config *config.Config) *TicketApi {
	return &TicketApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all ticket-related routes
func (h *TicketApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/tickets", auth, middleware.RequireRole("admin", "staff"), h.controller.CreateTicket)
	app.Get("/api/tickets", auth, middleware.RequireRole("admin", "staff"), h.controller.ListTickets)
	app.Get("/api/tickets/assigned", auth, middleware.RequireRole("technician"), h.controller.AssignedTickets)
	app.Get("/api/tickets/customer", auth, middleware.RequireRole("customer"), h.controller.CustomerTickets)
	app.Get("/api/tickets/:id", auth, h.controller.GetTicket)

	app.Put("/api/tickets/:id", auth, middleware.RequireRole("admin"), h.controller.AdminUpdate)
	app.Put("/api/tickets/:id/in-progress", auth, middleware.RequireRole("technician"), h.controller.StartProgress)
	app.Put("/api/tickets/:id/resolve", auth, middleware.RequireRole("technician"), h.controller.Resolve)
	app.Put("/api/tickets/:id/close", auth, middleware.RequireRole("admin", "staff"), h.controller.Close)
	app.Delete("/api/tickets/:id", auth, middleware.RequireRole("admin"), h.controller.DeleteTicket)
}
