package complaint

import (
	"crm-support/internal/config"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ComplaintApi struct {
	controller *ComplaintController
	config     *config.Config
}

func NewComplaintApi(controller *ComplaintController, config *config.Config) *ComplaintApi {
	return &ComplaintApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all complaint-related routes. Submission stays public so
// customers can file without an account; everything else is staff/admin.
func (h *ComplaintApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	staffOnly := middleware.RequireRole("admin", "staff")

	app.Post("/api/customer-complaints", h.controller.SubmitComplaint)
	app.Get("/api/customer-complaints", auth, staffOnly, h.controller.ListComplaints)
	app.Get("/api/customer-complaints/emails", auth, staffOnly, h.controller.CustomerEmails)
	app.Get("/api/customer-complaints/customer-details/:email", auth, staffOnly, h.controller.CustomerDetails)
	app.Get("/api/customer-complaints/:id", auth, staffOnly, h.controller.GetComplaint)
	app.Put("/api/customer-complaints/:id/status", auth, staffOnly, h.controller.UpdateStatus)
	app.Delete("/api/customer-complaints/:id", auth, staffOnly, h.controller.DeleteComplaint)
}
