package user

import (
	"crm-support/internal/config"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all user-related routes
func (h *UserApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Get("/api/auth/me", auth, h.controller.Me)
	app.Get("/api/auth/users", auth, middleware.RequireRole("admin", "staff"), h.controller.ListUsers)
}
