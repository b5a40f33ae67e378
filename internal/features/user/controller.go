package user

import (
	"crm-support/internal/common/apperr"
	"crm-support/internal/common/models"
	"crm-support/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	UserService UserService
}

func NewUserController(userService UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	role := models.Role(c.Query("role"))

	users, err := ctrl.UserService.ListUsers(c.Context(), role)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(users)
}

func (ctrl *UserController) Me(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return apperr.Respond(c, apperr.ErrUnauthorized)
	}

	user, err := ctrl.UserService.GetUser(c.Context(), claims.UserID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(user)
}
