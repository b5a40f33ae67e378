package ticket

import (
	"crm-support/internal/common/apperr"
	"crm-support/internal/common/models"
	"crm-support/internal/middleware"
	"crm-support/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketController struct {
	TicketService TicketService
}

func NewTicketController(ticketService TicketService) *TicketController {
	return &TicketController{
		TicketService: ticketService,
	}
}

func actorFromClaims(claims *utils.UserClaims) (Actor, error) {
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Actor{}, apperr.ErrUnauthorized
	}
	return Actor{
		ID:    id,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  models.Role(claims.Role),
	}, nil
}

func (ctrl *TicketController) actor(c *fiber.Ctx) (Actor, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return Actor{}, apperr.ErrUnauthorized
	}
	return actorFromClaims(claims)
}

func (ctrl *TicketController) CreateTicket(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var req CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	t, err := ctrl.TicketService.CreateTicket(c.Context(), actor, req)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

func (ctrl *TicketController) ListTickets(c *fiber.Ctx) error {
	tickets, err := ctrl.TicketService.ListTickets(c.Context(), TicketStatus(c.Query("status")), c.Query("sort"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(tickets)
}

func (ctrl *TicketController) GetTicket(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	t, err := ctrl.TicketService.GetTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(t)
}

func (ctrl *TicketController) AssignedTickets(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	tickets, err := ctrl.TicketService.AssignedTickets(c.Context(), actor)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(tickets)
}

func (ctrl *TicketController) CustomerTickets(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	tickets, err := ctrl.TicketService.CustomerTickets(c.Context(), actor)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(tickets)
}

func (ctrl *TicketController) AdminUpdate(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var input struct {
		Status     TicketStatus `json:"status"`
		AssignedTo string       `json:"assigned_to"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	t, err := ctrl.TicketService.AdminUpdate(c.Context(), actor, c.Params("id"), input.Status, input.AssignedTo)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(t)
}

func (ctrl *TicketController) StartProgress(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	t, err := ctrl.TicketService.StartProgress(c.Context(), actor, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Ticket marked as in-progress",
		"ticket":  t,
	})
}

func (ctrl *TicketController) Resolve(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	t, err := ctrl.TicketService.Resolve(c.Context(), actor, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Ticket marked as resolved",
		"ticket":  t,
	})
}

func (ctrl *TicketController) Close(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	t, err := ctrl.TicketService.Close(c.Context(), actor, c.Params("id"), input.Code)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Ticket marked as closed",
		"ticket":  t,
	})
}

func (ctrl *TicketController) DeleteTicket(c *fiber.Ctx) error {
	actor, err := ctrl.actor(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	if err := ctrl.TicketService.DeleteTicket(c.Context(), actor, c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Ticket deleted successfully",
	})
}
