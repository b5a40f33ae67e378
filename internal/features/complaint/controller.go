package complaint

import (
	"crm-support/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type ComplaintController struct {
	ComplaintService ComplaintService
}

func NewComplaintController(complaintService ComplaintService) *ComplaintController {
	return &ComplaintController{
		ComplaintService: complaintService,
	}
}

func (ctrl *ComplaintController) SubmitComplaint(c *fiber.Ctx) error {
	var complaint Complaint
	if err := c.BodyParser(&complaint); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.ComplaintService.SubmitComplaint(c.Context(), &complaint); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(complaint)
}

func (ctrl *ComplaintController) ListComplaints(c *fiber.Ctx) error {
	complaints, err := ctrl.ComplaintService.ListComplaints(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(complaints)
}

func (ctrl *ComplaintController) GetComplaint(c *fiber.Ctx) error {
	complaint, err := ctrl.ComplaintService.GetComplaint(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(complaint)
}

func (ctrl *ComplaintController) CustomerEmails(c *fiber.Ctx) error {
	emails, err := ctrl.ComplaintService.CustomerEmails(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{"emails": emails})
}

func (ctrl *ComplaintController) CustomerDetails(c *fiber.Ctx) error {
	name, phone, err := ctrl.ComplaintService.CustomerDetails(c.Context(), c.Params("email"))
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"name":  name,
		"phone": phone,
	})
}

func (ctrl *ComplaintController) UpdateStatus(c *fiber.Ctx) error {
	var input struct {
		Status ComplaintStatus `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	complaint, err := ctrl.ComplaintService.UpdateStatus(c.Context(), c.Params("id"), input.Status)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(complaint)
}

func (ctrl *ComplaintController) DeleteComplaint(c *fiber.Ctx) error {
	if err := ctrl.ComplaintService.DeleteComplaint(c.Context(), c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Complaint deleted successfully",
	})
}
