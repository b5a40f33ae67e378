package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// The error taxonomy every handler maps onto an HTTP status. Services wrap
// these sentinels with context via fmt.Errorf("...: %w", ...), controllers
// translate them with StatusCode.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state for this transition")
	ErrInvalidCode  = errors.New("invalid verification code")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusCode maps a service error to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidCode):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the error as the standard JSON error body.
func Respond(c *fiber.Ctx, err error) error {
	return c.Status(StatusCode(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
