package presence

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type PresenceApi struct {
	Controller *PresenceController
}

func NewPresenceApi(controller *PresenceController) *PresenceApi {
	return &PresenceApi{
		Controller: controller,
	}
}

// Setup registers the presence websocket route
func (h *PresenceApi) Setup(app *fiber.App) {
	app.Get("/ws", h.Controller.Authenticate, websocket.New(h.Controller.HandlePresence))
}
