package presence

import (
	"crm-support/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const identityKey = "presenceIdentity"

type PresenceController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewPresenceController(hub *Hub, logger *zap.Logger) *PresenceController {
	return &PresenceController{
		Hub:    hub,
		Logger: logger,
	}
}

// Authenticate runs before the websocket upgrade. The client supplies the
// bearer token either as a `token` query parameter (the handshake style of
// browser clients) or a standard Authorization header. A bad token rejects
// the connection before it is ever registered.
func (ctrl *PresenceController) Authenticate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication token required",
		})
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	c.Locals(identityKey, Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	return c.Next()
}

// HandlePresence owns one connection: register, rebroadcast, then block on
// the read loop until the peer goes away.
func (ctrl *PresenceController) HandlePresence(c *websocket.Conn) {
	user, ok := c.Locals(identityKey).(Identity)
	if !ok {
		c.Close()
		return
	}

	connID := uuid.NewString()
	ctrl.Hub.Join(connID, user, c)

	defer func() {
		ctrl.Hub.Leave(connID)
		c.Close()
	}()

	// The roster protocol is push-only; inbound frames are drained so pings
	// and close frames are processed.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
