package system

import (
	"go-dashboard/internal/config"
	"go-dashboard/internal/features/handlers"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SessionCounter reports how many dashboard sessions are open.
type SessionCounter interface {
	SessionCount() int
}

type SystemController struct {
	config   *config.Config
	sessions SessionCounter
	handlers *handlers.Registry
	plugins  *plugin.Registry
}

func NewSystemController(cfg *config.Config, sessions SessionCounter, handlerRegistry *handlers.Registry, plugins *plugin.Registry) *SystemController {
	return &SystemController{
		config:   cfg,
		sessions: sessions,
		handlers: handlerRegistry,
		plugins:  plugins,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/health [get]
func (h *SystemController) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"backend":   h.config.Backend,
		"workspace": h.config.WorkspaceID,
		"sessions":  h.sessions.SessionCount(),
	})
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the current user's info from JWT
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (h *SystemController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims, ok := middleware.Claims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return ctx.JSON(fiber.Map{
		"user_id":    claims.UserID,
		"workspaces": claims.Workspaces,
		"message":    "This is your current JWT token data",
	})
}

// ListCommands godoc
// @Summary      List command types
// @Description  Built-in and plugin command types the sessions accept
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/commands [get]
func (h *SystemController) ListCommands(ctx *fiber.Ctx) error {
	plugins := []string{}
	if h.plugins != nil {
		plugins = h.plugins.Types()
	}
	return ctx.JSON(fiber.Map{
		"builtin": h.handlers.Types(),
		"plugins": plugins,
	})
}
