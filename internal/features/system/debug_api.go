package system

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DebugApi struct {
	controller *SystemController
	config     *config.Config
}

func NewDebugApi(controller *SystemController, cfg *config.Config) api.Route {
	return &DebugApi{
		controller: controller,
		config:     cfg,
	}
}

// Setup registers debug routes
func (h *DebugApi) Setup(app *fiber.App) {
	debug := app.Group("/api/debug", middleware.AuthMiddleware(h.config.SkipAuth, h.config.JWTSecret))
	debug.Get("/me", h.controller.GetCurrentUser)
	debug.Get("/commands", h.controller.ListCommands)
}
