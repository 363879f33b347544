package automation

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AutomationApi struct {
	controller *AutomationController
	config     *config.Config
}

func NewAutomationApi(controller *AutomationController, config *config.Config) api.Route {
	return &AutomationApi{
		controller: controller,
		config:     config,
	}
}

func (h *AutomationApi) Setup(app *fiber.App) {
	group := app.Group("/api/automations",
		middleware.AuthMiddleware(h.config.SkipAuth, h.config.JWTSecret),
		middleware.RequireWorkspace(h.config.SkipAuth, h.config.WorkspaceID),
	)

	group.Get("/scheduled", h.controller.ListScheduled)
	group.Post("/:id/run", h.controller.RunNow)
}
