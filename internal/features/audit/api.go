package audit

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) api.Route {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/dashboards", middleware.AuthMiddleware(h.config.SkipAuth, h.config.JWTSecret))

	audit.Get("/:id/audit", middleware.RequireWorkspace(h.config.SkipAuth, h.config.WorkspaceID), h.controller.ListLogs)
}
