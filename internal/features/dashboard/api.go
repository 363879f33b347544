package dashboard

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	DashboardController *DashboardController
	Config              *config.Config
}

func NewDashboardApi(dashboardController *DashboardController, cfg *config.Config) api.Route {
	return &DashboardApi{
		DashboardController: dashboardController,
		Config:              cfg,
	}
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (api *DashboardApi) Setup(app *fiber.App) {
	auth := []fiber.Handler{
		middleware.AuthMiddleware(api.Config.SkipAuth, api.Config.JWTSecret),
		middleware.RequireWorkspace(api.Config.SkipAuth, api.Config.WorkspaceID),
	}

	dashboards := app.Group("/api/dashboards", auth...)
	dashboards.Post("/:id/sessions", api.DashboardController.OpenSession)

	sessions := app.Group("/api/sessions", auth...)
	sessions.Delete("/:sid", api.DashboardController.CloseSession)
	sessions.Post("/:sid/commands", api.DashboardController.ExecuteCommand)
	sessions.Get("/:sid/state", api.DashboardController.GetState)
	sessions.Get("/:sid/widgets/:widget/date-datasets", api.DashboardController.GetWidgetDateDatasets)
	sessions.Get("/:sid/events", upgradeOnly, websocket.New(api.DashboardController.StreamEvents))
}
