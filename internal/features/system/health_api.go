package system

import (
	"go-dashboard/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	Controller *SystemController
}

func NewHealthApi(controller *SystemController) api.Route {
	return &HealthApi{Controller: controller}
}

// Setup registers health check route
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", h.Controller.HealthCheck)
}
