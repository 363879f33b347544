package automation

import (
	"errors"

	"go-dashboard/pkg/objref"

	"github.com/gofiber/fiber/v2"
)

type AutomationController struct {
	Service SchedulerService
}

func NewAutomationController(service SchedulerService) *AutomationController {
	return &AutomationController{
		Service: service,
	}
}

// ListScheduled godoc
// @Summary List scheduled exports
// @Description List the scheduled exports registered in the scheduler with their next run
// @Tags automation
// @Produce json
// @Success 200 {array} ScheduledEntry
// @Router /api/automations/scheduled [get]
func (ctrl *AutomationController) ListScheduled(c *fiber.Ctx) error {
	return c.JSON(ctrl.Service.Entries())
}

// RunNow godoc
// @Summary Run scheduled export
// @Description Export the dashboard of a scheduled export and deliver it immediately
// @Tags automation
// @Produce json
// @Param id path string true "Automation identifier"
// @Success 202 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/automations/{id}/run [post]
func (ctrl *AutomationController) RunNow(c *fiber.Ctx) error {
	ref := objref.IDRef(c.Params("id"))
	if err := ctrl.Service.RunNow(c.UserContext(), ref); err != nil {
		if errors.Is(err, ErrNotScheduled) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scheduled export not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "delivered"})
}
