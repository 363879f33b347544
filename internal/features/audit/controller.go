package audit

import (
	"strconv"

	"go-dashboard/pkg/objref"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary List audit logs of a dashboard
// @Tags audit
// @Produce json
// @Param id path string true "Dashboard identifier"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} AuditLog
// @Router /api/dashboards/{id}/audit [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	logs, err := ctrl.Service.ListLogs(c.UserContext(), objref.IDRef(c.Params("id")), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(logs)
}
