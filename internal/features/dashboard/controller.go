package dashboard

import (
	"errors"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/session"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const eventBuffer = 256

type DashboardController struct {
	DashboardService DashboardService
	logger           *zap.Logger
}

func NewDashboardController(dashboardService DashboardService, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		logger:           logger,
	}
}

// eventStatus maps a terminal event to the HTTP status of the command response.
func eventStatus(evt events.Event) int {
	switch evt.Type {
	case events.CommandRejected:
		return fiber.StatusConflict
	case events.CommandFailed:
		p, _ := evt.Payload.(events.CommandFailedPayload)
		switch p.Reason {
		case events.ReasonUserError:
			return fiber.StatusUnprocessableEntity
		case events.ReasonNotSupported:
			return fiber.StatusNotImplemented
		}
		return fiber.StatusInternalServerError
	}
	return fiber.StatusOK
}

func sessionError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, session.ErrDisposed):
		return ctx.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Session is closed"})
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// OpenSession godoc
// @Summary Open dashboard session
// @Description Load a dashboard into a new session. Use "new" as id for an empty dashboard.
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard identifier"
// @Success 201 {object} SessionInfo
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards/{id}/sessions [post]
func (ctrl *DashboardController) OpenSession(ctx *fiber.Ctx) error {
	info, err := ctrl.DashboardService.OpenSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		var cmdErr *events.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Reason == events.ReasonUserError {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": cmdErr.Message})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(info)
}

// CloseSession godoc
// @Summary Close dashboard session
// @Tags dashboard
// @Param sid path string true "Session id"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/sessions/{sid} [delete]
func (ctrl *DashboardController) CloseSession(ctx *fiber.Ctx) error {
	if err := ctrl.DashboardService.CloseSession(ctx.Params("sid")); err != nil {
		return sessionError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// ExecuteCommand godoc
// @Summary Run a command
// @Description Dispatch a command to the session and return its terminal event
// @Tags dashboard
// @Accept json
// @Produce json
// @Param sid path string true "Session id"
// @Param command body CommandRequest true "Command"
// @Success 200 {object} events.Event
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} events.Event
// @Failure 422 {object} events.Event
// @Failure 501 {object} events.Event
// @Router /api/sessions/{sid}/commands [post]
func (ctrl *DashboardController) ExecuteCommand(ctx *fiber.Ctx) error {
	var req CommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Type == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "command type is required"})
	}

	evt, err := ctrl.DashboardService.Execute(ctx.UserContext(), ctx.Params("sid"), req)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrDisposed) {
			return sessionError(ctx, err)
		}
		if errors.Is(err, commands.ErrUnknownCommand) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(eventStatus(evt)).JSON(evt)
}

// GetState godoc
// @Summary Session state
// @Tags dashboard
// @Produce json
// @Param sid path string true "Session id"
// @Success 200 {object} StateView
// @Failure 404 {object} map[string]interface{}
// @Router /api/sessions/{sid}/state [get]
func (ctrl *DashboardController) GetState(ctx *fiber.Ctx) error {
	view, err := ctrl.DashboardService.State(ctx.Params("sid"))
	if err != nil {
		return sessionError(ctx, err)
	}
	return ctx.JSON(view)
}

// GetWidgetDateDatasets godoc
// @Summary Date datasets of a widget
// @Description Date datasets the KPI or insight widget can be filtered by
// @Tags dashboard
// @Produce json
// @Param sid path string true "Session id"
// @Param widget path string true "Widget identifier"
// @Success 200 {object} queries.DateDatasets
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/sessions/{sid}/widgets/{widget}/date-datasets [get]
func (ctrl *DashboardController) GetWidgetDateDatasets(ctx *fiber.Ctx) error {
	result, err := ctrl.DashboardService.WidgetDateDatasets(ctx.UserContext(), ctx.Params("sid"), ctx.Params("widget"))
	switch {
	case err == nil:
		return ctx.JSON(result)
	case errors.Is(err, ErrWidgetNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrWidgetWithoutDate):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return sessionError(ctx, err)
}

// StreamEvents pushes every event of the session to the websocket until
// either side closes.
func (ctrl *DashboardController) StreamEvents(c *websocket.Conn) {
	sid := c.Params("sid")
	stream, cancel, err := ctrl.DashboardService.Subscribe(sid, eventBuffer)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": err.Error()})
		return
	}
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-stream:
			if !ok {
				return
			}
			if err := c.WriteJSON(evt); err != nil {
				ctrl.logger.Debug("Event stream closed", zap.String("session", sid), zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
