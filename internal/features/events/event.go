package events

import (
	"time"

	"go-dashboard/pkg/objref"
)

// DashboardContext identifies the session an event was emitted from.
type DashboardContext struct {
	WorkspaceID string        `json:"workspace"`
	Dashboard   objref.ObjRef `json:"dashboardRef"`
	SessionID   string        `json:"sessionId"`
}

// Event is a typed notification of a completed state change or of a command failure.
type Event struct {
	Type          string           `json:"type"`
	CorrelationID string           `json:"correlationId,omitempty"`
	Ctx           DashboardContext `json:"ctx"`
	Payload       any              `json:"payload"`
	Timestamp     time.Time        `json:"timestamp"`
}

func New(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

const (
	CommandStarted  = "GDC.DASH/EVT.COMMAND.STARTED"
	CommandFailed   = "GDC.DASH/EVT.COMMAND.FAILED"
	CommandRejected = "GDC.DASH/EVT.COMMAND.REJECTED"

	FilterContextChanged = "GDC.DASH/EVT.FILTER_CONTEXT.CHANGED"
	LayoutChanged        = "GDC.DASH/EVT.FLUID_LAYOUT.LAYOUT_CHANGED"
)

// IsTerminal reports whether the event concludes a command.
func IsTerminal(e Event) bool {
	switch e.Type {
	case CommandStarted, FilterContextChanged, LayoutChanged:
		return false
	}
	return true
}

type CommandStartedPayload struct {
	CommandType string `json:"commandType"`
}

type CommandRejectedPayload struct {
	CommandType string `json:"commandType"`
}
