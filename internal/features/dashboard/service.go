package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/session"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"go.uber.org/zap"
)

// NewDashboardID opens a session on a new, unsaved dashboard.
const NewDashboardID = "new"

var (
	ErrWidgetNotFound    = errors.New("widget not found")
	ErrWidgetWithoutDate = errors.New("widget cannot be filtered by date")
)

// CommandRequest is the wire shape of a command.
type CommandRequest struct {
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

type SessionInfo struct {
	ID        string        `json:"id"`
	Dashboard objref.ObjRef `json:"dashboard"`
	Title     string        `json:"title"`
}

// StateView is the read model of a session. DateDatasetQueries holds the
// cache status of the date dataset query of every KPI and insight widget.
type StateView struct {
	Session            string                     `json:"session"`
	Dashboard          models.Dashboard           `json:"dashboard"`
	Automations        []models.Automation        `json:"automations"`
	UndoCount          int                        `json:"undoCount"`
	DateDatasetQueries map[string]QueryStatusView `json:"dateDatasetQueries"`
}

type QueryStatusView struct {
	Status queries.Status `json:"status"`
	Error  string         `json:"error,omitempty"`
}

func queryStatusView[R any](e queries.Entry[R]) QueryStatusView {
	view := QueryStatusView{Status: e.Status}
	if e.Err != nil {
		view.Error = e.Err.Error()
	}
	return view
}

type DashboardService interface {
	OpenSession(ctx context.Context, dashboardID string) (SessionInfo, error)
	CloseSession(id string) error
	Execute(ctx context.Context, sessionID string, req CommandRequest) (events.Event, error)
	State(sessionID string) (StateView, error)
	WidgetDateDatasets(ctx context.Context, sessionID, widgetID string) (queries.DateDatasets, error)
	Subscribe(sessionID string, buffer int) (<-chan events.Event, func(), error)
	SessionCount() int
}

type DashboardServiceImpl struct {
	Manager *session.Manager
	logger  *zap.Logger
}

func NewDashboardService(manager *session.Manager, logger *zap.Logger) DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardServiceImpl{Manager: manager, logger: logger}
}

func (s *DashboardServiceImpl) OpenSession(ctx context.Context, dashboardID string) (SessionInfo, error) {
	var ref objref.ObjRef
	if dashboardID != NewDashboardID {
		ref = objref.IDRef(dashboardID)
	}
	sess, err := s.Manager.Open(ctx, ref)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		ID:        sess.ID(),
		Dashboard: sess.Dashboard(),
		Title:     sess.State().Meta.Title,
	}, nil
}

func (s *DashboardServiceImpl) CloseSession(id string) error {
	return s.Manager.Close(id)
}

// Execute decodes req and waits for its terminal event. Rejections and
// failures are returned as events.
func (s *DashboardServiceImpl) Execute(ctx context.Context, sessionID string, req CommandRequest) (events.Event, error) {
	sess, err := s.Manager.Get(sessionID)
	if err != nil {
		return events.Event{}, err
	}
	cmd, err := commands.Decode(req.Type, req.Payload, req.CorrelationID)
	if errors.Is(err, commands.ErrUnknownCommand) {
		cmd = commands.Command{Type: req.Type, CorrelationID: req.CorrelationID}
	} else if err != nil {
		return events.Event{}, err
	}
	return sess.DispatchAndWait(ctx, cmd)
}

func (s *DashboardServiceImpl) State(sessionID string) (StateView, error) {
	sess, err := s.Manager.Get(sessionID)
	if err != nil {
		return StateView{}, err
	}
	st := sess.State()
	automations := store.SelectAutomationsOfType(st, models.AutomationAlert)
	automations = append(automations, store.SelectAutomationsOfType(st, models.AutomationScheduledExport)...)
	return StateView{
		Session:            sess.ID(),
		Dashboard:          store.SelectDocument(st),
		Automations:        automations,
		UndoCount:          store.SelectUndoCount(st),
		DateDatasetQueries: dateDatasetQueryStatus(sess.Queries(), st),
	}, nil
}

func dateDatasetQueryStatus(q *queries.Queries, st *store.State) map[string]QueryStatusView {
	out := map[string]QueryStatusView{}
	for _, w := range store.SelectWidgetsInOrder(st) {
		switch {
		case w.Type == models.WidgetKPI && w.KPI != nil:
			out[w.Identifier] = queryStatusView(q.MeasureDateDatasets.Status(queries.DateDatasetsForMeasure{Measure: w.KPI.Metric}))
		case w.Type == models.WidgetInsight && w.Insight != nil:
			out[w.Identifier] = queryStatusView(q.InsightDateDatasets.Status(queries.DateDatasetsForInsight{Insight: w.Insight.Insight}))
		}
	}
	return out
}

// WidgetDateDatasets lists the date datasets a KPI or insight widget can be
// filtered by, served from the session query cache.
func (s *DashboardServiceImpl) WidgetDateDatasets(ctx context.Context, sessionID, widgetID string) (queries.DateDatasets, error) {
	sess, err := s.Manager.Get(sessionID)
	if err != nil {
		return queries.DateDatasets{}, err
	}
	_, w, ok := store.SelectWidgetByRef(sess.State(), objref.IDRef(widgetID), sess.Resolver())
	if !ok {
		return queries.DateDatasets{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	switch {
	case w.Type == models.WidgetKPI && w.KPI != nil:
		return sess.Queries().MeasureDateDatasets.Query(ctx, queries.DateDatasetsForMeasure{Measure: w.KPI.Metric})
	case w.Type == models.WidgetInsight && w.Insight != nil:
		return sess.Queries().InsightDateDatasets.Query(ctx, queries.DateDatasetsForInsight{Insight: w.Insight.Insight})
	}
	return queries.DateDatasets{}, fmt.Errorf("%w: %s is %s", ErrWidgetWithoutDate, widgetID, w.Type)
}

func (s *DashboardServiceImpl) Subscribe(sessionID string, buffer int) (<-chan events.Event, func(), error) {
	sess, err := s.Manager.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.Subscribe(buffer)
	return ch, cancel, nil
}

func (s *DashboardServiceImpl) SessionCount() int {
	return len(s.Manager.IDs())
}
