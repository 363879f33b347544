package handlers

import (
	"sync"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/export"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"go.uber.org/zap"
)

// ExportScheduler keeps scheduled exports running while they exist.
type ExportScheduler interface {
	Add(a models.Automation) error
	Remove(ref objref.ObjRef)
}

// Env is what handlers of one dashboard session work with.
type Env struct {
	Store     *store.Store
	Queries   *queries.Queries
	Workspace backend.Workspace
	Logger    *zap.Logger
	Plugins   *plugin.Registry
	Exporter  export.ExportService
	Scheduler ExportScheduler

	// BaseResolver maps identifiers to URIs for objects the catalog does not list.
	BaseResolver objref.Resolver

	// Dashboard is the ref the session was opened for; zero for a new dashboard.
	Dashboard objref.ObjRef
	SessionID string
	Now       func() time.Time

	// Sink receives every event, already stamped.
	Sink func(events.Event)

	mu          sync.Mutex
	catalogRes  objref.Resolver
	catalogTime time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Resolver resolves through the loaded catalog first and the base resolver second.
// It follows catalog refreshes.
func (e *Env) Resolver() objref.Resolver {
	return envResolver{e}
}

func (e *Env) current() objref.Resolver {
	s := e.Store.State()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.catalogRes == nil || !e.catalogTime.Equal(s.Catalog.LoadedAt) {
		e.catalogRes = s.Catalog.Catalog.Resolver()
		e.catalogTime = s.Catalog.LoadedAt
	}
	return objref.Chain(e.catalogRes, e.BaseResolver)
}

type envResolver struct{ e *Env }

func (r envResolver) IdentifierOf(uri string) (string, bool) {
	return r.e.current().IdentifierOf(uri)
}

func (r envResolver) URIOf(identifier string) (string, bool) {
	return r.e.current().URIOf(identifier)
}

// Context describes the session for events. A dashboard saved for the first
// time is reported under its new identity.
func (e *Env) Context() events.DashboardContext {
	ref := e.Dashboard
	if meta := e.Store.State().Meta.Identity; meta.Identifier != "" || meta.URI != "" {
		ref = meta.Ref()
	}
	wsID := ""
	if e.Workspace != nil {
		wsID = e.Workspace.ID()
	}
	return events.DashboardContext{WorkspaceID: wsID, Dashboard: ref, SessionID: e.SessionID}
}

// Emit stamps evt with the command's correlation id and the session context
// and hands it to the sink.
func (e *Env) Emit(cmd commands.Command, evt events.Event) events.Event {
	evt.CorrelationID = cmd.CorrelationID
	evt.Ctx = e.Context()
	evt.Timestamp = e.now()
	if e.Sink != nil {
		e.Sink(evt)
	}
	return evt
}

// MeasureTitle lets date dataset queries prefer datasets named like the measure.
func (e *Env) MeasureTitle(ref objref.ObjRef) (string, bool) {
	m, ok := store.SelectCatalogMeasure(e.Store.State(), ref, e.Resolver())
	if !ok {
		return "", false
	}
	return m.Title, true
}
