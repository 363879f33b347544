package backend

import (
	"context"
	"errors"
	"time"

	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

var ErrNotFound = errors.New("not found")

// Backend is the analytical backend the dashboard core talks to. Every call is
// a remote call that can block and fail.
type Backend interface {
	Workspace(id string) Workspace
}

type Workspace interface {
	ID() string
	Dashboards() Dashboards
	Insights() Insights
	Attributes() Attributes
	Catalog() Catalog
	Execution() Execution
	Automations() Automations
	DateFilterConfig() DateFilterConfigs
}

type Dashboards interface {
	Get(ctx context.Context, ref objref.ObjRef) (models.Dashboard, error)
	// Save creates the dashboard when it has no identity yet and returns the stored document.
	Save(ctx context.Context, doc models.Dashboard) (models.Dashboard, error)
	List(ctx context.Context) ([]models.DashboardDescriptor, error)
}

type Insights interface {
	Get(ctx context.Context, ref objref.ObjRef) (models.Insight, error)
}

type Attributes interface {
	DisplayForm(ctx context.Context, ref objref.ObjRef) (models.DisplayForm, error)
}

type Catalog interface {
	Load(ctx context.Context) (models.Catalog, error)
}

// Execution runs executions; the core only uses it to probe date dataset availability.
type Execution interface {
	Probe(ctx context.Context, def models.ProbeDefinition) (models.ProbeResult, error)
}

type Automations interface {
	List(ctx context.Context, dashboard objref.ObjRef) ([]models.Automation, error)
	ListScheduled(ctx context.Context) ([]models.Automation, error)
	Create(ctx context.Context, a models.Automation) (models.Automation, error)
	Update(ctx context.Context, a models.Automation) (models.Automation, error)
	Delete(ctx context.Context, ref objref.ObjRef) error
	RecordRun(ctx context.Context, ref objref.ObjRef, last, next time.Time) error
}

type DateFilterConfigs interface {
	Get(ctx context.Context) (models.DateFilterConfig, error)
}
