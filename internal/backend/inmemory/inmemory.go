package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/google/uuid"
)

// URIPrefix is the URI form the in-memory backend gives to generated objects.
const URIPrefix = "/gdc/md/"

// Fixtures is the content every workspace of the backend starts with.
type Fixtures = backend.Fixtures

type Option func(*Backend)

// WithLatency delays every call. The delay honours context cancellation.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

func WithResolver(res objref.Resolver) Option {
	return func(b *Backend) { b.resolver = res }
}

// Backend keeps workspaces in memory and counts calls per operation.
// Safe for concurrent use.
type Backend struct {
	mu         sync.Mutex
	fixtures   Fixtures
	workspaces map[string]*workspace
	latency    time.Duration
	resolver   objref.Resolver
	calls      map[string]int
	faults     map[string]error
	hooks      map[string]func()
}

func New(fixtures Fixtures, opts ...Option) *Backend {
	b := &Backend{
		fixtures:   fixtures,
		workspaces: make(map[string]*workspace),
		resolver:   objref.PrefixResolver(URIPrefix),
		calls:      make(map[string]int),
		faults:     make(map[string]error),
		hooks:      make(map[string]func()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Workspace(id string) backend.Workspace {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws, ok := b.workspaces[id]
	if !ok {
		ws = newWorkspace(b, id)
		b.workspaces[id] = ws
	}
	return ws
}

// Calls reports how many times op was called, e.g. "execution.probe".
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// FailOn makes every following call of op return err. A nil err clears the fault.
func (b *Backend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.faults, op)
		return
	}
	b.faults[op] = err
}

// OnCall runs fn every time op is entered, before the latency delay.
func (b *Backend) OnCall(op string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[op] = fn
}

func (b *Backend) call(ctx context.Context, op string) error {
	b.mu.Lock()
	b.calls[op]++
	fault := b.faults[op]
	hook := b.hooks[op]
	latency := b.latency
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fault
}

type workspace struct {
	b  *Backend
	id string

	mu          sync.RWMutex
	dashboards  []models.Dashboard
	insights    []models.Insight
	catalog     models.Catalog
	dateConfig  models.DateFilterConfig
	automations []models.Automation
	probeIndex  map[string][]string
	resolver    objref.Resolver
}

func newWorkspace(b *Backend, id string) *workspace {
	ws := &workspace{
		b:           b,
		id:          id,
		dashboards:  append([]models.Dashboard(nil), b.fixtures.Dashboards...),
		insights:    append([]models.Insight(nil), b.fixtures.Insights...),
		catalog:     b.fixtures.Catalog,
		dateConfig:  b.fixtures.DateFilterConfig,
		automations: append([]models.Automation(nil), b.fixtures.Automations...),
		probeIndex:  b.fixtures.DateDatasetsByItem,
	}
	ws.resolver = objref.Chain(ws.catalog.Resolver(), b.resolver)
	return ws
}

func (w *workspace) ID() string                                  { return w.id }
func (w *workspace) Dashboards() backend.Dashboards              { return dashboards{w} }
func (w *workspace) Insights() backend.Insights                  { return insights{w} }
func (w *workspace) Attributes() backend.Attributes              { return attributes{w} }
func (w *workspace) Catalog() backend.Catalog                    { return catalog{w} }
func (w *workspace) Execution() backend.Execution                { return execution{w} }
func (w *workspace) Automations() backend.Automations            { return automations{w} }
func (w *workspace) DateFilterConfig() backend.DateFilterConfigs { return dateFilterConfigs{w} }

func (w *workspace) newIdentity() objref.Identity {
	id := uuid.NewString()
	return objref.Identity{Identifier: id, URI: URIPrefix + id}
}

type dashboards struct{ w *workspace }

func (d dashboards) Get(ctx context.Context, ref objref.ObjRef) (models.Dashboard, error) {
	if err := d.w.b.call(ctx, "dashboards.get"); err != nil {
		return models.Dashboard{}, err
	}
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	for _, doc := range d.w.dashboards {
		if doc.Identity.Matches(ref, d.w.resolver) {
			return doc, nil
		}
	}
	return models.Dashboard{}, fmt.Errorf("dashboard %s: %w", ref, backend.ErrNotFound)
}

func (d dashboards) Save(ctx context.Context, doc models.Dashboard) (models.Dashboard, error) {
	if err := d.w.b.call(ctx, "dashboards.save"); err != nil {
		return models.Dashboard{}, err
	}
	d.w.mu.Lock()
	defer d.w.mu.Unlock()

	now := time.Now().UTC()
	doc.UpdatedAt = now
	if doc.Identifier == "" && doc.URI == "" {
		doc.Identity = d.w.newIdentity()
		doc.CreatedAt = now
		d.w.dashboards = append(d.w.dashboards, doc)
		return doc, nil
	}
	for i, existing := range d.w.dashboards {
		if existing.Identity.Matches(doc.Identity.Ref(), d.w.resolver) {
			doc.CreatedAt = existing.CreatedAt
			d.w.dashboards[i] = doc
			return doc, nil
		}
	}
	return models.Dashboard{}, fmt.Errorf("dashboard %s: %w", doc.Identity.Ref(), backend.ErrNotFound)
}

func (d dashboards) List(ctx context.Context) ([]models.DashboardDescriptor, error) {
	if err := d.w.b.call(ctx, "dashboards.list"); err != nil {
		return nil, err
	}
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	out := make([]models.DashboardDescriptor, 0, len(d.w.dashboards))
	for _, doc := range d.w.dashboards {
		out = append(out, models.DashboardDescriptor{Identity: doc.Identity, Title: doc.Title, UpdatedAt: doc.UpdatedAt})
	}
	return out, nil
}

type insights struct{ w *workspace }

func (i insights) Get(ctx context.Context, ref objref.ObjRef) (models.Insight, error) {
	if err := i.w.b.call(ctx, "insights.get"); err != nil {
		return models.Insight{}, err
	}
	i.w.mu.RLock()
	defer i.w.mu.RUnlock()
	for _, insight := range i.w.insights {
		if insight.Identity.Matches(ref, i.w.resolver) {
			return insight, nil
		}
	}
	return models.Insight{}, fmt.Errorf("insight %s: %w", ref, backend.ErrNotFound)
}

type attributes struct{ w *workspace }

func (a attributes) DisplayForm(ctx context.Context, ref objref.ObjRef) (models.DisplayForm, error) {
	if err := a.w.b.call(ctx, "attributes.displayForm"); err != nil {
		return models.DisplayForm{}, err
	}
	a.w.mu.RLock()
	defer a.w.mu.RUnlock()
	for _, attr := range a.w.catalog.Attributes {
		for _, df := range attr.DisplayForms {
			if df.Identity.Matches(ref, a.w.resolver) {
				return df, nil
			}
		}
	}
	return models.DisplayForm{}, fmt.Errorf("display form %s: %w", ref, backend.ErrNotFound)
}

type catalog struct{ w *workspace }

func (c catalog) Load(ctx context.Context) (models.Catalog, error) {
	if err := c.w.b.call(ctx, "catalog.load"); err != nil {
		return models.Catalog{}, err
	}
	c.w.mu.RLock()
	defer c.w.mu.RUnlock()
	return c.w.catalog, nil
}

type execution struct{ w *workspace }

// Probe answers with every date dataset linked to any of the probed items, in catalog order.
func (e execution) Probe(ctx context.Context, def models.ProbeDefinition) (models.ProbeResult, error) {
	if err := e.w.b.call(ctx, "execution.probe"); err != nil {
		return models.ProbeResult{}, err
	}
	e.w.mu.RLock()
	defer e.w.mu.RUnlock()

	linked := map[string]bool{}
	for _, ref := range append(append([]objref.ObjRef(nil), def.Measures...), def.Attributes...) {
		key := objref.Canonical(ref, e.w.resolver).Identifier
		for _, id := range e.w.probeIndex[key] {
			linked[id] = true
		}
	}

	out := models.ProbeResult{DateDatasets: []models.CatalogDateDataset{}}
	for _, ds := range e.w.catalog.DateDatasets {
		if linked[ds.Identifier] {
			out.DateDatasets = append(out.DateDatasets, ds)
		}
	}
	return out, nil
}

type automations struct{ w *workspace }

func (a automations) List(ctx context.Context, dashboard objref.ObjRef) ([]models.Automation, error) {
	if err := a.w.b.call(ctx, "automations.list"); err != nil {
		return nil, err
	}
	a.w.mu.RLock()
	defer a.w.mu.RUnlock()
	out := []models.Automation{}
	for _, item := range a.w.automations {
		if objref.Equal(item.Dashboard, dashboard, a.w.resolver) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (a automations) ListScheduled(ctx context.Context) ([]models.Automation, error) {
	if err := a.w.b.call(ctx, "automations.listScheduled"); err != nil {
		return nil, err
	}
	a.w.mu.RLock()
	defer a.w.mu.RUnlock()
	out := []models.Automation{}
	for _, item := range a.w.automations {
		if item.Type == models.AutomationScheduledExport && item.Schedule != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (a automations) Create(ctx context.Context, item models.Automation) (models.Automation, error) {
	if err := a.w.b.call(ctx, "automations.create"); err != nil {
		return models.Automation{}, err
	}
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if item.Identifier == "" && item.URI == "" {
		item.Identity = a.w.newIdentity()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	a.w.automations = append(a.w.automations, item)
	return item, nil
}

func (a automations) Update(ctx context.Context, item models.Automation) (models.Automation, error) {
	if err := a.w.b.call(ctx, "automations.update"); err != nil {
		return models.Automation{}, err
	}
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	i := a.indexOf(item.Identity.Ref())
	if i < 0 {
		return models.Automation{}, fmt.Errorf("automation %s: %w", item.Identity.Ref(), backend.ErrNotFound)
	}
	item.Identity = a.w.automations[i].Identity
	item.CreatedAt = a.w.automations[i].CreatedAt
	item.UpdatedAt = time.Now().UTC()
	a.w.automations[i] = item
	return item, nil
}

func (a automations) Delete(ctx context.Context, ref objref.ObjRef) error {
	if err := a.w.b.call(ctx, "automations.delete"); err != nil {
		return err
	}
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	i := a.indexOf(ref)
	if i < 0 {
		return fmt.Errorf("automation %s: %w", ref, backend.ErrNotFound)
	}
	a.w.automations = append(a.w.automations[:i:i], a.w.automations[i+1:]...)
	return nil
}

func (a automations) RecordRun(ctx context.Context, ref objref.ObjRef, last, next time.Time) error {
	if err := a.w.b.call(ctx, "automations.recordRun"); err != nil {
		return err
	}
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	i := a.indexOf(ref)
	if i < 0 {
		return fmt.Errorf("automation %s: %w", ref, backend.ErrNotFound)
	}
	a.w.automations[i].LastRun = &last
	a.w.automations[i].NextRun = &next
	return nil
}

func (a automations) indexOf(ref objref.ObjRef) int {
	for i, item := range a.w.automations {
		if item.Identity.Matches(ref, a.w.resolver) {
			return i
		}
	}
	return -1
}

type dateFilterConfigs struct{ w *workspace }

func (d dateFilterConfigs) Get(ctx context.Context) (models.DateFilterConfig, error) {
	if err := d.w.b.call(ctx, "dateFilterConfig.get"); err != nil {
		return models.DateFilterConfig{}, err
	}
	d.w.mu.RLock()
	defer d.w.mu.RUnlock()
	return d.w.dateConfig, nil
}
