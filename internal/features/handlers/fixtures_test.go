package handlers

import (
	"context"
	"sync"
	"testing"

	"go-dashboard/internal/backend/inmemory"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func ident(id string) objref.Identity {
	return objref.Identity{Identifier: id, URI: inmemory.URIPrefix + id}
}

func kpi(id, measure string, dateDataSet string) *models.Widget {
	w := &models.Widget{
		Type:     models.WidgetKPI,
		Identity: objref.Identity{Identifier: id},
		Title:    id,
		KPI:      &models.KPIWidgetConfig{Metric: objref.IDRef(measure), ComparisonType: models.KPIComparisonNone},
	}
	if dateDataSet != "" {
		ref := objref.IDRef(dateDataSet)
		w.DateDataSet = &ref
	}
	return w
}

func insightWidget(id, insight string) *models.Widget {
	return &models.Widget{
		Type:     models.WidgetInsight,
		Identity: objref.Identity{Identifier: id},
		Title:    id,
		Insight:  &models.InsightWidgetConfig{Insight: objref.IDRef(insight)},
	}
}

// fixtures is a sales dashboard with KPI, insight and rich text widgets and
// State, City and Location attribute filters, City depending on State.
func fixtures() inmemory.Fixtures {
	return inmemory.Fixtures{
		Catalog: models.Catalog{
			Attributes: []models.CatalogAttribute{
				{Identity: ident("attr.state"), Title: "State", DisplayForms: []models.DisplayForm{
					{Identity: ident("label.state"), Title: "State", Attribute: "attr.state"},
				}},
				{Identity: ident("attr.city"), Title: "City", DisplayForms: []models.DisplayForm{
					{Identity: ident("label.city"), Title: "City", Attribute: "attr.city"},
				}},
				{Identity: ident("attr.location"), Title: "Location", DisplayForms: []models.DisplayForm{
					{Identity: ident("label.location"), Title: "Location", Attribute: "attr.location"},
					{Identity: ident("label.location.link"), Title: "Location link", Attribute: "attr.location", Type: models.DisplayFormTypeHyperlink},
				}},
			},
			Measures: []models.CatalogMeasure{
				{Identity: ident("revenue"), Title: "Revenue"},
				{Identity: ident("orders"), Title: "Orders"},
			},
			DateDatasets: []models.CatalogDateDataset{
				{Identity: ident("created_date"), Title: "Created", Relevance: 2},
				{Identity: ident("closed_date"), Title: "Closed", Relevance: 1},
			},
		},
		DateDatasetsByItem: map[string][]string{
			"revenue": {"closed_date"},
			"orders":  {"created_date", "closed_date"},
		},
		DateFilterConfig: models.DateFilterConfig{
			AllTime:      models.DateFilterOption{LocalIdentifier: "allTime", Visible: true},
			AbsoluteForm: models.DateFilterOption{LocalIdentifier: "absolute", Visible: true},
			RelativeForm: models.RelativeForm{
				DateFilterOption: models.DateFilterOption{LocalIdentifier: "relative", Visible: true},
				Granularities:    []models.DateGranularity{models.GranularityMonth, models.GranularityYear},
			},
		},
		Insights: []models.Insight{
			{
				Identity:   ident("ins.revenue"),
				Title:      "Revenue by state",
				Measures:   []models.InsightMeasure{{LocalIdentifier: "m1", Measure: objref.IDRef("revenue"), Title: "Revenue"}},
				Attributes: []models.InsightAttribute{{LocalIdentifier: "a1", DisplayForm: objref.IDRef("label.state")}},
			},
			{
				Identity: ident("ins.orders"),
				Title:    "Orders",
				Measures: []models.InsightMeasure{{LocalIdentifier: "m1", Measure: objref.IDRef("orders"), Title: "Orders"}},
			},
		},
		Dashboards: []models.Dashboard{{
			Identity: ident("dash"),
			Title:    "Sales",
			Layout: models.Layout{Sections: []models.Section{
				{
					Header: models.SectionHeader{Title: "KPIs"},
					Items: []models.Item{
						{Size: models.ItemSize{GridWidth: 4}, Widget: kpi("kpi.revenue", "revenue", "closed_date")},
						{Size: models.ItemSize{GridWidth: 4}, Widget: kpi("kpi.orders", "orders", "")},
						{Size: models.ItemSize{GridWidth: 4}, Widget: insightWidget("w.insight", "ins.revenue")},
					},
				},
				{
					Header: models.SectionHeader{Title: "Notes"},
					Items: []models.Item{
						{Size: models.ItemSize{GridWidth: 12}, Widget: &models.Widget{
							Type:     models.WidgetRichText,
							Identity: objref.Identity{Identifier: "w.text"},
							RichText: &models.RichTextWidgetConfig{Content: "hello"},
						}},
					},
				},
			}},
			FilterContext: models.FilterContext{Filters: []models.FilterContextItem{
				{DateFilter: &models.DateFilter{Type: models.DateFilterAllTime}},
				{AttributeFilter: &models.AttributeFilter{LocalIdentifier: "f.state", DisplayForm: objref.IDRef("label.state"), NegativeSelection: true, SelectionMode: models.SelectionMulti}},
				{AttributeFilter: &models.AttributeFilter{
					LocalIdentifier:   "f.city",
					DisplayForm:       objref.IDRef("label.city"),
					NegativeSelection: true,
					SelectionMode:     models.SelectionMulti,
					FilterElementsBy: []models.AttributeFilterParent{
						{FilterLocalIdentifier: "f.state", Over: models.ParentOver{Attributes: []objref.ObjRef{objref.IDRef("attr.state")}}},
					},
				}},
				{AttributeFilter: &models.AttributeFilter{LocalIdentifier: "f.location", DisplayForm: objref.IDRef("label.location"), NegativeSelection: true, SelectionMode: models.SelectionMulti}},
			}},
		}},
	}
}

type fakeScheduler struct {
	mu      sync.Mutex
	added   []models.Automation
	removed []objref.ObjRef
}

func (f *fakeScheduler) Add(a models.Automation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, a)
	return nil
}

func (f *fakeScheduler) Remove(ref objref.ObjRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ref)
}

type harness struct {
	t         *testing.T
	backend   *inmemory.Backend
	env       *Env
	registry  *Registry
	scheduler *fakeScheduler

	mu     sync.Mutex
	events []events.Event
}

func newHarness(t *testing.T, opts ...inmemory.Option) *harness {
	t.Helper()
	b := inmemory.New(fixtures(), opts...)
	ws := b.Workspace("ws")
	h := &harness{t: t, backend: b, registry: DefaultRegistry(), scheduler: &fakeScheduler{}}
	h.env = &Env{
		Store:        store.New(),
		Workspace:    ws,
		BaseResolver: objref.PrefixResolver(inmemory.URIPrefix),
		Dashboard:    objref.IDRef("dash"),
		SessionID:    "test-session",
		Scheduler:    h.scheduler,
		Sink:         h.record,
	}
	h.env.Queries = queries.New(ws, h.env.Resolver(), h.env)

	evt := h.run(commands.InitializeDashboard())
	require.Equal(t, events.DashboardInitialized, evt.Type, "initialize failed: %+v", evt.Payload)
	h.reset()
	return h
}

func (h *harness) record(evt events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
}

func (h *harness) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

func (h *harness) recorded(correlationID string) []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []events.Event
	for _, e := range h.events {
		if e.CorrelationID == correlationID {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) run(cmd commands.Command) events.Event {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	return h.registry.Process(context.Background(), h.env, cmd)
}

// mustSucceed runs cmd and fails the test on COMMAND.FAILED or REJECTED.
func (h *harness) mustSucceed(cmd commands.Command) events.Event {
	h.t.Helper()
	evt := h.run(cmd)
	require.NotEqual(h.t, events.CommandFailed, evt.Type, "%s failed: %+v", cmd.Type, evt.Payload)
	require.NotEqual(h.t, events.CommandRejected, evt.Type, "%s rejected", cmd.Type)
	return evt
}

func (h *harness) state() *store.State {
	return h.env.Store.State()
}

func (h *harness) widget(id string) models.Widget {
	h.t.Helper()
	_, w, ok := store.SelectWidgetByRef(h.state(), objref.IDRef(id), h.env.Resolver())
	require.True(h.t, ok, "widget %s not found", id)
	return w
}

func (h *harness) filter(localID string) models.AttributeFilter {
	h.t.Helper()
	f, _, ok := store.SelectAttributeFilterByLocalID(h.state(), localID)
	require.True(h.t, ok, "filter %s not found", localID)
	return f
}

func failureReason(t *testing.T, evt events.Event) events.Reason {
	t.Helper()
	require.Equal(t, events.CommandFailed, evt.Type)
	p, ok := evt.Payload.(events.CommandFailedPayload)
	require.True(t, ok)
	return p.Reason
}

func snapshot(t *testing.T, s *store.State) *store.State {
	t.Helper()
	c, err := store.Clone(s)
	require.NoError(t, err)
	return c
}
