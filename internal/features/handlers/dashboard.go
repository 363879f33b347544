package handlers

import (
	"context"
	"errors"
	"strings"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func initializeDashboard(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	if _, err := payload[commands.InitializePayload](cmd); err != nil {
		return events.Event{}, err
	}

	var (
		doc         models.Dashboard
		catalog     models.Catalog
		dateConfig  models.DateFilterConfig
		automations []models.Automation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if env.Dashboard.IsZero() {
			return nil
		}
		loaded, err := env.Workspace.Dashboards().Get(gctx, env.Dashboard)
		if errors.Is(err, backend.ErrNotFound) {
			return events.InvalidArgs("dashboard %s does not exist", env.Dashboard)
		}
		if err != nil {
			return events.Internal(err, "failed to load dashboard %s", env.Dashboard)
		}
		doc = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := env.Workspace.Catalog().Load(gctx)
		if err != nil {
			return events.Internal(err, "failed to load catalog")
		}
		catalog = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := env.Workspace.DateFilterConfig().Get(gctx)
		if err != nil {
			return events.Internal(err, "failed to load date filter config")
		}
		dateConfig = loaded
		return nil
	})
	g.Go(func() error {
		if env.Dashboard.IsZero() {
			return nil
		}
		loaded, err := env.Workspace.Automations().List(gctx, env.Dashboard)
		if err != nil {
			return events.Internal(err, "failed to load automations of %s", env.Dashboard)
		}
		automations = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return events.Event{}, err
	}

	batch, widgets, err := documentBatch(doc)
	if err != nil {
		return events.Event{}, events.Internal(err, "stored dashboard %s is malformed", env.Dashboard)
	}
	persisted := doc
	batch = append(batch,
		store.NewAction(store.DateFilterConfigSet, store.SetDateFilterConfig{Workspace: dateConfig, Override: doc.DateFilterConfig}),
		store.NewAction(store.CatalogSet, store.SetCatalog{Catalog: catalog, LoadedAt: env.now()}),
		store.NewAction(store.AlertsSet, store.SetAutomations{Items: automations}),
		store.NewAction(store.PersistedSet, store.SetPersisted{Dashboard: &persisted}),
	)
	extra, err := widgetInsightActions(ctx, env, batch, widgets)
	if err != nil {
		return events.Event{}, err
	}
	if err := dispatch(env, append(batch, extra...)...); err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	return events.New(events.DashboardInitialized, events.DashboardInitializedPayload{
		Dashboard:             store.SelectDocument(s),
		EffectiveDateConfig:   store.SelectEffectiveDateFilterConfig(s),
		DateConfigOverrideBad: !s.DateFilterConfig.Valid,
	}), nil
}

// documentBatch loads doc into the store and returns the widgets it placed in
// the arena, with generated identifiers filled in.
func documentBatch(doc models.Dashboard) ([]store.Action, []models.Widget, error) {
	batch, err := store.DocumentActions(doc)
	if err != nil {
		return nil, nil, err
	}
	var widgets []models.Widget
	for _, a := range batch {
		if layout, ok := a.Payload.(store.SetLayout); ok {
			for _, w := range layout.Widgets {
				widgets = append(widgets, w)
			}
		}
	}
	return batch, widgets, nil
}

// widgetInsightActions caches the insights widgets render or drill to and
// returns the actions that store them and set drill markers once batch is
// applied. Insights that no longer exist only get logged.
func widgetInsightActions(ctx context.Context, env *Env, batch []store.Action, widgets []models.Widget) ([]store.Action, error) {
	insights, missing, err := loadInsights(ctx, env, widgetInsightRefs(widgets))
	if err != nil {
		return nil, err
	}
	for _, ref := range missing {
		env.logger().Warn("Dashboard references a missing insight", zap.String("insight", ref.String()))
	}

	next, err := store.Preview(env.Store.State(), batch...)
	if err != nil {
		return nil, events.Internal(err, "failed to apply dashboard document")
	}
	out := []store.Action{store.NewAction(store.InsightsUpsert, store.UpsertInsights{Insights: insights})}
	return append(out, layoutMarkerActions(env, next, widgets, insights)...), nil
}

func renameDashboard(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RenamePayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return events.Event{}, events.InvalidArgs("dashboard title must not be empty")
	}
	if err := dispatch(env, store.NewAction(store.MetaSetTitle, store.SetTitle{Title: title})); err != nil {
		return events.Event{}, err
	}
	return events.New(events.DashboardRenamed, events.DashboardRenamedPayload{NewTitle: title}), nil
}

func resetDashboard(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	if _, err := payload[commands.ResetPayload](cmd); err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	if s.Persisted == nil {
		return events.Event{}, events.InvalidArgs("dashboard has not been initialized")
	}

	batch, widgets, err := documentBatch(*s.Persisted)
	if err != nil {
		return events.Event{}, events.Internal(err, "persisted dashboard is malformed")
	}
	batch = append(batch, store.NewAction(store.DateFilterConfigSet, store.SetDateFilterConfig{
		Workspace: s.DateFilterConfig.Workspace,
		Override:  s.Persisted.DateFilterConfig,
	}))
	for key := range s.UI.InvalidDrills {
		batch = append(batch, store.NewAction(store.UIClearWidget, store.ClearWidget{Key: key}))
	}
	for key := range s.UI.InvalidCustomURLDrillArgs {
		batch = append(batch, store.NewAction(store.UIClearWidget, store.ClearWidget{Key: key}))
	}
	extra, err := widgetInsightActions(ctx, env, batch, widgets)
	if err != nil {
		return events.Event{}, err
	}
	if err := dispatch(env, append(batch, extra...)...); err != nil {
		return events.Event{}, err
	}

	return events.New(events.DashboardWasReset, events.DashboardResetPayload{
		Dashboard: store.SelectDocument(env.Store.State()),
	}), nil
}

func saveDashboard(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.SavePayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	doc := store.SelectDocument(env.Store.State())
	if title := strings.TrimSpace(p.Title); title != "" {
		doc.Title = title
	}
	newlySaved := doc.Identifier == "" && doc.URI == ""

	saved, err := env.Workspace.Dashboards().Save(ctx, doc)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to save dashboard")
	}

	batch := []store.Action{
		store.NewAction(store.MetaSetSaved, store.SetSaved{Identity: saved.Identity, UpdatedAt: saved.UpdatedAt}),
		store.NewAction(store.PersistedSet, store.SetPersisted{Dashboard: &saved}),
	}
	if env.Store.State().Meta.Title != saved.Title {
		batch = append(batch, store.NewAction(store.MetaSetTitle, store.SetTitle{Title: saved.Title}))
	}
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}
	return events.New(events.DashboardSaved, events.DashboardSavedPayload{Dashboard: saved, NewlySaved: newlySaved}), nil
}

func exportDashboardXLSX(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ExportXLSXPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if env.Exporter == nil {
		return events.Event{}, events.NotSupported("xlsx export is not available")
	}

	content, name, err := env.Exporter.DashboardXLSX(store.SelectDocument(env.Store.State()), p.FileName)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to export dashboard")
	}
	return events.New(events.DashboardExportedXLSX, events.DashboardExportedPayload{
		FileName: name,
		Size:     len(content),
		Content:  content,
	}), nil
}

// refreshCatalog reloads the catalog. Cached date dataset answers may be
// stale afterwards, so the query cache is dropped as well.
func refreshCatalog(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	if _, err := payload[commands.RefreshCatalogPayload](cmd); err != nil {
		return events.Event{}, err
	}
	catalog, err := env.Workspace.Catalog().Load(ctx)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to load catalog")
	}
	if err := dispatch(env, store.NewAction(store.CatalogSet, store.SetCatalog{Catalog: catalog, LoadedAt: env.now()})); err != nil {
		return events.Event{}, err
	}
	env.Queries.Cache.ResetAll()

	return events.New(events.CatalogRefreshed, events.CatalogRefreshedPayload{
		Attributes:   len(catalog.Attributes),
		Measures:     len(catalog.Measures),
		Facts:        len(catalog.Facts),
		DateDatasets: len(catalog.DateDatasets),
	}), nil
}

func resetQueryCache(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ResetQueryCachePayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if p.QueryType == "" {
		env.Queries.Cache.ResetAll()
	} else if err := env.Queries.Cache.Reset(p.QueryType); err != nil {
		if errors.Is(err, queries.ErrUnknownQuery) {
			return events.Event{}, events.InvalidArgs("unknown query type %q", p.QueryType)
		}
		return events.Event{}, events.Internal(err, "failed to reset query cache")
	}
	return events.New(events.QueryCacheReset, events.QueryCacheResetPayload{QueryType: p.QueryType}), nil
}
