package handlers

import (
	"context"
	"errors"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/features/validation"
	"go-dashboard/internal/models"
)

func changeKPIHeader(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	return changeWidgetHeader(env, cmd, models.WidgetKPI, events.KPIWidgetHeaderChanged)
}

func changeInsightHeader(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	return changeWidgetHeader(env, cmd, models.WidgetInsight, events.InsightWidgetHeaderChanged)
}

func changeWidgetHeader(env *Env, cmd commands.Command, kind models.WidgetType, evtType string) (events.Event, error) {
	p, err := payload[commands.ChangeWidgetHeaderPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	key, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, env.Resolver(), kind)
	if err != nil {
		return events.Event{}, err
	}
	if err := dispatch(env, store.NewAction(store.WidgetSetHeader, store.SetWidgetHeader{Key: key, Title: p.Header.Title})); err != nil {
		return events.Event{}, err
	}
	return events.New(evtType, events.WidgetHeaderChangedPayload{Ref: w.Identity.Ref(), Title: p.Header.Title}), nil
}

func changeKPIMeasure(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeKPIMeasurePayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	res := env.Resolver()
	s := env.Store.State()
	if _, _, err := validation.ValidateExistingWidget(s, p.Ref, res, models.WidgetKPI); err != nil {
		return events.Event{}, err
	}
	measure, err := validation.ResolveMeasure(s, p.Measure, res)
	if err != nil {
		return events.Event{}, err
	}

	datasets, err := env.Queries.MeasureDateDatasets.Query(ctx, queries.DateDatasetsForMeasure{Measure: measure.Identity.Ref()})
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to load date datasets of measure %s", p.Measure)
	}

	// The widget may have changed while date datasets were loading.
	key, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, res, models.WidgetKPI)
	if err != nil {
		return events.Event{}, err
	}

	dateRef := w.DateDataSet
	if dateRef != nil {
		if _, ok := datasets.Find(*dateRef, res); !ok {
			dateRef = nil
		}
	}
	if dateRef == nil && w.DateDataSet != nil && len(datasets.DateDatasets) > 0 {
		first := datasets.DateDatasets[0].Identity.Ref()
		dateRef = &first
	}

	title := w.Title
	switch {
	case p.Header != nil:
		title = p.Header.Title
	case p.HeaderFromMeasure:
		title = measure.Title
	}

	batch := []store.Action{
		store.NewAction(store.WidgetSetKPIMeasure, store.SetKPIMeasure{Key: key, Metric: measure.Identity.Ref()}),
		store.NewAction(store.WidgetSetFilterSettings, store.SetFilterSettings{Key: key, IgnoredFilters: w.IgnoredFilters, DateDataSet: dateRef}),
	}
	if title != w.Title {
		batch = append(batch, store.NewAction(store.WidgetSetHeader, store.SetWidgetHeader{Key: key, Title: title}))
	}
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}
	return events.New(events.KPIWidgetMeasureChanged, events.KPIMeasureChangedPayload{
		Ref:     w.Identity.Ref(),
		Measure: measure,
		Title:   title,
	}), nil
}

func changeKPIComparison(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeKPIComparisonPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if !p.ComparisonType.Valid() {
		return events.Event{}, events.InvalidArgs("unknown comparison type %q", p.ComparisonType)
	}
	key, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, env.Resolver(), models.WidgetKPI)
	if err != nil {
		return events.Event{}, err
	}

	direction := p.ComparisonDirection
	switch {
	case p.ComparisonType == models.KPIComparisonNone:
		direction = ""
	case direction == "":
		direction = w.KPI.ComparisonDirection
		if direction == "" {
			direction = models.GrowIsGood
		}
	case direction != models.GrowIsGood && direction != models.GrowIsBad:
		return events.Event{}, events.InvalidArgs("unknown comparison direction %q", direction)
	}

	if err := dispatch(env, store.NewAction(store.WidgetSetKPIComparison, store.SetKPIComparison{
		Key:       key,
		Type:      p.ComparisonType,
		Direction: direction,
	})); err != nil {
		return events.Event{}, err
	}
	kpi := *env.Store.State().Layout.Widgets[key].KPI
	return events.New(events.KPIWidgetComparisonChanged, events.KPIComparisonChangedPayload{Ref: w.Identity.Ref(), KPI: kpi}), nil
}

func changeKPIFilterSettings(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	return changeFilterSettings(ctx, env, cmd, models.WidgetKPI, events.KPIWidgetFilterSettingsChanged)
}

func changeInsightFilterSettings(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	return changeFilterSettings(ctx, env, cmd, models.WidgetInsight, events.InsightWidgetFilterSettingsChanged)
}

func changeFilterSettings(ctx context.Context, env *Env, cmd commands.Command, kind models.WidgetType, evtType string) (events.Event, error) {
	p, err := payload[commands.ChangeFilterSettingsPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	res := env.Resolver()
	s := env.Store.State()
	_, w, err := validation.ValidateExistingWidget(s, p.Ref, res, kind)
	if err != nil {
		return events.Event{}, err
	}

	settings, err := validation.ProcessFilterOperation(ctx, validation.FilterSettingsInput{
		Widget:           w,
		Operation:        p.Operation,
		AttributeFilters: store.SelectAttributeFilters(s),
		Resolver:         res,
		AvailableDateDatasets: func(ctx context.Context) (queries.DateDatasets, error) {
			if w.Type == models.WidgetKPI {
				return env.Queries.MeasureDateDatasets.Query(ctx, queries.DateDatasetsForMeasure{Measure: w.KPI.Metric})
			}
			return env.Queries.InsightDateDatasets.Query(ctx, queries.DateDatasetsForInsight{Insight: w.Insight.Insight})
		},
	})
	if err != nil {
		return events.Event{}, err
	}

	after := env.Store.State()
	key, w, err := validation.ValidateExistingWidget(after, p.Ref, res, kind)
	if err != nil {
		return events.Event{}, err
	}
	descriptor := settings.DateDataset
	if descriptor == nil && settings.DateDataSet != nil {
		if ds, ok := store.SelectCatalogDateDataset(after, *settings.DateDataSet, res); ok {
			descriptor = &ds
		}
	}

	if err := dispatch(env, store.NewAction(store.WidgetSetFilterSettings, store.SetFilterSettings{
		Key:            key,
		IgnoredFilters: settings.IgnoredFilters,
		DateDataSet:    settings.DateDataSet,
	})); err != nil {
		return events.Event{}, err
	}
	return events.New(evtType, events.WidgetFilterSettingsChangedPayload{
		Ref:                     w.Identity.Ref(),
		IgnoredAttributeFilters: settings.IgnoredAttributeFilters,
		DateDatasetForFiltering: descriptor,
	}), nil
}

func changeInsightProperties(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeInsightPropertiesPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	key, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, env.Resolver(), models.WidgetInsight)
	if err != nil {
		return events.Event{}, err
	}
	if err := dispatch(env, store.NewAction(store.WidgetSetInsightProperties, store.SetInsightProperties{Key: key, Properties: p.Properties})); err != nil {
		return events.Event{}, err
	}
	return events.New(events.InsightWidgetPropertiesChanged, events.InsightPropertiesChangedPayload{Ref: w.Identity.Ref(), Properties: p.Properties}), nil
}

// modifyDrills merges the proposed drills into the widget. Drills starting from
// an origin the widget already drills from replace the existing drill in place.
func modifyDrills(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ModifyDrillsPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if len(p.Drills) == 0 {
		return events.Event{}, events.InvalidArgs("no drills to modify")
	}
	res := env.Resolver()
	_, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, res, models.WidgetInsight)
	if err != nil {
		return events.Event{}, err
	}

	insight, err := env.Queries.InsightByRef.Query(ctx, w.Insight.Insight)
	if errors.Is(err, backend.ErrNotFound) {
		return events.Event{}, events.InvalidArgs("insight %s of widget %s does not exist", w.Insight.Insight, p.Ref)
	}
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to load insight %s", w.Insight.Insight)
	}
	targets, _, err := loadInsights(ctx, env, drillTargets(p.Drills))
	if err != nil {
		return events.Event{}, err
	}
	var dashboards []models.DashboardDescriptor
	for _, d := range p.Drills {
		if d.Type == models.DrillToDashboard && d.Target != nil {
			if dashboards, err = env.Workspace.Dashboards().List(ctx); err != nil {
				return events.Event{}, events.Internal(err, "failed to list dashboards")
			}
			break
		}
	}

	s := env.Store.State()
	key, w, err := validation.ValidateExistingWidget(s, p.Ref, res, models.WidgetInsight)
	if err != nil {
		return events.Event{}, err
	}
	known := append(targets, insight)
	l := drillLookups(env, s, known, dashboards)
	for _, d := range p.Drills {
		if err := validation.ValidateNewDrill(d, &insight, l); err != nil {
			return events.Event{}, err
		}
	}

	merged, added, updated := validation.MergeDrills(w.Drills, p.Drills, res)
	batch := []store.Action{
		store.NewAction(store.InsightsUpsert, store.UpsertInsights{Insights: known}),
		store.NewAction(store.WidgetSetDrills, store.SetDrills{Key: key, Drills: merged}),
	}
	batch = append(batch, markerActions(env, key, merged, &insight, l)...)
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}
	return events.New(events.InsightWidgetDrillsModified, events.DrillsModifiedPayload{
		Ref:     w.Identity.Ref(),
		Added:   added,
		Updated: updated,
	}), nil
}

func removeDrills(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RemoveDrillsPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	res := env.Resolver()
	s := env.Store.State()
	key, w, err := validation.ValidateExistingWidget(s, p.Ref, res, models.WidgetInsight)
	if err != nil {
		return events.Event{}, err
	}

	origins := p.Origins
	if p.All {
		origins = origins[:0:0]
		for _, d := range w.Drills {
			origins = append(origins, d.Origin.LocalIdentifier)
		}
	} else {
		if len(origins) == 0 {
			return events.Event{}, events.InvalidArgs("no drills to remove")
		}
		for _, origin := range origins {
			if !hasDrillOrigin(w.Drills, origin) {
				return events.Event{}, events.InvalidArgs("widget %s has no drill from %q", p.Ref, origin)
			}
		}
	}

	kept, removed := validation.RemoveDrillsByOrigin(w.Drills, origins)
	var insight *models.Insight
	if found, ok := store.SelectInsightByRef(s, w.Insight.Insight, res); ok {
		insight = &found
	}

	batch := []store.Action{store.NewAction(store.WidgetSetDrills, store.SetDrills{Key: key, Drills: kept})}
	batch = append(batch, markerActions(env, key, kept, insight, drillLookups(env, s, nil, nil))...)
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}
	return events.New(events.InsightWidgetDrillsRemoved, events.DrillsRemovedPayload{Ref: w.Identity.Ref(), Removed: removed}), nil
}

func hasDrillOrigin(drills []models.Drill, origin string) bool {
	for _, d := range drills {
		if d.Origin.LocalIdentifier == origin {
			return true
		}
	}
	return false
}

func changeRichTextContent(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeRichTextContentPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	key, w, err := validation.ValidateExistingWidget(env.Store.State(), p.Ref, env.Resolver(), models.WidgetRichText)
	if err != nil {
		return events.Event{}, err
	}
	if err := dispatch(env, store.NewAction(store.WidgetSetRichTextContent, store.SetRichTextContent{Key: key, Content: p.Content})); err != nil {
		return events.Event{}, err
	}
	return events.New(events.RichTextWidgetContentChanged, events.RichTextContentChangedPayload{Ref: w.Identity.Ref(), Content: p.Content}), nil
}
