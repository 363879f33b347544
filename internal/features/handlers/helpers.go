package handlers

import (
	"context"
	"errors"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/features/validation"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

func emitFilterContextChanged(env *Env, cmd commands.Command) {
	fc := store.SelectFilterContext(env.Store.State())
	env.Emit(cmd, events.New(events.FilterContextChanged, events.FilterContextChangedPayload{FilterContext: fc}))
}

func emitLayoutChanged(env *Env, cmd commands.Command) {
	layout := store.SelectLayout(env.Store.State())
	env.Emit(cmd, events.New(events.LayoutChanged, events.LayoutChangedPayload{Layout: layout}))
}

// loadInsights fetches insights through the query cache. Insights the backend
// does not know are returned in missing; any other failure is an error.
func loadInsights(ctx context.Context, env *Env, refs []objref.ObjRef) (found []models.Insight, missing []objref.ObjRef, err error) {
	for _, ref := range objref.Dedupe(refs, env.Resolver()) {
		insight, err := env.Queries.InsightByRef.Query(ctx, ref)
		switch {
		case errors.Is(err, backend.ErrNotFound):
			missing = append(missing, ref)
		case err != nil:
			return nil, nil, events.Internal(err, "failed to load insight %s", ref)
		default:
			found = append(found, insight)
		}
	}
	return found, missing, nil
}

func drillTargets(drills []models.Drill) []objref.ObjRef {
	var out []objref.ObjRef
	for _, d := range drills {
		if d.Type == models.DrillToInsight && d.Target != nil && !d.Target.IsZero() {
			out = append(out, *d.Target)
		}
	}
	return out
}

// drillLookups checks drill targets against the insights in state plus extra.
// Dashboard targets are only checked when dashboards is non-nil.
func drillLookups(env *Env, s *store.State, extra []models.Insight, dashboards []models.DashboardDescriptor) validation.DrillLookups {
	res := env.Resolver()
	l := validation.DrillLookups{
		Resolver: res,
		Insight: func(ref objref.ObjRef) bool {
			for _, i := range extra {
				if i.Identity.Matches(ref, res) {
					return true
				}
			}
			_, ok := store.SelectInsightByRef(s, ref, res)
			return ok
		},
		DisplayForm: func(ref objref.ObjRef) (models.DisplayForm, bool) {
			df, _, ok := store.SelectCatalogDisplayForm(s, ref, res)
			return df, ok
		},
	}
	if dashboards != nil {
		l.Dashboard = func(ref objref.ObjRef) bool {
			for _, d := range dashboards {
				if d.Identity.Matches(ref, res) {
					return true
				}
			}
			return false
		}
	}
	return l
}

// markerActions recomputes the transient invalid-drill markers of one widget.
func markerActions(env *Env, key string, drills []models.Drill, insight *models.Insight, l validation.DrillLookups) []store.Action {
	return []store.Action{
		store.NewAction(store.UISetInvalidDrills, store.SetInvalidDrills{
			Key:    key,
			Drills: validation.InvalidDrills(drills, insight, l),
		}),
		store.NewAction(store.UISetInvalidCustomURLArgs, store.SetInvalidCustomURLArgs{
			Key:    key,
			Params: validation.CustomURLMarkers(drills, insight, env.Resolver()),
		}),
	}
}

// layoutMarkerActions recomputes markers for every insight widget in widgets.
func layoutMarkerActions(env *Env, s *store.State, widgets []models.Widget, extra []models.Insight) []store.Action {
	res := env.Resolver()
	l := drillLookups(env, s, extra, nil)
	var out []store.Action
	for _, w := range widgets {
		if w.Type != models.WidgetInsight || w.Insight == nil || len(w.Drills) == 0 {
			continue
		}
		var insight *models.Insight
		for i := range extra {
			if extra[i].Identity.Matches(w.Insight.Insight, res) {
				insight = &extra[i]
				break
			}
		}
		if insight == nil {
			if found, ok := store.SelectInsightByRef(s, w.Insight.Insight, res); ok {
				insight = &found
			}
		}
		out = append(out, markerActions(env, w.Identifier, w.Drills, insight, l)...)
	}
	return out
}

// widgetInsightRefs lists the insights the widgets render and drill to.
func widgetInsightRefs(widgets []models.Widget) []objref.ObjRef {
	var out []objref.ObjRef
	for _, w := range widgets {
		if w.Type == models.WidgetInsight && w.Insight != nil {
			out = append(out, w.Insight.Insight)
			out = append(out, drillTargets(w.Drills)...)
		}
		if w.Type == models.WidgetVisualizationSwitcher && w.Switcher != nil {
			out = append(out, widgetInsightRefs(w.Switcher.Visualizations)...)
		}
	}
	return out
}

// prepareItems normalizes new layout items against the widgets already on the
// dashboard and checks what they point at.
func prepareItems(ctx context.Context, env *Env, existing map[string]models.Widget, items []models.Item) (store.Normalized, []models.Insight, error) {
	normalized, err := store.NormalizeItems(existing, items)
	if err != nil {
		return store.Normalized{}, nil, events.InvalidArgs("invalid layout items: %v", err)
	}

	s := env.Store.State()
	res := env.Resolver()
	for _, w := range normalized.Widgets {
		if w.Type == models.WidgetKPI {
			if _, err := validation.ResolveMeasure(s, w.KPI.Metric, res); err != nil {
				return store.Normalized{}, nil, err
			}
		}
	}

	var refs []objref.ObjRef
	for _, w := range normalized.Widgets {
		if w.Type == models.WidgetInsight {
			refs = append(refs, w.Insight.Insight)
		}
	}
	insights, missing, err := loadInsights(ctx, env, refs)
	if err != nil {
		return store.Normalized{}, nil, err
	}
	if len(missing) > 0 {
		return store.Normalized{}, nil, events.InvalidArgs("insights %v do not exist", missing)
	}
	return normalized, insights, nil
}

// widgetSubtree lists the key and the keys of every widget nested under it.
func widgetSubtree(s *store.State, key string) []string {
	if key == "" {
		return nil
	}
	out := []string{key}
	for _, section := range s.Layout.Nested[key] {
		for _, item := range section.Items {
			out = append(out, widgetSubtree(s, item.WidgetKey)...)
		}
	}
	return out
}
