package handlers

import (
	"context"
	"time"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/features/validation"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/google/uuid"
)

const absoluteDateLayout = "2006-01-02"

func changeDateFilterSelection(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeDateFilterSelectionPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	switch mode := store.SelectDateFilterMode(s); mode {
	case models.DateFilterModeReadonly, models.DateFilterModeHidden:
		return events.Event{}, events.NotSupported("date filter is %s on this dashboard", mode)
	}

	filter, err := dateFilterFromPayload(store.SelectEffectiveDateFilterConfig(s), p)
	if err != nil {
		return events.Event{}, err
	}
	if p.DataSet != nil {
		ds, err := validation.ResolveDateDataset(s, *p.DataSet, env.Resolver())
		if err != nil {
			return events.Event{}, err
		}
		ref := ds.Identity.Ref()
		filter.DataSet = &ref
	}

	if err := dispatch(env, store.NewAction(store.FilterContextChangeDateSelection, store.UpsertDateFilter{Filter: filter})); err != nil {
		return events.Event{}, err
	}
	emitFilterContextChanged(env, cmd)
	return events.New(events.DateFilterSelectionChanged, events.DateFilterSelectionChangedPayload{DateFilter: filter}), nil
}

func dateFilterFromPayload(cfg models.DateFilterConfig, p commands.ChangeDateFilterSelectionPayload) (models.DateFilter, error) {
	switch p.Type {
	case models.DateFilterAllTime:
		if !cfg.AllTime.Visible {
			return models.DateFilter{}, events.InvalidArgs("all time date filter is not available")
		}
		return models.DateFilter{Type: models.DateFilterAllTime}, nil

	case models.DateFilterAbsolute:
		if !cfg.AbsoluteForm.Visible {
			return models.DateFilter{}, events.InvalidArgs("absolute date filter is not available")
		}
		from, err := time.Parse(absoluteDateLayout, p.From)
		if err != nil {
			return models.DateFilter{}, events.InvalidArgs("invalid date %q, expected YYYY-MM-DD", p.From)
		}
		to, err := time.Parse(absoluteDateLayout, p.To)
		if err != nil {
			return models.DateFilter{}, events.InvalidArgs("invalid date %q, expected YYYY-MM-DD", p.To)
		}
		if from.After(to) {
			return models.DateFilter{}, events.InvalidArgs("date filter starts after it ends")
		}
		return models.DateFilter{Type: models.DateFilterAbsolute, Granularity: models.GranularityDate, From: p.From, To: p.To}, nil

	case models.DateFilterRelative:
		if p.Granularity == "" {
			return models.DateFilter{}, events.InvalidArgs("relative date filter needs a granularity")
		}
		if !cfg.AllowsGranularity(p.Granularity) {
			return models.DateFilter{}, events.InvalidArgs("granularity %s is not available", p.Granularity)
		}
		if p.FromOffset > p.ToOffset {
			return models.DateFilter{}, events.InvalidArgs("date filter starts after it ends")
		}
		return models.DateFilter{
			Type:        models.DateFilterRelative,
			Granularity: p.Granularity,
			FromOffset:  p.FromOffset,
			ToOffset:    p.ToOffset,
		}, nil
	}
	return models.DateFilter{}, events.InvalidArgs("unknown date filter type %q", p.Type)
}

func addAttributeFilter(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.AddAttributeFilterPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	res := env.Resolver()
	df, _, ok := store.SelectCatalogDisplayForm(s, p.DisplayForm, res)
	if !ok {
		return events.Event{}, events.InvalidArgs("display form %s does not exist in the catalog", p.DisplayForm)
	}
	if existing, ok := store.SelectAttributeFilterByDisplayForm(s, p.DisplayForm, res); ok {
		return events.Event{}, events.InvalidArgs("display form %s is already used by filter %s", p.DisplayForm, existing.LocalIdentifier)
	}
	count := len(store.SelectAttributeFilters(s))
	if p.Index < -1 || p.Index > count {
		return events.Event{}, events.InvalidArgs("filter index %d out of range 0..%d", p.Index, count)
	}
	if err := validateParents(s, res, "", p.Parents); err != nil {
		return events.Event{}, err
	}

	mode := p.SelectionMode
	if mode == "" {
		mode = models.SelectionMulti
	}
	if mode != models.SelectionMulti && mode != models.SelectionSingle {
		return events.Event{}, events.InvalidArgs("unknown selection mode %q", mode)
	}
	negative := true
	if p.NegativeSelection != nil {
		negative = *p.NegativeSelection
	}
	var elements models.AttributeElements
	if p.InitialSelection != nil {
		elements = *p.InitialSelection
	}
	if err := validateElements(elements, mode); err != nil {
		return events.Event{}, err
	}
	if mode == models.SelectionSingle {
		negative = false
	}

	filter := models.AttributeFilter{
		LocalIdentifier:   uuid.NewString(),
		DisplayForm:       df.Identity.Ref(),
		NegativeSelection: negative,
		Elements:          elements,
		SelectionMode:     mode,
		Title:             p.Title,
		FilterElementsBy:  p.Parents,
	}
	if err := dispatch(env, store.NewAction(store.FilterContextAddAttribute, store.AddAttributeFilter{Filter: filter, Index: p.Index})); err != nil {
		return events.Event{}, err
	}

	added, index, _ := store.SelectAttributeFilterByLocalID(env.Store.State(), filter.LocalIdentifier)
	emitFilterContextChanged(env, cmd)
	return events.New(events.AttributeFilterAdded, events.AttributeFilterAddedPayload{Added: added, Index: index}), nil
}

func validateElements(elements models.AttributeElements, mode models.SelectionMode) error {
	if len(elements.URIs) > 0 && len(elements.Values) > 0 {
		return events.InvalidArgs("attribute elements are either uris or values, not both")
	}
	if mode == models.SelectionSingle && len(elements.URIs)+len(elements.Values) > 1 {
		return events.InvalidArgs("single selection filter takes at most one element")
	}
	return nil
}

// validateParents checks the parent filters exist and their bridge attributes
// are known. self is the filter receiving the parents, empty for a new one.
func validateParents(s *store.State, res objref.Resolver, self string, parents []models.AttributeFilterParent) error {
	seen := map[string]bool{}
	for _, parent := range parents {
		if parent.FilterLocalIdentifier == self && self != "" {
			return events.InvalidArgs("filter %s cannot be its own parent", self)
		}
		if seen[parent.FilterLocalIdentifier] {
			return events.InvalidArgs("parent filter %s is listed twice", parent.FilterLocalIdentifier)
		}
		seen[parent.FilterLocalIdentifier] = true
		if _, err := validation.ResolveAttributeFilter(s, parent.FilterLocalIdentifier); err != nil {
			return err
		}
		for _, attr := range parent.Over.Attributes {
			if _, ok := store.SelectCatalogAttribute(s, attr, res); !ok {
				return events.InvalidArgs("attribute %s does not exist in the catalog", attr)
			}
		}
	}
	return nil
}

func removeAttributeFilters(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RemoveAttributeFiltersPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if len(p.FilterLocalIDs) == 0 {
		return events.Event{}, events.InvalidArgs("no filters to remove")
	}

	s := env.Store.State()
	res := env.Resolver()
	removing := map[string]bool{}
	var removed []models.AttributeFilter
	for _, id := range p.FilterLocalIDs {
		f, err := validation.ResolveAttributeFilter(s, id)
		if err != nil {
			return events.Event{}, err
		}
		if removing[id] {
			continue
		}
		removing[id] = true
		removed = append(removed, f)
	}

	var children []string
	for _, f := range store.SelectAttributeFilters(s) {
		if removing[f.LocalIdentifier] {
			continue
		}
		for _, parent := range f.FilterElementsBy {
			if removing[parent.FilterLocalIdentifier] {
				children = append(children, f.LocalIdentifier)
				break
			}
		}
	}

	batch := []store.Action{store.NewAction(store.FilterContextRemoveAttributes, store.RemoveAttributeFilters{LocalIDs: p.FilterLocalIDs})}
	for _, w := range store.SelectWidgetsInOrder(s) {
		kept := make([]models.FilterReference, 0, len(w.IgnoredFilters))
		for _, ref := range w.IgnoredFilters {
			if ref.Type == models.AttributeFilterReference && ref.DisplayForm != nil && usesDisplayForm(removed, *ref.DisplayForm, res) {
				continue
			}
			kept = append(kept, ref)
		}
		if len(kept) != len(w.IgnoredFilters) {
			batch = append(batch, store.NewAction(store.WidgetSetFilterSettings, store.SetFilterSettings{
				Key:            w.Identifier,
				IgnoredFilters: kept,
				DateDataSet:    w.DateDataSet,
			}))
		}
	}
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}

	after := env.Store.State()
	var updatedChildren []models.AttributeFilter
	for _, id := range children {
		if f, _, ok := store.SelectAttributeFilterByLocalID(after, id); ok {
			updatedChildren = append(updatedChildren, f)
		}
	}
	emitFilterContextChanged(env, cmd)
	return events.New(events.AttributeFilterRemoved, events.AttributeFiltersRemovedPayload{
		Removed:  removed,
		Children: updatedChildren,
	}), nil
}

func usesDisplayForm(filters []models.AttributeFilter, df objref.ObjRef, res objref.Resolver) bool {
	for _, f := range filters {
		if objref.Equal(f.DisplayForm, df, res) {
			return true
		}
	}
	return false
}

func moveAttributeFilter(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.MoveAttributeFilterPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	filter, from, ok := store.SelectAttributeFilterByLocalID(s, p.FilterLocalID)
	if !ok {
		return events.Event{}, events.InvalidArgs("attribute filter %q does not exist", p.FilterLocalID)
	}
	count := len(store.SelectAttributeFilters(s))
	if p.Index < -1 || p.Index >= count {
		return events.Event{}, events.InvalidArgs("filter index %d out of range 0..%d", p.Index, count-1)
	}

	if err := dispatch(env, store.NewAction(store.FilterContextMoveAttribute, store.MoveAttributeFilter{LocalID: p.FilterLocalID, Index: p.Index})); err != nil {
		return events.Event{}, err
	}
	_, to, _ := store.SelectAttributeFilterByLocalID(env.Store.State(), p.FilterLocalID)
	emitFilterContextChanged(env, cmd)
	return events.New(events.AttributeFilterMoved, events.AttributeFilterMovedPayload{
		Moved:     filter,
		FromIndex: from,
		ToIndex:   to,
	}), nil
}

func changeAttributeFilterSelection(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeAttributeFilterSelectionPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	var negative bool
	switch p.SelectionType {
	case commands.SelectionIn:
	case commands.SelectionNotIn:
		negative = true
	default:
		return events.Event{}, events.InvalidArgs("unknown selection type %q", p.SelectionType)
	}

	filter, err := validation.ResolveAttributeFilter(env.Store.State(), p.FilterLocalID)
	if err != nil {
		return events.Event{}, err
	}
	mode := filter.SelectionMode
	if mode == "" {
		mode = models.SelectionMulti
	}
	if err := validateElements(p.Elements, mode); err != nil {
		return events.Event{}, err
	}
	if mode == models.SelectionSingle && negative && len(p.Elements.URIs)+len(p.Elements.Values) > 0 {
		return events.Event{}, events.InvalidArgs("single selection filter %s cannot exclude elements", p.FilterLocalID)
	}

	if err := dispatch(env, store.NewAction(store.FilterContextChangeSelection, store.ChangeAttributeSelection{
		LocalID:  p.FilterLocalID,
		Elements: p.Elements,
		Negative: negative,
	})); err != nil {
		return events.Event{}, err
	}

	changed, _, _ := store.SelectAttributeFilterByLocalID(env.Store.State(), p.FilterLocalID)
	emitFilterContextChanged(env, cmd)
	return events.New(events.AttributeFilterSelectionChanged, events.AttributeFilterSelectionChangedPayload{Filter: changed}), nil
}

func setAttributeFilterParents(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.SetAttributeFilterParentsPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	if _, err := validation.ResolveAttributeFilter(s, p.FilterLocalID); err != nil {
		return events.Event{}, err
	}
	if err := validateParents(s, env.Resolver(), p.FilterLocalID, p.Parents); err != nil {
		return events.Event{}, err
	}
	if validation.DetectParentCycle(store.SelectAttributeFilters(s), p.FilterLocalID, p.Parents) {
		return events.Event{}, events.InvalidArgs("parents of filter %s would form a cycle", p.FilterLocalID)
	}

	if err := dispatch(env, store.NewAction(store.FilterContextSetParents, store.SetAttributeFilterParents{
		LocalID: p.FilterLocalID,
		Parents: p.Parents,
	})); err != nil {
		return events.Event{}, err
	}

	changed, _, _ := store.SelectAttributeFilterByLocalID(env.Store.State(), p.FilterLocalID)
	emitFilterContextChanged(env, cmd)
	return events.New(events.AttributeFilterParentChanged, events.AttributeFilterParentChangedPayload{Filter: changed}), nil
}
