package validation

import (
	"context"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/queries"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

type FilterSettingsInput struct {
	Widget           models.Widget
	Operation        commands.FilterOperation
	AttributeFilters []models.AttributeFilter
	Resolver         objref.Resolver

	// AvailableDateDatasets is only called when the operation sets a date dataset.
	AvailableDateDatasets func(ctx context.Context) (queries.DateDatasets, error)
}

// FilterSettings is the outcome of a filter operation, ready to be written to the widget.
type FilterSettings struct {
	IgnoredFilters []models.FilterReference
	DateDataSet    *objref.ObjRef

	IgnoredAttributeFilters []models.AttributeFilter
	DateDataset             *models.CatalogDateDataset
}

// ProcessFilterOperation validates op against the widget and the filter
// context and computes the widget's new filter settings.
func ProcessFilterOperation(ctx context.Context, in FilterSettingsInput) (FilterSettings, error) {
	op := in.Operation
	current := ignoredDisplayForms(in.Widget)

	var (
		dateRef   = in.Widget.DateDataSet
		setDate   bool
		useFirst  bool
		displayFs = current
		err       error
	)

	switch op.Type {
	case commands.FilterOpReplace:
		dateRef, setDate = op.DateDataSet, op.DateDataSet != nil
		displayFs = op.IgnoreAttributeFilters
	case commands.FilterOpEnableDateFilter:
		if !op.UseDefaultDateDataSet && op.DateDataSet == nil {
			return FilterSettings{}, events.InvalidArgs("enabling date filtering needs a date dataset")
		}
		dateRef, setDate, useFirst = op.DateDataSet, true, op.UseDefaultDateDataSet
	case commands.FilterOpDisableDateFilter:
		dateRef = nil
	case commands.FilterOpReplaceIgnores:
		displayFs = op.DisplayForms
	case commands.FilterOpIgnoreAttribute:
		displayFs = append(append([]objref.ObjRef{}, current...), op.DisplayForms...)
	case commands.FilterOpUnignoreAttribute:
		if _, err := matchAttributeFilters(op.DisplayForms, in.AttributeFilters, in.Resolver); err != nil {
			return FilterSettings{}, err
		}
		displayFs = nil
		for _, df := range current {
			if !objref.Contains(op.DisplayForms, df, in.Resolver) {
				displayFs = append(displayFs, df)
			}
		}
	default:
		return FilterSettings{}, events.InvalidArgs("unknown filter operation %q", op.Type)
	}

	out := FilterSettings{DateDataSet: dateRef}
	if setDate {
		ds, err := resolveWidgetDateDataset(ctx, in, dateRef, useFirst)
		if err != nil {
			return FilterSettings{}, err
		}
		ref := ds.Identity.Ref()
		out.DateDataSet = &ref
		out.DateDataset = &ds
	}

	out.IgnoredAttributeFilters, err = matchAttributeFilters(displayFs, in.AttributeFilters, in.Resolver)
	if err != nil {
		return FilterSettings{}, err
	}

	out.IgnoredFilters = []models.FilterReference{}
	if in.Widget.Type != models.WidgetKPI {
		for _, ref := range in.Widget.IgnoredFilters {
			if ref.Type == models.DateFilterReference {
				out.IgnoredFilters = append(out.IgnoredFilters, ref)
			}
		}
	}
	for _, f := range out.IgnoredAttributeFilters {
		out.IgnoredFilters = append(out.IgnoredFilters, models.AttributeFilterRef(f.DisplayForm))
	}
	return out, nil
}

func ignoredDisplayForms(w models.Widget) []objref.ObjRef {
	var out []objref.ObjRef
	for _, ref := range w.IgnoredFilters {
		if ref.Type == models.AttributeFilterReference && ref.DisplayForm != nil {
			out = append(out, *ref.DisplayForm)
		}
	}
	return out
}

// matchAttributeFilters maps display forms onto the filters using them,
// dropping duplicates. Display forms no filter uses are rejected.
func matchAttributeFilters(displayForms []objref.ObjRef, filters []models.AttributeFilter, res objref.Resolver) ([]models.AttributeFilter, error) {
	out := []models.AttributeFilter{}
	seen := map[string]bool{}
	for _, df := range displayForms {
		idx := -1
		for i, f := range filters {
			if objref.Equal(f.DisplayForm, df, res) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, events.InvalidArgs("display form %s is not used by any dashboard attribute filter", df)
		}
		if seen[filters[idx].LocalIdentifier] {
			continue
		}
		seen[filters[idx].LocalIdentifier] = true
		out = append(out, filters[idx])
	}
	return out, nil
}

func resolveWidgetDateDataset(ctx context.Context, in FilterSettingsInput, ref *objref.ObjRef, useFirst bool) (models.CatalogDateDataset, error) {
	if in.AvailableDateDatasets == nil {
		return models.CatalogDateDataset{}, events.Internal(nil, "no date dataset source for widget %s", in.Widget.Identity.Ref())
	}
	available, err := in.AvailableDateDatasets(ctx)
	if err != nil {
		return models.CatalogDateDataset{}, events.Internal(err, "failed to load date datasets of widget %s", in.Widget.Identity.Ref())
	}

	if useFirst {
		if len(available.DateDatasets) == 0 {
			return models.CatalogDateDataset{}, events.InvalidArgs("widget %s has no date dataset to filter by", in.Widget.Identity.Ref())
		}
		return available.DateDatasets[0], nil
	}

	ds, ok := available.Find(*ref, in.Resolver)
	if !ok {
		return models.CatalogDateDataset{}, events.InvalidArgs("date dataset %s is not available for widget %s", ref, in.Widget.Identity.Ref())
	}
	return ds, nil
}
