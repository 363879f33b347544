package validation

import (
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

// ValidateExistingWidget finds the widget ref points at and checks its type
// against kinds, when any are given.
func ValidateExistingWidget(s *store.State, ref objref.ObjRef, res objref.Resolver, kinds ...models.WidgetType) (string, models.Widget, error) {
	key, w, ok := store.SelectWidgetByRef(s, ref, res)
	if !ok {
		return "", models.Widget{}, events.InvalidArgs("widget %s does not exist on the dashboard", ref)
	}
	if len(kinds) == 0 {
		return key, w, nil
	}
	for _, k := range kinds {
		if w.Type == k {
			return key, w, nil
		}
	}
	return "", models.Widget{}, events.InvalidArgs("widget %s is a %s widget, expected %v", ref, w.Type, kinds)
}

func ResolveDateDataset(s *store.State, ref objref.ObjRef, res objref.Resolver) (models.CatalogDateDataset, error) {
	ds, ok := store.SelectCatalogDateDataset(s, ref, res)
	if !ok {
		return models.CatalogDateDataset{}, events.InvalidArgs("date dataset %s does not exist in the catalog", ref)
	}
	return ds, nil
}

func ResolveMeasure(s *store.State, ref objref.ObjRef, res objref.Resolver) (models.CatalogMeasure, error) {
	m, ok := store.SelectCatalogMeasure(s, ref, res)
	if !ok {
		return models.CatalogMeasure{}, events.InvalidArgs("measure %s does not exist in the catalog", ref)
	}
	return m, nil
}

func ResolveAttributeFilter(s *store.State, localID string) (models.AttributeFilter, error) {
	f, _, ok := store.SelectAttributeFilterByLocalID(s, localID)
	if !ok {
		return models.AttributeFilter{}, events.InvalidArgs("attribute filter %q does not exist", localID)
	}
	return f, nil
}
