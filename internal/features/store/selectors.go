package store

import (
	"sort"

	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

// Selectors are pure reads over a snapshot.

func SelectWidgetByRef(s *State, ref objref.ObjRef, res objref.Resolver) (string, models.Widget, bool) {
	if w, ok := s.Layout.Widgets[ref.Identifier]; ok && ref.Identifier != "" {
		return ref.Identifier, w, true
	}
	for _, key := range sortedWidgetKeys(s) {
		w := s.Layout.Widgets[key]
		if w.Identity.Matches(ref, res) {
			return key, w, true
		}
	}
	return "", models.Widget{}, false
}

// SelectWidgetsInOrder lists widgets in layout order, nested layouts inlined after their owner.
func SelectWidgetsInOrder(s *State) []models.Widget {
	var out []models.Widget
	var walk func(sections []SectionState)
	walk = func(sections []SectionState) {
		for _, section := range sections {
			for _, item := range section.Items {
				if item.WidgetKey == "" {
					continue
				}
				w, ok := s.Layout.Widgets[item.WidgetKey]
				if !ok {
					continue
				}
				out = append(out, w)
				if nested, ok := s.Layout.Nested[item.WidgetKey]; ok {
					walk(nested)
				}
			}
		}
	}
	walk(s.Layout.Sections)
	return out
}

func SelectWidgetsOfType(s *State, t models.WidgetType) []models.Widget {
	var out []models.Widget
	for _, w := range SelectWidgetsInOrder(s) {
		if w.Type == t {
			out = append(out, w)
		}
	}
	return out
}

// SelectWidgetLocation finds a widget in the root layout.
func SelectWidgetLocation(s *State, key string) (sectionIndex, itemIndex int, ok bool) {
	for si, section := range s.Layout.Sections {
		for ii, item := range section.Items {
			if item.WidgetKey == key {
				return si, ii, true
			}
		}
	}
	return -1, -1, false
}

func SelectSection(s *State, index int) (models.Section, bool) {
	if index < 0 || index >= len(s.Layout.Sections) {
		return models.Section{}, false
	}
	return Denormalize(s.Layout, s.Layout.Sections[index:index+1])[0], true
}

func SelectItem(s *State, sectionIndex, itemIndex int) (models.Item, bool) {
	if sectionIndex < 0 || sectionIndex >= len(s.Layout.Sections) {
		return models.Item{}, false
	}
	items := s.Layout.Sections[sectionIndex].Items
	if itemIndex < 0 || itemIndex >= len(items) {
		return models.Item{}, false
	}
	return denormalizeItem(s.Layout, items[itemIndex]), true
}

func SelectLayout(s *State) models.Layout {
	return models.Layout{Sections: Denormalize(s.Layout, s.Layout.Sections)}
}

func SelectAttributeFilters(s *State) []models.AttributeFilter {
	out := make([]models.AttributeFilter, 0, len(s.FilterContext.Filters))
	for _, item := range s.FilterContext.Filters {
		if item.IsAttribute() {
			out = append(out, *item.AttributeFilter)
		}
	}
	return out
}

// SelectAttributeFilterByLocalID also returns the filter's index among attribute filters.
func SelectAttributeFilterByLocalID(s *State, localID string) (models.AttributeFilter, int, bool) {
	for i, f := range SelectAttributeFilters(s) {
		if f.LocalIdentifier == localID {
			return f, i, true
		}
	}
	return models.AttributeFilter{}, -1, false
}

func SelectAttributeFilterByDisplayForm(s *State, displayForm objref.ObjRef, res objref.Resolver) (models.AttributeFilter, bool) {
	for _, f := range SelectAttributeFilters(s) {
		if objref.Equal(f.DisplayForm, displayForm, res) {
			return f, true
		}
	}
	return models.AttributeFilter{}, false
}

func SelectDateFilter(s *State) (models.DateFilter, bool) {
	for _, item := range s.FilterContext.Filters {
		if item.IsDate() {
			return *item.DateFilter, true
		}
	}
	return models.DateFilter{}, false
}

func SelectFilterContext(s *State) models.FilterContext {
	return models.FilterContext{Identity: s.FilterContext.Identity, Filters: s.FilterContext.Filters}
}

func SelectEffectiveDateFilterConfig(s *State) models.DateFilterConfig {
	return s.DateFilterConfig.Effective
}

func SelectDateFilterMode(s *State) models.DateFilterConfigMode {
	if s.DateFilterConfig.Override == nil || s.DateFilterConfig.Override.Mode == "" {
		return models.DateFilterModeActive
	}
	return s.DateFilterConfig.Override.Mode
}

func SelectCatalogDisplayForm(s *State, ref objref.ObjRef, res objref.Resolver) (models.DisplayForm, models.CatalogAttribute, bool) {
	for _, attr := range s.Catalog.Catalog.Attributes {
		for _, df := range attr.DisplayForms {
			if df.Identity.Matches(ref, res) {
				return df, attr, true
			}
		}
	}
	return models.DisplayForm{}, models.CatalogAttribute{}, false
}

func SelectCatalogAttribute(s *State, ref objref.ObjRef, res objref.Resolver) (models.CatalogAttribute, bool) {
	for _, attr := range s.Catalog.Catalog.Attributes {
		if attr.Identity.Matches(ref, res) {
			return attr, true
		}
	}
	return models.CatalogAttribute{}, false
}

func SelectCatalogMeasure(s *State, ref objref.ObjRef, res objref.Resolver) (models.CatalogMeasure, bool) {
	for _, m := range s.Catalog.Catalog.Measures {
		if m.Identity.Matches(ref, res) {
			return m, true
		}
	}
	return models.CatalogMeasure{}, false
}

func SelectCatalogDateDataset(s *State, ref objref.ObjRef, res objref.Resolver) (models.CatalogDateDataset, bool) {
	for _, d := range s.Catalog.Catalog.DateDatasets {
		if d.Identity.Matches(ref, res) {
			return d, true
		}
	}
	return models.CatalogDateDataset{}, false
}

// InsightKey is the arena key of an insight in the insights slice.
func InsightKey(i models.Insight) string {
	return i.Identity.Ref().String()
}

func SelectInsightByRef(s *State, ref objref.ObjRef, res objref.Resolver) (models.Insight, bool) {
	if i, ok := s.Insights.ByKey[objref.IDRef(ref.Identifier).String()]; ok && ref.Identifier != "" {
		return i, true
	}
	keys := make([]string, 0, len(s.Insights.ByKey))
	for k := range s.Insights.ByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if i := s.Insights.ByKey[k]; i.Identity.Matches(ref, res) {
			return i, true
		}
	}
	return models.Insight{}, false
}

func SelectAutomationByRef(s *State, ref objref.ObjRef, res objref.Resolver) (models.Automation, bool) {
	for _, a := range s.Alerts.Items {
		if a.Identity.Matches(ref, res) {
			return a, true
		}
	}
	return models.Automation{}, false
}

func SelectAutomationsOfType(s *State, t models.AutomationType) []models.Automation {
	var out []models.Automation
	for _, a := range s.Alerts.Items {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func SelectInvalidDrills(s *State, widgetKey string) []models.Drill {
	return s.UI.InvalidDrills[widgetKey]
}

func SelectInvalidCustomURLDrillArgs(s *State, widgetKey string) []InvalidCustomURLParameter {
	return s.UI.InvalidCustomURLDrillArgs[widgetKey]
}

func SelectUndoCount(s *State) int {
	return len(s.Layout.Undo)
}

// SelectDocument denormalizes the state back into a dashboard document.
func SelectDocument(s *State) models.Dashboard {
	return models.Dashboard{
		Identity:         s.Meta.Identity,
		Title:            s.Meta.Title,
		Description:      s.Meta.Description,
		Tags:             s.Meta.Tags,
		Layout:           SelectLayout(s),
		FilterContext:    SelectFilterContext(s),
		DateFilterConfig: s.DateFilterConfig.Override,
		Plugins:          s.Meta.Plugins,
		Permissions:      s.Meta.Permissions,
		CreatedAt:        s.Meta.CreatedAt,
		UpdatedAt:        s.Meta.UpdatedAt,
	}
}

func sortedWidgetKeys(s *State) []string {
	keys := make([]string, 0, len(s.Layout.Widgets))
	for k := range s.Layout.Widgets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DocumentActions builds the batch that loads a document into an empty or existing store.
func DocumentActions(doc models.Dashboard) ([]Action, error) {
	layout, err := NormalizeLayout(doc.Layout)
	if err != nil {
		return nil, err
	}
	return []Action{
		NewAction(MetaSet, MetaState{
			Identity:    doc.Identity,
			Title:       doc.Title,
			Description: doc.Description,
			Tags:        doc.Tags,
			Plugins:     doc.Plugins,
			Permissions: doc.Permissions,
			CreatedAt:   doc.CreatedAt,
			UpdatedAt:   doc.UpdatedAt,
		}),
		NewAction(LayoutSet, SetLayout{
			Sections: layout.Sections,
			Widgets:  layout.WidgetMap(),
			Nested:   layout.Nested,
		}),
		NewAction(FilterContextSet, SetFilterContext{
			Identity: doc.FilterContext.Identity,
			Filters:  doc.FilterContext.Filters,
		}),
	}, nil
}
