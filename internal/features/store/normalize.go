package store

import (
	"fmt"

	"go-dashboard/internal/models"

	"github.com/google/uuid"
)

// Normalized is a layout fragment split into arena form.
type Normalized struct {
	Sections []SectionState
	Items    []ItemState
	Widgets  []models.Widget
	Nested   map[string][]SectionState
}

func (n Normalized) WidgetMap() map[string]models.Widget {
	out := make(map[string]models.Widget, len(n.Widgets))
	for _, w := range n.Widgets {
		out[w.Identifier] = w
	}
	return out
}

type normalizer struct {
	taken map[string]bool
	out   Normalized
}

// NormalizeLayout splits a document layout into arena form. Widgets without an
// identifier get a generated one; duplicate identifiers are rejected.
func NormalizeLayout(layout models.Layout) (Normalized, error) {
	n := &normalizer{taken: map[string]bool{}, out: Normalized{Nested: map[string][]SectionState{}}}
	sections, err := n.sections(layout.Sections)
	if err != nil {
		return Normalized{}, err
	}
	n.out.Sections = sections
	return n.out, nil
}

// NormalizeItems normalizes items about to be added to a layout whose arena
// already holds existing.
func NormalizeItems(existing map[string]models.Widget, items []models.Item) (Normalized, error) {
	n := &normalizer{taken: map[string]bool{}, out: Normalized{Nested: map[string][]SectionState{}}}
	for key := range existing {
		n.taken[key] = true
	}
	out, err := n.items(items)
	if err != nil {
		return Normalized{}, err
	}
	n.out.Items = out
	return n.out, nil
}

func (n *normalizer) sections(sections []models.Section) ([]SectionState, error) {
	out := make([]SectionState, 0, len(sections))
	for _, section := range sections {
		items, err := n.items(section.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, SectionState{Header: section.Header, Items: items})
	}
	return out, nil
}

func (n *normalizer) items(items []models.Item) ([]ItemState, error) {
	out := make([]ItemState, 0, len(items))
	for _, item := range items {
		if item.Widget == nil {
			out = append(out, ItemState{Size: item.Size})
			continue
		}
		key, err := n.widget(*item.Widget)
		if err != nil {
			return nil, err
		}
		out = append(out, ItemState{Size: item.Size, WidgetKey: key})
	}
	return out, nil
}

func (n *normalizer) widget(w models.Widget) (string, error) {
	if !w.Type.Valid() {
		return "", fmt.Errorf("unknown widget type %q", w.Type)
	}
	if w.Identifier == "" {
		w.Identifier = uuid.NewString()
	}
	if n.taken[w.Identifier] {
		return "", fmt.Errorf("duplicate widget %s", w.Identifier)
	}
	n.taken[w.Identifier] = true

	if w.Drills == nil {
		w.Drills = []models.Drill{}
	}
	if w.IgnoredFilters == nil {
		w.IgnoredFilters = []models.FilterReference{}
	}

	switch w.Type {
	case models.WidgetDashboardLayout:
		var nested []models.Section
		if w.Layout != nil {
			nested = w.Layout.Sections
		}
		sections, err := n.sections(nested)
		if err != nil {
			return "", err
		}
		n.out.Nested[w.Identifier] = sections
		w.Layout = nil
	case models.WidgetInsight:
		if w.Insight == nil {
			return "", fmt.Errorf("insight widget %s has no insight", w.Identifier)
		}
	case models.WidgetKPI:
		if w.KPI == nil {
			return "", fmt.Errorf("kpi widget %s has no measure", w.Identifier)
		}
	case models.WidgetRichText:
		if w.RichText == nil {
			w.RichText = &models.RichTextWidgetConfig{}
		}
	case models.WidgetVisualizationSwitcher:
		if w.Switcher == nil {
			w.Switcher = &models.SwitcherWidgetConfig{}
		}
	}

	n.out.Widgets = append(n.out.Widgets, w)
	return w.Identifier, nil
}

// Denormalize rebuilds document sections from arena form.
func Denormalize(layout LayoutState, sections []SectionState) []models.Section {
	out := make([]models.Section, 0, len(sections))
	for _, section := range sections {
		items := make([]models.Item, 0, len(section.Items))
		for _, item := range section.Items {
			items = append(items, denormalizeItem(layout, item))
		}
		out = append(out, models.Section{Header: section.Header, Items: items})
	}
	return out
}

func denormalizeItem(layout LayoutState, item ItemState) models.Item {
	out := models.Item{Size: item.Size}
	if item.WidgetKey == "" {
		return out
	}
	w, ok := layout.Widgets[item.WidgetKey]
	if !ok {
		return out
	}
	if w.Type == models.WidgetDashboardLayout {
		w.Layout = &models.Layout{Sections: Denormalize(layout, layout.Nested[item.WidgetKey])}
	}
	out.Widget = &w
	return out
}
