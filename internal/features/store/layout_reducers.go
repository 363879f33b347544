package store

import (
	"errors"
	"fmt"

	"go-dashboard/internal/models"

	"github.com/tiendc/go-deepcopy"
)

var errOutOfRange = errors.New("index out of range")

func init() {
	reducers[LayoutSet] = setLayout
	reducers[LayoutAddSection] = addSection
	reducers[LayoutMoveSection] = moveSection
	reducers[LayoutRemoveSection] = removeSection
	reducers[LayoutChangeSectionHeader] = changeSectionHeader
	reducers[LayoutAddItems] = addItems
	reducers[LayoutMoveItem] = moveItem
	reducers[LayoutRemoveItem] = removeItem
	reducers[LayoutReplaceItem] = replaceItem
	reducers[LayoutUndo] = undo

	reducers[WidgetSetHeader] = updateWidget(func(w *models.Widget, p SetWidgetHeader) error {
		w.Title = p.Title
		return nil
	})
	reducers[WidgetSetKPIMeasure] = updateWidget(func(w *models.Widget, p SetKPIMeasure) error {
		if w.KPI == nil {
			return fmt.Errorf("widget %s is not a kpi", w.Identifier)
		}
		w.KPI.Metric = p.Metric
		return nil
	})
	reducers[WidgetSetKPIComparison] = updateWidget(func(w *models.Widget, p SetKPIComparison) error {
		if w.KPI == nil {
			return fmt.Errorf("widget %s is not a kpi", w.Identifier)
		}
		w.KPI.ComparisonType = p.Type
		w.KPI.ComparisonDirection = p.Direction
		return nil
	})
	reducers[WidgetSetInsightProperties] = updateWidget(func(w *models.Widget, p SetInsightProperties) error {
		if w.Insight == nil {
			return fmt.Errorf("widget %s is not an insight widget", w.Identifier)
		}
		w.Insight.Properties = p.Properties
		return nil
	})
	reducers[WidgetSetRichTextContent] = updateWidget(func(w *models.Widget, p SetRichTextContent) error {
		if w.RichText == nil {
			return fmt.Errorf("widget %s is not a rich text widget", w.Identifier)
		}
		w.RichText.Content = p.Content
		return nil
	})
	reducers[WidgetSetFilterSettings] = updateWidget(func(w *models.Widget, p SetFilterSettings) error {
		w.IgnoredFilters = p.IgnoredFilters
		if w.IgnoredFilters == nil {
			w.IgnoredFilters = []models.FilterReference{}
		}
		w.DateDataSet = p.DateDataSet
		return nil
	})
	reducers[WidgetSetDrills] = updateWidget(func(w *models.Widget, p SetDrills) error {
		w.Drills = p.Drills
		if w.Drills == nil {
			w.Drills = []models.Drill{}
		}
		return nil
	})
}

type widgetKeyed interface {
	widgetKey() string
}

func (p SetWidgetHeader) widgetKey() string      { return p.Key }
func (p SetKPIMeasure) widgetKey() string        { return p.Key }
func (p SetKPIComparison) widgetKey() string     { return p.Key }
func (p SetInsightProperties) widgetKey() string { return p.Key }
func (p SetRichTextContent) widgetKey() string   { return p.Key }
func (p SetFilterSettings) widgetKey() string    { return p.Key }
func (p SetDrills) widgetKey() string            { return p.Key }

func updateWidget[T widgetKeyed](apply func(w *models.Widget, p T) error) reducer {
	return func(s *State, a Action) error {
		p, err := payloadOf[T](a)
		if err != nil {
			return err
		}
		w, ok := s.Layout.Widgets[p.widgetKey()]
		if !ok {
			return fmt.Errorf("widget %s not in layout", p.widgetKey())
		}
		if err := apply(&w, p); err != nil {
			return err
		}
		s.Layout.Widgets[p.widgetKey()] = w
		return nil
	}
}

func setLayout(s *State, a Action) error {
	p, err := payloadOf[SetLayout](a)
	if err != nil {
		return err
	}
	s.Layout = LayoutState{
		Sections: p.Sections,
		Widgets:  p.Widgets,
		Nested:   p.Nested,
		Undo:     nil,
	}
	if s.Layout.Sections == nil {
		s.Layout.Sections = []SectionState{}
	}
	if s.Layout.Widgets == nil {
		s.Layout.Widgets = map[string]models.Widget{}
	}
	if s.Layout.Nested == nil {
		s.Layout.Nested = map[string][]SectionState{}
	}
	return nil
}

func addSection(s *State, a Action) error {
	p, err := payloadOf[AddSection](a)
	if err != nil {
		return err
	}
	if err := registerWidgets(s, p.Widgets, p.Nested); err != nil {
		return err
	}
	section := p.Section
	if section.Items == nil {
		section.Items = []ItemState{}
	}
	sections, err := insertAt(s.Layout.Sections, p.Index, section)
	if err != nil {
		return err
	}
	s.Layout.Sections = sections
	return nil
}

func moveSection(s *State, a Action) error {
	p, err := payloadOf[MoveSection](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.From) {
		return errOutOfRange
	}
	section := s.Layout.Sections[p.From]
	rest := removeAt(s.Layout.Sections, p.From)
	sections, err := insertAt(rest, p.To, section)
	if err != nil {
		return err
	}
	s.Layout.Sections = sections
	return nil
}

func removeSection(s *State, a Action) error {
	p, err := payloadOf[RemoveSection](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.Index) {
		return errOutOfRange
	}
	for _, item := range s.Layout.Sections[p.Index].Items {
		dropWidget(s, item.WidgetKey)
	}
	s.Layout.Sections = removeAt(s.Layout.Sections, p.Index)
	return nil
}

func changeSectionHeader(s *State, a Action) error {
	p, err := payloadOf[ChangeSectionHeader](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.Index) {
		return errOutOfRange
	}
	s.Layout.Sections[p.Index].Header = p.Header
	return nil
}

func addItems(s *State, a Action) error {
	p, err := payloadOf[AddItems](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.SectionIndex) {
		return errOutOfRange
	}
	if err := registerWidgets(s, p.Widgets, p.Nested); err != nil {
		return err
	}
	items, err := insertAt(s.Layout.Sections[p.SectionIndex].Items, p.ItemIndex, p.Items...)
	if err != nil {
		return err
	}
	s.Layout.Sections[p.SectionIndex].Items = items
	return nil
}

func moveItem(s *State, a Action) error {
	p, err := payloadOf[MoveItem](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.SectionIndex) || !inRange(s.Layout.Sections, p.ToSectionIndex) {
		return errOutOfRange
	}
	from := s.Layout.Sections[p.SectionIndex].Items
	if !inRange(from, p.ItemIndex) {
		return errOutOfRange
	}
	item := from[p.ItemIndex]
	s.Layout.Sections[p.SectionIndex].Items = removeAt(from, p.ItemIndex)

	items, err := insertAt(s.Layout.Sections[p.ToSectionIndex].Items, p.ToItemIndex, item)
	if err != nil {
		return err
	}
	s.Layout.Sections[p.ToSectionIndex].Items = items
	return nil
}

func removeItem(s *State, a Action) error {
	p, err := payloadOf[RemoveItem](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.SectionIndex) {
		return errOutOfRange
	}
	items := s.Layout.Sections[p.SectionIndex].Items
	if !inRange(items, p.ItemIndex) {
		return errOutOfRange
	}
	dropWidget(s, items[p.ItemIndex].WidgetKey)
	s.Layout.Sections[p.SectionIndex].Items = removeAt(items, p.ItemIndex)

	if p.RemoveEmptySection && len(s.Layout.Sections[p.SectionIndex].Items) == 0 {
		s.Layout.Sections = removeAt(s.Layout.Sections, p.SectionIndex)
	}
	return nil
}

func replaceItem(s *State, a Action) error {
	p, err := payloadOf[ReplaceItem](a)
	if err != nil {
		return err
	}
	if !inRange(s.Layout.Sections, p.SectionIndex) {
		return errOutOfRange
	}
	items := s.Layout.Sections[p.SectionIndex].Items
	if !inRange(items, p.ItemIndex) {
		return errOutOfRange
	}
	dropWidget(s, items[p.ItemIndex].WidgetKey)
	if err := registerWidgets(s, p.Widgets, p.Nested); err != nil {
		return err
	}
	items[p.ItemIndex] = p.Item
	return nil
}

// undo restores the section structure recorded Steps entries ago. Widgets that
// survive the restore keep their current entity; only widgets the undone
// commands removed come back from the snapshot. Widgets the restore drops lose
// their UI markers.
func undo(s *State, a Action) error {
	p, err := payloadOf[Undo](a)
	if err != nil {
		return err
	}
	steps := p.Steps
	if steps <= 0 {
		steps = 1
	}
	if steps > len(s.Layout.Undo) {
		return fmt.Errorf("cannot undo %d steps, only %d recorded", steps, len(s.Layout.Undo))
	}

	target := s.Layout.Undo[len(s.Layout.Undo)-steps]
	var restored LayoutState
	if err := deepcopy.Copy(&restored, LayoutState{
		Sections: target.Sections,
		Widgets:  target.Widgets,
		Nested:   target.Nested,
	}); err != nil {
		return err
	}
	if restored.Widgets == nil {
		restored.Widgets = map[string]models.Widget{}
	}
	if restored.Nested == nil {
		restored.Nested = map[string][]SectionState{}
	}

	for key, current := range s.Layout.Widgets {
		if _, kept := restored.Widgets[key]; kept {
			restored.Widgets[key] = current
			continue
		}
		delete(s.UI.InvalidDrills, key)
		delete(s.UI.InvalidCustomURLDrillArgs, key)
	}

	s.Layout.Sections = restored.Sections
	s.Layout.Widgets = restored.Widgets
	s.Layout.Nested = restored.Nested
	s.Layout.Undo = s.Layout.Undo[:len(s.Layout.Undo)-steps]
	return nil
}

func registerWidgets(s *State, widgets []models.Widget, nested map[string][]SectionState) error {
	for _, w := range widgets {
		if _, exists := s.Layout.Widgets[w.Identifier]; exists {
			return fmt.Errorf("duplicate widget %s", w.Identifier)
		}
	}
	for _, w := range widgets {
		s.Layout.Widgets[w.Identifier] = w
	}
	for key, sections := range nested {
		s.Layout.Nested[key] = sections
	}
	return nil
}

// dropWidget removes a widget, the widgets of its nested layout and its UI markers.
func dropWidget(s *State, key string) {
	if key == "" {
		return
	}
	for _, section := range s.Layout.Nested[key] {
		for _, item := range section.Items {
			dropWidget(s, item.WidgetKey)
		}
	}
	delete(s.Layout.Nested, key)
	delete(s.Layout.Widgets, key)
	delete(s.UI.InvalidDrills, key)
	delete(s.UI.InvalidCustomURLDrillArgs, key)
}

func inRange[T any](items []T, index int) bool {
	return index >= 0 && index < len(items)
}

func insertAt[T any](items []T, index int, values ...T) ([]T, error) {
	if index == -1 || index == len(items) {
		return append(items, values...), nil
	}
	if index < 0 || index > len(items) {
		return nil, errOutOfRange
	}
	out := make([]T, 0, len(items)+len(values))
	out = append(out, items[:index]...)
	out = append(out, values...)
	return append(out, items[index:]...), nil
}

func removeAt[T any](items []T, index int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}
