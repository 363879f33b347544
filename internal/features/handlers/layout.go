package handlers

import (
	"context"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/store"
	"go-dashboard/internal/features/validation"
	"go-dashboard/internal/models"
)

// checkIndex accepts 0..max, and -1 when appending is allowed.
func checkIndex(what string, index, max int, allowAppend bool) error {
	if index == -1 && allowAppend {
		return nil
	}
	if index < 0 || index > max {
		return events.InvalidArgs("%s index %d out of range 0..%d", what, index, max)
	}
	return nil
}

func resolvedIndex(index, length int) int {
	if index == -1 {
		return length
	}
	return index
}

// layoutChange applies an undoable layout batch, refreshes drill markers of the
// widgets it introduced and announces the new layout.
func layoutChange(env *Env, cmd commands.Command, change store.Action, insights []models.Insight, widgets []models.Widget) error {
	batch := []store.Action{change.WithUndo(cmd)}
	if len(insights) > 0 {
		batch = append(batch, store.NewAction(store.InsightsUpsert, store.UpsertInsights{Insights: insights}))
	}
	batch = append(batch, layoutMarkerActions(env, env.Store.State(), widgets, insights)...)
	if err := dispatch(env, batch...); err != nil {
		return err
	}
	emitLayoutChanged(env, cmd)
	return nil
}

func addSection(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.AddSectionPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if err := checkIndex("section", p.Index, len(env.Store.State().Layout.Sections), true); err != nil {
		return events.Event{}, err
	}

	normalized, insights, err := prepareItems(ctx, env, env.Store.State().Layout.Widgets, p.InitialItems)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	if err := checkIndex("section", p.Index, len(s.Layout.Sections), true); err != nil {
		return events.Event{}, err
	}
	var header models.SectionHeader
	if p.InitialHeader != nil {
		header = *p.InitialHeader
	}
	index := resolvedIndex(p.Index, len(s.Layout.Sections))

	change := store.NewAction(store.LayoutAddSection, store.AddSection{
		Index:   p.Index,
		Section: store.SectionState{Header: header, Items: normalized.Items},
		Widgets: normalized.Widgets,
		Nested:  normalized.Nested,
	})
	if err := layoutChange(env, cmd, change, insights, normalized.Widgets); err != nil {
		return events.Event{}, err
	}

	section, _ := store.SelectSection(env.Store.State(), index)
	return events.New(events.LayoutSectionAdded, events.LayoutSectionAddedPayload{Section: section, Index: index}), nil
}

func moveSection(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.MoveSectionPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	count := len(s.Layout.Sections)
	if count == 0 {
		return events.Event{}, events.InvalidArgs("layout has no sections")
	}
	if err := checkIndex("section", p.SectionIndex, count-1, false); err != nil {
		return events.Event{}, err
	}
	if err := checkIndex("target section", p.ToIndex, count-1, true); err != nil {
		return events.Event{}, err
	}

	section, _ := store.SelectSection(s, p.SectionIndex)
	to := resolvedIndex(p.ToIndex, count-1)
	change := store.NewAction(store.LayoutMoveSection, store.MoveSection{From: p.SectionIndex, To: p.ToIndex})
	if err := layoutChange(env, cmd, change, nil, nil); err != nil {
		return events.Event{}, err
	}
	return events.New(events.LayoutSectionMoved, events.LayoutSectionMovedPayload{
		Section:   section,
		FromIndex: p.SectionIndex,
		ToIndex:   to,
	}), nil
}

func removeSection(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RemoveSectionPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	section, ok := store.SelectSection(s, p.Index)
	if !ok {
		return events.Event{}, events.InvalidArgs("section %d does not exist", p.Index)
	}

	change := store.NewAction(store.LayoutRemoveSection, store.RemoveSection{Index: p.Index})
	if err := layoutChange(env, cmd, change, nil, nil); err != nil {
		return events.Event{}, err
	}
	return events.New(events.LayoutSectionRemoved, events.LayoutSectionRemovedPayload{Section: section, Index: p.Index}), nil
}

func changeSectionHeader(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ChangeSectionHeaderPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	section, ok := store.SelectSection(s, p.Index)
	if !ok {
		return events.Event{}, events.InvalidArgs("section %d does not exist", p.Index)
	}

	header := p.Header
	if p.MergeHeaders {
		if header.Title == "" {
			header.Title = section.Header.Title
		}
		if header.Description == "" {
			header.Description = section.Header.Description
		}
	}

	change := store.NewAction(store.LayoutChangeSectionHeader, store.ChangeSectionHeader{Index: p.Index, Header: header})
	if err := layoutChange(env, cmd, change, nil, nil); err != nil {
		return events.Event{}, err
	}
	return events.New(events.LayoutSectionHeaderChanged, events.LayoutSectionHeaderChangedPayload{Header: header, Index: p.Index}), nil
}

func addSectionItems(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.AddItemsPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	if len(p.Items) == 0 {
		return events.Event{}, events.InvalidArgs("no items to add")
	}
	if err := checkItemTarget(env.Store.State(), p.SectionIndex, p.ItemIndex); err != nil {
		return events.Event{}, err
	}

	normalized, insights, err := prepareItems(ctx, env, env.Store.State().Layout.Widgets, p.Items)
	if err != nil {
		return events.Event{}, err
	}

	s := env.Store.State()
	if err := checkItemTarget(s, p.SectionIndex, p.ItemIndex); err != nil {
		return events.Event{}, err
	}
	start := resolvedIndex(p.ItemIndex, len(s.Layout.Sections[p.SectionIndex].Items))

	change := store.NewAction(store.LayoutAddItems, store.AddItems{
		SectionIndex: p.SectionIndex,
		ItemIndex:    p.ItemIndex,
		Items:        normalized.Items,
		Widgets:      normalized.Widgets,
		Nested:       normalized.Nested,
	})
	if err := layoutChange(env, cmd, change, insights, normalized.Widgets); err != nil {
		return events.Event{}, err
	}

	after := env.Store.State()
	added := make([]models.Item, 0, len(normalized.Items))
	for i := range normalized.Items {
		if item, ok := store.SelectItem(after, p.SectionIndex, start+i); ok {
			added = append(added, item)
		}
	}
	return events.New(events.LayoutItemsAdded, events.LayoutItemsAddedPayload{
		SectionIndex:  p.SectionIndex,
		StartingIndex: start,
		Items:         added,
	}), nil
}

func checkItemTarget(s *store.State, sectionIndex, itemIndex int) error {
	if sectionIndex < 0 || sectionIndex >= len(s.Layout.Sections) {
		return events.InvalidArgs("section %d does not exist", sectionIndex)
	}
	return checkIndex("item", itemIndex, len(s.Layout.Sections[sectionIndex].Items), true)
}

func moveSectionItem(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.MoveItemPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	item, ok := store.SelectItem(s, p.SectionIndex, p.ItemIndex)
	if !ok {
		return events.Event{}, events.InvalidArgs("item %d in section %d does not exist", p.ItemIndex, p.SectionIndex)
	}
	if p.ToSectionIndex < 0 || p.ToSectionIndex >= len(s.Layout.Sections) {
		return events.Event{}, events.InvalidArgs("section %d does not exist", p.ToSectionIndex)
	}
	targetLen := len(s.Layout.Sections[p.ToSectionIndex].Items)
	if p.ToSectionIndex == p.SectionIndex {
		targetLen--
	}
	if err := checkIndex("target item", p.ToItemIndex, targetLen, true); err != nil {
		return events.Event{}, err
	}

	change := store.NewAction(store.LayoutMoveItem, store.MoveItem{
		SectionIndex:   p.SectionIndex,
		ItemIndex:      p.ItemIndex,
		ToSectionIndex: p.ToSectionIndex,
		ToItemIndex:    p.ToItemIndex,
	})
	if err := layoutChange(env, cmd, change, nil, nil); err != nil {
		return events.Event{}, err
	}
	return events.New(events.LayoutItemMoved, events.LayoutItemMovedPayload{
		Item:             item,
		FromSectionIndex: p.SectionIndex,
		ToSectionIndex:   p.ToSectionIndex,
		FromIndex:        p.ItemIndex,
		ToIndex:          resolvedIndex(p.ToItemIndex, targetLen),
	}), nil
}

func removeSectionItem(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RemoveItemPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	return removeItemAt(env, cmd, p.SectionIndex, p.ItemIndex, p.EagerRemoveSectionIfEmpty)
}

// removeSectionItemByWidgetRef only finds widgets placed directly in the root layout.
func removeSectionItemByWidgetRef(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.RemoveItemByWidgetRefPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	key, _, err := validation.ValidateExistingWidget(s, p.Widget, env.Resolver())
	if err != nil {
		return events.Event{}, err
	}
	sectionIndex, itemIndex, ok := store.SelectWidgetLocation(s, key)
	if !ok {
		return events.Event{}, events.InvalidArgs("widget %s is not placed in the dashboard layout", p.Widget)
	}
	return removeItemAt(env, cmd, sectionIndex, itemIndex, p.EagerRemoveSectionIfEmpty)
}

func removeItemAt(env *Env, cmd commands.Command, sectionIndex, itemIndex int, eager bool) (events.Event, error) {
	s := env.Store.State()
	item, ok := store.SelectItem(s, sectionIndex, itemIndex)
	if !ok {
		return events.Event{}, events.InvalidArgs("item %d in section %d does not exist", itemIndex, sectionIndex)
	}
	sectionRemoved := eager && len(s.Layout.Sections[sectionIndex].Items) == 1

	change := store.NewAction(store.LayoutRemoveItem, store.RemoveItem{
		SectionIndex:       sectionIndex,
		ItemIndex:          itemIndex,
		RemoveEmptySection: eager,
	})
	if err := layoutChange(env, cmd, change, nil, nil); err != nil {
		return events.Event{}, err
	}
	return events.New(events.LayoutItemRemoved, events.LayoutItemRemovedPayload{
		Item:           item,
		SectionIndex:   sectionIndex,
		ItemIndex:      itemIndex,
		SectionRemoved: sectionRemoved,
	}), nil
}

func replaceSectionItem(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.ReplaceItemPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	s := env.Store.State()
	previous, ok := store.SelectItem(s, p.SectionIndex, p.ItemIndex)
	if !ok {
		return events.Event{}, events.InvalidArgs("item %d in section %d does not exist", p.ItemIndex, p.SectionIndex)
	}

	// The replaced subtree releases its widget identifiers for reuse.
	existing := make(map[string]models.Widget, len(s.Layout.Widgets))
	for k, w := range s.Layout.Widgets {
		existing[k] = w
	}
	for _, key := range widgetSubtree(s, s.Layout.Sections[p.SectionIndex].Items[p.ItemIndex].WidgetKey) {
		delete(existing, key)
	}

	normalized, insights, err := prepareItems(ctx, env, existing, []models.Item{p.Item})
	if err != nil {
		return events.Event{}, err
	}
	if _, ok := store.SelectItem(env.Store.State(), p.SectionIndex, p.ItemIndex); !ok {
		return events.Event{}, events.InvalidArgs("item %d in section %d does not exist", p.ItemIndex, p.SectionIndex)
	}

	change := store.NewAction(store.LayoutReplaceItem, store.ReplaceItem{
		SectionIndex: p.SectionIndex,
		ItemIndex:    p.ItemIndex,
		Item:         normalized.Items[0],
		Widgets:      normalized.Widgets,
		Nested:       normalized.Nested,
	})
	if err := layoutChange(env, cmd, change, insights, normalized.Widgets); err != nil {
		return events.Event{}, err
	}

	item, _ := store.SelectItem(env.Store.State(), p.SectionIndex, p.ItemIndex)
	return events.New(events.LayoutItemReplaced, events.LayoutItemReplacedPayload{
		Previous:     previous,
		Item:         item,
		SectionIndex: p.SectionIndex,
		ItemIndex:    p.ItemIndex,
	}), nil
}

func undoLayoutChanges(ctx context.Context, env *Env, cmd commands.Command) (events.Event, error) {
	p, err := payload[commands.UndoLayoutPayload](cmd)
	if err != nil {
		return events.Event{}, err
	}
	steps := p.Steps
	if steps == 0 {
		steps = 1
	}
	s := env.Store.State()
	count := store.SelectUndoCount(s)
	if steps < 0 || steps > count {
		return events.Event{}, events.InvalidArgs("cannot undo %d layout changes, %d recorded", steps, count)
	}

	undone := make([]string, 0, steps)
	for i := count - 1; i >= count-steps; i-- {
		undone = append(undone, s.Layout.Undo[i].Command.Type)
	}

	restore := store.NewAction(store.LayoutUndo, store.Undo{Steps: steps})
	after, err := store.Preview(s, restore)
	if err != nil {
		return events.Event{}, events.Internal(err, "failed to restore layout")
	}
	batch := append([]store.Action{restore}, layoutMarkerActions(env, after, store.SelectWidgetsInOrder(after), nil)...)
	if err := dispatch(env, batch...); err != nil {
		return events.Event{}, err
	}
	emitLayoutChanged(env, cmd)

	return events.New(events.LayoutChangesUndone, events.LayoutChangesUndonePayload{
		Undone: undone,
		Layout: store.SelectLayout(env.Store.State()),
	}), nil
}
