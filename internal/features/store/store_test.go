package store

import (
	"testing"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kpiWidget(id string) *models.Widget {
	return &models.Widget{
		Type:     models.WidgetKPI,
		Identity: objref.Identity{Identifier: id, URI: "/gdc/md/" + id},
		Title:    id,
		KPI:      &models.KPIWidgetConfig{Metric: objref.IDRef("m1"), ComparisonType: models.KPIComparisonNone},
	}
}

func sampleDocument() models.Dashboard {
	return models.Dashboard{
		Identity: objref.Identity{Identifier: "dash"},
		Title:    "Sales",
		Layout: models.Layout{Sections: []models.Section{
			{
				Header: models.SectionHeader{Title: "first"},
				Items: []models.Item{
					{Size: models.ItemSize{GridWidth: 6}, Widget: kpiWidget("w1")},
					{Size: models.ItemSize{GridWidth: 6}, Widget: kpiWidget("w2")},
				},
			},
			{
				Header: models.SectionHeader{Title: "second"},
				Items: []models.Item{
					{Size: models.ItemSize{GridWidth: 12}, Widget: &models.Widget{
						Type:     models.WidgetDashboardLayout,
						Identity: objref.Identity{Identifier: "nested"},
						Layout: &models.Layout{Sections: []models.Section{{
							Items: []models.Item{{Size: models.ItemSize{GridWidth: 4}, Widget: kpiWidget("w3")}},
						}}},
					}},
				},
			},
		}},
		FilterContext: models.FilterContext{Filters: []models.FilterContextItem{
			{AttributeFilter: &models.AttributeFilter{LocalIdentifier: "f1", DisplayForm: objref.IDRef("df1")}},
			{DateFilter: &models.DateFilter{Type: models.DateFilterAllTime, Granularity: models.GranularityYear}},
			{AttributeFilter: &models.AttributeFilter{LocalIdentifier: "f2", DisplayForm: objref.IDRef("df2")}},
		}},
	}
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	batch, err := DocumentActions(sampleDocument())
	require.NoError(t, err)
	require.NoError(t, s.Dispatch(batch...))
	return s
}

func TestDocumentRoundTrip(t *testing.T) {
	s := loadedStore(t)
	doc := SelectDocument(s.State())

	require.Len(t, doc.Layout.Sections, 2)
	assert.Equal(t, "w1", doc.Layout.Sections[0].Items[0].Widget.Identifier)
	nested := doc.Layout.Sections[1].Items[0].Widget
	require.NotNil(t, nested.Layout)
	assert.Equal(t, "w3", nested.Layout.Sections[0].Items[0].Widget.Identifier)
	assert.Len(t, s.State().Layout.Widgets, 4)
}

func TestDateFilterIsFirst(t *testing.T) {
	s := loadedStore(t)
	filters := s.State().FilterContext.Filters

	require.Len(t, filters, 3)
	assert.True(t, filters[0].IsDate())
	assert.Equal(t, "f1", filters[1].AttributeFilter.LocalIdentifier)
	assert.Equal(t, "f2", filters[2].AttributeFilter.LocalIdentifier)
}

func TestDispatchIsAtomic(t *testing.T) {
	s := loadedStore(t)
	before := s.State()
	version := s.Version()

	err := s.Dispatch(
		NewAction(MetaSetTitle, SetTitle{Title: "changed"}),
		NewAction(LayoutRemoveSection, RemoveSection{Index: 9}),
	)

	require.Error(t, err)
	assert.Same(t, before, s.State())
	assert.Equal(t, "Sales", s.State().Meta.Title)
	assert.Equal(t, version, s.Version())
}

func TestDispatchUnknownAction(t *testing.T) {
	s := New()
	err := s.Dispatch(NewAction("nope", nil))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSnapshotsAreNotMutated(t *testing.T) {
	s := loadedStore(t)
	before := s.State()

	require.NoError(t, s.Dispatch(NewAction(WidgetSetKPIMeasure, SetKPIMeasure{Key: "w1", Metric: objref.IDRef("m2")})))
	require.NoError(t, s.Dispatch(NewAction(FilterContextChangeSelection, ChangeAttributeSelection{
		LocalID:  "f1",
		Elements: models.AttributeElements{Values: []string{"a"}},
	})))

	assert.Equal(t, "m1", before.Layout.Widgets["w1"].KPI.Metric.Identifier)
	assert.Equal(t, "m2", s.State().Layout.Widgets["w1"].KPI.Metric.Identifier)
	assert.Empty(t, before.FilterContext.Filters[1].AttributeFilter.Elements.Values)
}

func TestListenersSeeWholeBatch(t *testing.T) {
	s := loadedStore(t)
	var seen []int
	unsubscribe := s.Subscribe(func(st *State, batch []Action) {
		seen = append(seen, len(batch))
		assert.Equal(t, "renamed", st.Meta.Title)
		assert.Len(t, st.Layout.Sections, 1)
	})

	require.NoError(t, s.Dispatch(
		NewAction(MetaSetTitle, SetTitle{Title: "renamed"}),
		NewAction(LayoutRemoveSection, RemoveSection{Index: 1}),
	))
	unsubscribe()
	require.NoError(t, s.Dispatch(NewAction(MetaSetTitle, SetTitle{Title: "again"})))

	assert.Equal(t, []int{2}, seen)
}

func TestLayoutReducers(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, st *State)
	}{
		{
			name:   "move section",
			action: NewAction(LayoutMoveSection, MoveSection{From: 0, To: 1}),
			check: func(t *testing.T, st *State) {
				assert.Equal(t, "second", st.Layout.Sections[0].Header.Title)
				assert.Equal(t, "first", st.Layout.Sections[1].Header.Title)
			},
		},
		{
			name:   "remove section drops nested widgets",
			action: NewAction(LayoutRemoveSection, RemoveSection{Index: 1}),
			check: func(t *testing.T, st *State) {
				assert.Len(t, st.Layout.Sections, 1)
				assert.NotContains(t, st.Layout.Widgets, "nested")
				assert.NotContains(t, st.Layout.Widgets, "w3")
				assert.Empty(t, st.Layout.Nested)
			},
		},
		{
			name:   "move item across sections appends",
			action: NewAction(LayoutMoveItem, MoveItem{SectionIndex: 0, ItemIndex: 0, ToSectionIndex: 1, ToItemIndex: -1}),
			check: func(t *testing.T, st *State) {
				assert.Len(t, st.Layout.Sections[0].Items, 1)
				assert.Equal(t, "w1", st.Layout.Sections[1].Items[1].WidgetKey)
			},
		},
		{
			name:   "remove last item and empty section",
			action: NewAction(LayoutRemoveItem, RemoveItem{SectionIndex: 1, ItemIndex: 0, RemoveEmptySection: true}),
			check: func(t *testing.T, st *State) {
				assert.Len(t, st.Layout.Sections, 1)
			},
		},
		{
			name:   "change section header",
			action: NewAction(LayoutChangeSectionHeader, ChangeSectionHeader{Index: 0, Header: models.SectionHeader{Title: "renamed"}}),
			check: func(t *testing.T, st *State) {
				assert.Equal(t, "renamed", st.Layout.Sections[0].Header.Title)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedStore(t)
			require.NoError(t, s.Dispatch(tt.action))
			tt.check(t, s.State())
		})
	}
}

func TestAddItemsRejectsDuplicateWidget(t *testing.T) {
	s := loadedStore(t)
	err := s.Dispatch(NewAction(LayoutAddItems, AddItems{
		SectionIndex: 0,
		ItemIndex:    -1,
		Items:        []ItemState{{WidgetKey: "w1"}},
		Widgets:      []models.Widget{*kpiWidget("w1")},
	}))
	assert.Error(t, err)
}

func TestUndo(t *testing.T) {
	s := loadedStore(t)
	cmd := commands.RemoveSection(0)

	require.NoError(t, s.Dispatch(NewAction(LayoutRemoveSection, RemoveSection{Index: 0}).WithUndo(cmd)))
	require.NoError(t, s.Dispatch(NewAction(LayoutChangeSectionHeader, ChangeSectionHeader{
		Index:  0,
		Header: models.SectionHeader{Title: "x"},
	}).WithUndo(cmd)))
	require.Equal(t, 2, SelectUndoCount(s.State()))

	require.NoError(t, s.Dispatch(NewAction(LayoutUndo, Undo{Steps: 2})))

	st := s.State()
	assert.Equal(t, 0, SelectUndoCount(st))
	require.Len(t, st.Layout.Sections, 2)
	assert.Equal(t, "first", st.Layout.Sections[0].Header.Title)
	assert.Contains(t, st.Layout.Widgets, "w1")

	assert.Error(t, s.Dispatch(NewAction(LayoutUndo, Undo{Steps: 1})))
}

func TestUndoKeepsWidgetEntities(t *testing.T) {
	s := loadedStore(t)
	cmd := commands.AddSection(-1, nil, nil)
	w3 := *kpiWidget("w3")

	require.NoError(t, s.Dispatch(NewAction(LayoutAddItems, AddItems{
		SectionIndex: 0,
		ItemIndex:    -1,
		Items:        []ItemState{{WidgetKey: "w3"}},
		Widgets:      []models.Widget{w3},
	}).WithUndo(cmd)))
	require.NoError(t, s.Dispatch(
		NewAction(WidgetSetHeader, SetWidgetHeader{Key: "w1", Title: "renamed"}),
		NewAction(UISetInvalidDrills, SetInvalidDrills{Key: "w3", Drills: []models.Drill{{LocalIdentifier: "d1"}}}),
	))

	next, err := Preview(s.State(), NewAction(LayoutUndo, Undo{Steps: 1}))
	require.NoError(t, err)
	assert.Equal(t, 1, SelectUndoCount(s.State()), "preview must not commit")
	assert.NotContains(t, next.Layout.Widgets, "w3")

	require.NoError(t, s.Dispatch(NewAction(LayoutUndo, Undo{Steps: 1})))
	st := s.State()
	assert.Equal(t, "renamed", st.Layout.Widgets["w1"].Title)
	assert.NotContains(t, st.Layout.Widgets, "w3")
	assert.NotContains(t, st.UI.InvalidDrills, "w3")
	assert.Len(t, st.Layout.Sections[0].Items, 2)
}

func TestUndoIsCapped(t *testing.T) {
	s := loadedStore(t)
	cmd := commands.RemoveSection(0)
	for i := 0; i < maxUndoEntries+5; i++ {
		require.NoError(t, s.Dispatch(NewAction(LayoutChangeSectionHeader, ChangeSectionHeader{
			Index:  0,
			Header: models.SectionHeader{Title: "t"},
		}).WithUndo(cmd)))
	}
	assert.Equal(t, maxUndoEntries, SelectUndoCount(s.State()))
}

func TestFilterReducers(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   []string
	}{
		{
			name:   "add at index zero lands after date filter",
			action: NewAction(FilterContextAddAttribute, AddAttributeFilter{Filter: models.AttributeFilter{LocalIdentifier: "f3"}, Index: 0}),
			want:   []string{"date", "f3", "f1", "f2"},
		},
		{
			name:   "add appends",
			action: NewAction(FilterContextAddAttribute, AddAttributeFilter{Filter: models.AttributeFilter{LocalIdentifier: "f3"}, Index: -1}),
			want:   []string{"date", "f1", "f2", "f3"},
		},
		{
			name:   "move to front",
			action: NewAction(FilterContextMoveAttribute, MoveAttributeFilter{LocalID: "f2", Index: 0}),
			want:   []string{"date", "f2", "f1"},
		},
		{
			name:   "remove",
			action: NewAction(FilterContextRemoveAttributes, RemoveAttributeFilters{LocalIDs: []string{"f1"}}),
			want:   []string{"date", "f2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedStore(t)
			require.NoError(t, s.Dispatch(tt.action))
			var got []string
			for _, item := range s.State().FilterContext.Filters {
				if item.IsDate() {
					got = append(got, "date")
					continue
				}
				got = append(got, item.AttributeFilter.LocalIdentifier)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveAttributeFilterDropsParentEdges(t *testing.T) {
	s := loadedStore(t)
	require.NoError(t, s.Dispatch(NewAction(FilterContextSetParents, SetAttributeFilterParents{
		LocalID: "f2",
		Parents: []models.AttributeFilterParent{{FilterLocalIdentifier: "f1"}},
	})))
	require.NoError(t, s.Dispatch(NewAction(FilterContextRemoveAttributes, RemoveAttributeFilters{LocalIDs: []string{"f1"}})))

	f2, _, ok := SelectAttributeFilterByLocalID(s.State(), "f2")
	require.True(t, ok)
	assert.Empty(t, f2.FilterElementsBy)
}

func TestSelectWidgetByRef(t *testing.T) {
	s := loadedStore(t)

	key, w, ok := SelectWidgetByRef(s.State(), objref.URIRef("/gdc/md/w3"), nil)
	require.True(t, ok)
	assert.Equal(t, "w3", key)
	assert.Equal(t, models.WidgetKPI, w.Type)

	_, _, ok = SelectWidgetByRef(s.State(), objref.IDRef("missing"), nil)
	assert.False(t, ok)
}

func TestNormalizeLayout(t *testing.T) {
	t.Run("generates identifiers", func(t *testing.T) {
		n, err := NormalizeLayout(models.Layout{Sections: []models.Section{{
			Items: []models.Item{{Widget: &models.Widget{Type: models.WidgetRichText}}, {}},
		}}})
		require.NoError(t, err)
		require.Len(t, n.Widgets, 1)
		assert.NotEmpty(t, n.Widgets[0].Identifier)
		assert.Empty(t, n.Sections[0].Items[1].WidgetKey)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NormalizeLayout(models.Layout{Sections: []models.Section{{
			Items: []models.Item{{Widget: kpiWidget("a")}, {Widget: kpiWidget("a")}},
		}}})
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NormalizeLayout(models.Layout{Sections: []models.Section{{
			Items: []models.Item{{Widget: &models.Widget{Type: "chart"}}},
		}}})
		assert.Error(t, err)
	})
}
