package store

import (
	"time"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

// State is the normalized dashboard document plus derived and transient slices.
// A State handed out by the Store is never mutated afterwards.
type State struct {
	Meta             MetaState
	Layout           LayoutState
	FilterContext    FilterContextState
	DateFilterConfig DateFilterConfigState
	Catalog          CatalogState
	Insights         InsightsState
	Alerts           AlertsState
	UI               UIState
	Persisted        *models.Dashboard
}

type MetaState struct {
	objref.Identity
	Title       string
	Description string
	Tags        []string
	Plugins     []models.PluginLink
	Permissions models.Permissions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemState references its widget by key in LayoutState.Widgets. An empty key is a placeholder.
type ItemState struct {
	Size      models.ItemSize
	WidgetKey string
}

type SectionState struct {
	Header models.SectionHeader
	Items  []ItemState
}

// LayoutState keeps widgets in a flat arena keyed by widget identifier. Sections of
// nested dashboardLayout widgets live in Nested under the owning widget key.
type LayoutState struct {
	Sections []SectionState
	Widgets  map[string]models.Widget
	Nested   map[string][]SectionState
	Undo     []UndoEntry
}

// UndoEntry is the layout as it was before the command ran.
type UndoEntry struct {
	Command  commands.Command
	Sections []SectionState
	Widgets  map[string]models.Widget
	Nested   map[string][]SectionState
}

type FilterContextState struct {
	objref.Identity
	Filters []models.FilterContextItem
}

type DateFilterConfigState struct {
	Workspace models.DateFilterConfig
	Override  *models.DateFilterConfigOverride
	Effective models.DateFilterConfig
	Valid     bool
}

type CatalogState struct {
	Catalog  models.Catalog
	LoadedAt time.Time
}

type InsightsState struct {
	ByKey map[string]models.Insight
}

type AlertsState struct {
	Items []models.Automation
}

type InvalidCustomURLParameter struct {
	DrillLocalIdentifier string
	InvalidParameters    []string
}

// UIState holds transient markers that are never persisted with the document.
type UIState struct {
	InvalidDrills             map[string][]models.Drill
	InvalidCustomURLDrillArgs map[string][]InvalidCustomURLParameter
	Loading                   map[string]bool
}

func emptyState() *State {
	return &State{
		Layout: LayoutState{
			Sections: []SectionState{},
			Widgets:  map[string]models.Widget{},
			Nested:   map[string][]SectionState{},
		},
		FilterContext: FilterContextState{Filters: []models.FilterContextItem{}},
		Insights:      InsightsState{ByKey: map[string]models.Insight{}},
		Alerts:        AlertsState{Items: []models.Automation{}},
		UI: UIState{
			InvalidDrills:             map[string][]models.Drill{},
			InvalidCustomURLDrillArgs: map[string][]InvalidCustomURLParameter{},
			Loading:                   map[string]bool{},
		},
	}
}
