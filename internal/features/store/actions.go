package store

import (
	"fmt"
	"time"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

// Action is one state delta. Undo is set on layout actions that can be reverted
// and carries the command that produced them.
type Action struct {
	Type    string
	Payload any
	Undo    *UndoMeta
}

type UndoMeta struct {
	Command commands.Command
}

func (a Action) WithUndo(cmd commands.Command) Action {
	a.Undo = &UndoMeta{Command: cmd}
	return a
}

type reducer func(s *State, a Action) error

var reducers = map[string]reducer{}

func payloadOf[T any](a Action) (T, error) {
	p, ok := a.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected payload %T", a.Payload)
	}
	return p, nil
}

const (
	MetaSet      = "meta/set"
	MetaSetTitle = "meta/setTitle"
	MetaSetSaved = "meta/setSaved"

	LayoutSet                 = "layout/set"
	LayoutAddSection          = "layout/addSection"
	LayoutMoveSection         = "layout/moveSection"
	LayoutRemoveSection       = "layout/removeSection"
	LayoutChangeSectionHeader = "layout/changeSectionHeader"
	LayoutAddItems            = "layout/addSectionItems"
	LayoutMoveItem            = "layout/moveSectionItem"
	LayoutRemoveItem          = "layout/removeSectionItem"
	LayoutReplaceItem         = "layout/replaceSectionItem"
	LayoutUndo                = "layout/undo"

	WidgetSetHeader            = "layout/changeWidgetHeader"
	WidgetSetKPIMeasure        = "layout/changeKpiWidgetMeasure"
	WidgetSetKPIComparison     = "layout/changeKpiWidgetComparison"
	WidgetSetInsightProperties = "layout/changeInsightWidgetVisProperties"
	WidgetSetRichTextContent   = "layout/changeRichTextWidgetContent"
	WidgetSetFilterSettings    = "layout/changeWidgetFilterSettings"
	WidgetSetDrills            = "layout/replaceWidgetDrills"

	FilterContextSet                 = "filterContext/set"
	FilterContextChangeDateSelection = "filterContext/upsertDateFilter"
	FilterContextAddAttribute        = "filterContext/addAttributeFilter"
	FilterContextRemoveAttributes    = "filterContext/removeAttributeFilters"
	FilterContextMoveAttribute       = "filterContext/moveAttributeFilter"
	FilterContextChangeSelection     = "filterContext/updateAttributeFilterSelection"
	FilterContextSetParents          = "filterContext/setAttributeFilterParents"

	DateFilterConfigSet = "dateFilterConfig/set"
	CatalogSet          = "catalog/set"
	InsightsUpsert      = "insights/upsert"

	AlertsSet    = "alerts/set"
	AlertsAdd    = "alerts/add"
	AlertsUpdate = "alerts/update"
	AlertsRemove = "alerts/remove"

	UISetInvalidDrills        = "ui/setInvalidDrills"
	UISetInvalidCustomURLArgs = "ui/setInvalidCustomUrlDrillParameters"
	UIClearWidget             = "ui/clearWidgetMarkers"
	UISetLoading              = "ui/setLoading"

	PersistedSet = "persisted/set"
)

type SetTitle struct{ Title string }

type SetSaved struct {
	Identity  objref.Identity
	UpdatedAt time.Time
}

type SetLayout struct {
	Sections []SectionState
	Widgets  map[string]models.Widget
	Nested   map[string][]SectionState
}

// AddSection inserts Section at Index (-1 appends) and registers its widgets.
type AddSection struct {
	Index   int
	Section SectionState
	Widgets []models.Widget
	Nested  map[string][]SectionState
}

type MoveSection struct{ From, To int }

type RemoveSection struct{ Index int }

type ChangeSectionHeader struct {
	Index  int
	Header models.SectionHeader
}

type AddItems struct {
	SectionIndex int
	ItemIndex    int
	Items        []ItemState
	Widgets      []models.Widget
	Nested       map[string][]SectionState
}

// MoveItem takes the item out first, then inserts it at ToItemIndex (-1 appends).
type MoveItem struct {
	SectionIndex, ItemIndex     int
	ToSectionIndex, ToItemIndex int
}

type RemoveItem struct {
	SectionIndex       int
	ItemIndex          int
	RemoveEmptySection bool
}

type ReplaceItem struct {
	SectionIndex int
	ItemIndex    int
	Item         ItemState
	Widgets      []models.Widget
	Nested       map[string][]SectionState
}

type Undo struct{ Steps int }

type SetWidgetHeader struct {
	Key   string
	Title string
}

type SetKPIMeasure struct {
	Key    string
	Metric objref.ObjRef
}

type SetKPIComparison struct {
	Key       string
	Type      models.KPIComparisonType
	Direction string
}

type SetInsightProperties struct {
	Key        string
	Properties map[string]any
}

type SetRichTextContent struct {
	Key     string
	Content string
}

type SetFilterSettings struct {
	Key            string
	IgnoredFilters []models.FilterReference
	DateDataSet    *objref.ObjRef
}

type SetDrills struct {
	Key    string
	Drills []models.Drill
}

type SetFilterContext struct {
	Identity objref.Identity
	Filters  []models.FilterContextItem
}

type UpsertDateFilter struct{ Filter models.DateFilter }

// AddAttributeFilter inserts at Index among attribute filters; -1 appends.
type AddAttributeFilter struct {
	Filter models.AttributeFilter
	Index  int
}

type RemoveAttributeFilters struct{ LocalIDs []string }

type MoveAttributeFilter struct {
	LocalID string
	Index   int
}

type ChangeAttributeSelection struct {
	LocalID  string
	Elements models.AttributeElements
	Negative bool
}

type SetAttributeFilterParents struct {
	LocalID string
	Parents []models.AttributeFilterParent
}

type SetDateFilterConfig struct {
	Workspace models.DateFilterConfig
	Override  *models.DateFilterConfigOverride
}

type SetCatalog struct {
	Catalog  models.Catalog
	LoadedAt time.Time
}

type UpsertInsights struct{ Insights []models.Insight }

type SetAutomations struct{ Items []models.Automation }

type PutAutomation struct{ Automation models.Automation }

// RemoveAutomations removes by identity; both forms are compared literally.
type RemoveAutomations struct{ Identities []objref.Identity }

type SetInvalidDrills struct {
	Key    string
	Drills []models.Drill
}

type SetInvalidCustomURLArgs struct {
	Key    string
	Params []InvalidCustomURLParameter
}

type ClearWidget struct{ Key string }

type SetLoading struct {
	Name    string
	Loading bool
}

type SetPersisted struct{ Dashboard *models.Dashboard }

func NewAction(actionType string, payload any) Action {
	return Action{Type: actionType, Payload: payload}
}
