package events

import (
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	DashboardInitialized  = "GDC.DASH/EVT.DASHBOARD.INITIALIZED"
	DashboardRenamed      = "GDC.DASH/EVT.DASHBOARD.RENAMED"
	DashboardWasReset     = "GDC.DASH/EVT.DASHBOARD.RESET"
	DashboardSaved        = "GDC.DASH/EVT.DASHBOARD.SAVED"
	DashboardExportedXLSX = "GDC.DASH/EVT.DASHBOARD.EXPORT.XLSX.RESOLVED"
	CatalogRefreshed      = "GDC.DASH/EVT.CATALOG.REFRESHED"
	QueryCacheReset       = "GDC.DASH/EVT.QUERY.CACHE.RESET_DONE"

	DateFilterSelectionChanged      = "GDC.DASH/EVT.FILTER_CONTEXT.DATE_FILTER.SELECTION_CHANGED"
	AttributeFilterAdded            = "GDC.DASH/EVT.FILTER_CONTEXT.ATTRIBUTE_FILTER.ADDED"
	AttributeFilterRemoved          = "GDC.DASH/EVT.FILTER_CONTEXT.ATTRIBUTE_FILTER.REMOVED"
	AttributeFilterMoved            = "GDC.DASH/EVT.FILTER_CONTEXT.ATTRIBUTE_FILTER.MOVED"
	AttributeFilterSelectionChanged = "GDC.DASH/EVT.FILTER_CONTEXT.ATTRIBUTE_FILTER.SELECTION_CHANGED"
	AttributeFilterParentChanged    = "GDC.DASH/EVT.FILTER_CONTEXT.ATTRIBUTE_FILTER.PARENT_CHANGED"

	LayoutSectionAdded         = "GDC.DASH/EVT.FLUID_LAYOUT.SECTION_ADDED"
	LayoutSectionMoved         = "GDC.DASH/EVT.FLUID_LAYOUT.SECTION_MOVED"
	LayoutSectionRemoved       = "GDC.DASH/EVT.FLUID_LAYOUT.SECTION_REMOVED"
	LayoutSectionHeaderChanged = "GDC.DASH/EVT.FLUID_LAYOUT.SECTION_HEADER_CHANGED"
	LayoutItemsAdded           = "GDC.DASH/EVT.FLUID_LAYOUT.ITEMS_ADDED"
	LayoutItemMoved            = "GDC.DASH/EVT.FLUID_LAYOUT.ITEM_MOVED"
	LayoutItemRemoved          = "GDC.DASH/EVT.FLUID_LAYOUT.ITEM_REMOVED"
	LayoutItemReplaced         = "GDC.DASH/EVT.FLUID_LAYOUT.ITEM_REPLACED"
	LayoutChangesUndone        = "GDC.DASH/EVT.FLUID_LAYOUT.CHANGES_UNDONE"

	KPIWidgetHeaderChanged         = "GDC.DASH/EVT.KPI_WIDGET.HEADER_CHANGED"
	KPIWidgetMeasureChanged        = "GDC.DASH/EVT.KPI_WIDGET.MEASURE_CHANGED"
	KPIWidgetComparisonChanged     = "GDC.DASH/EVT.KPI_WIDGET.COMPARISON_CHANGED"
	KPIWidgetFilterSettingsChanged = "GDC.DASH/EVT.KPI_WIDGET.FILTER_SETTINGS_CHANGED"

	InsightWidgetHeaderChanged         = "GDC.DASH/EVT.INSIGHT_WIDGET.HEADER_CHANGED"
	InsightWidgetPropertiesChanged     = "GDC.DASH/EVT.INSIGHT_WIDGET.PROPERTIES_CHANGED"
	InsightWidgetFilterSettingsChanged = "GDC.DASH/EVT.INSIGHT_WIDGET.FILTER_SETTINGS_CHANGED"
	InsightWidgetDrillsModified        = "GDC.DASH/EVT.INSIGHT_WIDGET.DRILLS_MODIFIED"
	InsightWidgetDrillsRemoved         = "GDC.DASH/EVT.INSIGHT_WIDGET.DRILLS_REMOVED"

	RichTextWidgetContentChanged = "GDC.DASH/EVT.RICH_TEXT_WIDGET.CONTENT_CHANGED"

	AlertCreated           = "GDC.DASH/EVT.ALERT.CREATED"
	AlertUpdated           = "GDC.DASH/EVT.ALERT.UPDATED"
	AlertsRemoved          = "GDC.DASH/EVT.ALERTS.REMOVED"
	ScheduledEmailCreated  = "GDC.DASH/EVT.SCHEDULED_EMAIL.CREATED"
	ScheduledEmailsRemoved = "GDC.DASH/EVT.SCHEDULED_EMAILS.REMOVED"
)

type DashboardInitializedPayload struct {
	Dashboard             models.Dashboard        `json:"dashboard"`
	EffectiveDateConfig   models.DateFilterConfig `json:"effectiveDateFilterConfig"`
	DateConfigOverrideBad bool                    `json:"dateFilterConfigOverrideInvalid,omitempty"`
}

type DashboardRenamedPayload struct {
	NewTitle string `json:"newTitle"`
}

type DashboardResetPayload struct {
	Dashboard models.Dashboard `json:"dashboard"`
}

type DashboardSavedPayload struct {
	Dashboard  models.Dashboard `json:"dashboard"`
	NewlySaved bool             `json:"newlySaved"`
}

type DashboardExportedPayload struct {
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
	Content  []byte `json:"content"`
}

type CatalogRefreshedPayload struct {
	Attributes   int `json:"attributes"`
	Measures     int `json:"measures"`
	Facts        int `json:"facts"`
	DateDatasets int `json:"dateDatasets"`
}

type QueryCacheResetPayload struct {
	QueryType string `json:"queryType,omitempty"`
}

type FilterContextChangedPayload struct {
	FilterContext models.FilterContext `json:"filterContext"`
}

type DateFilterSelectionChangedPayload struct {
	DateFilter models.DateFilter `json:"dateFilter"`
}

type AttributeFilterAddedPayload struct {
	Added models.AttributeFilter `json:"added"`
	Index int                    `json:"index"`
}

type AttributeFiltersRemovedPayload struct {
	Removed []models.AttributeFilter `json:"removed"`
	// Children are filters that lost a parent edge to a removed filter.
	Children []models.AttributeFilter `json:"children,omitempty"`
}

type AttributeFilterMovedPayload struct {
	Moved     models.AttributeFilter `json:"moved"`
	FromIndex int                    `json:"fromIndex"`
	ToIndex   int                    `json:"toIndex"`
}

type AttributeFilterSelectionChangedPayload struct {
	Filter models.AttributeFilter `json:"filter"`
}

type AttributeFilterParentChangedPayload struct {
	Filter models.AttributeFilter `json:"filter"`
}

type LayoutSectionAddedPayload struct {
	Section models.Section `json:"section"`
	Index   int            `json:"index"`
}

type LayoutSectionMovedPayload struct {
	Section   models.Section `json:"section"`
	FromIndex int            `json:"fromIndex"`
	ToIndex   int            `json:"toIndex"`
}

type LayoutSectionRemovedPayload struct {
	Section models.Section `json:"section"`
	Index   int            `json:"index"`
}

type LayoutSectionHeaderChangedPayload struct {
	Header models.SectionHeader `json:"newHeader"`
	Index  int                  `json:"sectionIndex"`
}

type LayoutItemsAddedPayload struct {
	SectionIndex  int           `json:"sectionIndex"`
	StartingIndex int           `json:"startingIndex"`
	Items         []models.Item `json:"itemsAdded"`
}

type LayoutItemMovedPayload struct {
	Item             models.Item `json:"item"`
	FromSectionIndex int         `json:"fromSectionIndex"`
	ToSectionIndex   int         `json:"toSectionIndex"`
	FromIndex        int         `json:"fromIndex"`
	ToIndex          int         `json:"toIndex"`
}

type LayoutItemRemovedPayload struct {
	Item           models.Item `json:"item"`
	SectionIndex   int         `json:"sectionIndex"`
	ItemIndex      int         `json:"itemIndex"`
	SectionRemoved bool        `json:"sectionRemoved,omitempty"`
}

type LayoutItemReplacedPayload struct {
	Previous     models.Item `json:"previousItem"`
	Item         models.Item `json:"item"`
	SectionIndex int         `json:"sectionIndex"`
	ItemIndex    int         `json:"itemIndex"`
}

type LayoutChangesUndonePayload struct {
	Undone []string      `json:"undone"`
	Layout models.Layout `json:"layout"`
}

type WidgetHeaderChangedPayload struct {
	Ref   objref.ObjRef `json:"ref"`
	Title string        `json:"header"`
}

type KPIMeasureChangedPayload struct {
	Ref     objref.ObjRef         `json:"ref"`
	Measure models.CatalogMeasure `json:"measure"`
	Title   string                `json:"header"`
}

type KPIComparisonChangedPayload struct {
	Ref objref.ObjRef          `json:"ref"`
	KPI models.KPIWidgetConfig `json:"kpi"`
}

type WidgetFilterSettingsChangedPayload struct {
	Ref                     objref.ObjRef              `json:"ref"`
	IgnoredAttributeFilters []models.AttributeFilter   `json:"ignoredAttributeFilters"`
	DateDatasetForFiltering *models.CatalogDateDataset `json:"dateDatasetForFiltering,omitempty"`
}

type InsightPropertiesChangedPayload struct {
	Ref        objref.ObjRef  `json:"ref"`
	Properties map[string]any `json:"properties"`
}

type DrillsModifiedPayload struct {
	Ref     objref.ObjRef  `json:"ref"`
	Added   []models.Drill `json:"added"`
	Updated []models.Drill `json:"updated"`
}

type DrillsRemovedPayload struct {
	Ref     objref.ObjRef  `json:"ref"`
	Removed []models.Drill `json:"removed"`
}

type RichTextContentChangedPayload struct {
	Ref     objref.ObjRef `json:"ref"`
	Content string        `json:"content"`
}

type AutomationPayload struct {
	Automation models.Automation `json:"automation"`
}

// AutomationsRemovedPayload lists what was deleted. Failed holds refs the
// backend refused; they stay on the dashboard.
type AutomationsRemovedPayload struct {
	Removed []models.Automation `json:"removed"`
	Failed  []objref.ObjRef     `json:"failed,omitempty"`
}

// LayoutChangedPayload accompanies every successful layout command.
type LayoutChangedPayload struct {
	Layout models.Layout `json:"layout"`
}
