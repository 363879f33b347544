package models

import (
	"go-dashboard/pkg/objref"
)

type Layout struct {
	Sections []Section `bson:"sections" json:"sections"`
}

type Section struct {
	Header SectionHeader `bson:"header" json:"header"`
	Items  []Item        `bson:"items" json:"items"`
}

type SectionHeader struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

type ItemSize struct {
	GridWidth  int `bson:"grid_width" json:"gridWidth"`
	GridHeight int `bson:"grid_height,omitempty" json:"gridHeight,omitempty"`
}

// Item holds exactly one widget. A nil Widget marks a placeholder.
type Item struct {
	Size   ItemSize `bson:"size" json:"size"`
	Widget *Widget  `bson:"widget,omitempty" json:"widget,omitempty"`
}

type WidgetType string

const (
	WidgetInsight               WidgetType = "insight"
	WidgetKPI                   WidgetType = "kpi"
	WidgetRichText              WidgetType = "richText"
	WidgetVisualizationSwitcher WidgetType = "visualizationSwitcher"
	WidgetDashboardLayout       WidgetType = "dashboardLayout"
)

func (t WidgetType) Valid() bool {
	switch t {
	case WidgetInsight, WidgetKPI, WidgetRichText, WidgetVisualizationSwitcher, WidgetDashboardLayout:
		return true
	}
	return false
}

// Widget is a closed union discriminated by Type. Exactly the config pointer
// matching Type is set.
type Widget struct {
	Type            WidgetType `bson:"type" json:"type"`
	objref.Identity `bson:",inline"`
	Title           string            `bson:"title" json:"title"`
	Description     string            `bson:"description" json:"description"`
	Drills          []Drill           `bson:"drills" json:"drills"`
	IgnoredFilters  []FilterReference `bson:"ignore_dashboard_filters" json:"ignoreDashboardFilters"`
	DateDataSet     *objref.ObjRef    `bson:"date_data_set,omitempty" json:"dateDataSet,omitempty"`

	Insight  *InsightWidgetConfig  `bson:"insight,omitempty" json:"insight,omitempty"`
	KPI      *KPIWidgetConfig      `bson:"kpi,omitempty" json:"kpi,omitempty"`
	RichText *RichTextWidgetConfig `bson:"rich_text,omitempty" json:"richText,omitempty"`
	Switcher *SwitcherWidgetConfig `bson:"switcher,omitempty" json:"switcher,omitempty"`
	Layout   *Layout               `bson:"layout,omitempty" json:"layout,omitempty"`
}

type InsightWidgetConfig struct {
	Insight    objref.ObjRef  `bson:"insight" json:"insight"`
	Properties map[string]any `bson:"properties,omitempty" json:"properties,omitempty"`
}

type KPIComparisonType string

const (
	KPIComparisonNone           KPIComparisonType = "none"
	KPIComparisonPreviousPeriod KPIComparisonType = "previousPeriod"
	KPIComparisonLastYear       KPIComparisonType = "lastYear"
)

func (t KPIComparisonType) Valid() bool {
	return t == KPIComparisonNone || t == KPIComparisonPreviousPeriod || t == KPIComparisonLastYear
}

const (
	GrowIsGood = "growIsGood"
	GrowIsBad  = "growIsBad"
)

type KPIWidgetConfig struct {
	Metric              objref.ObjRef     `bson:"metric" json:"metric"`
	ComparisonType      KPIComparisonType `bson:"comparison_type" json:"comparisonType"`
	ComparisonDirection string            `bson:"comparison_direction,omitempty" json:"comparisonDirection,omitempty"`
}

type RichTextWidgetConfig struct {
	Content string `bson:"content" json:"content"`
}

type SwitcherWidgetConfig struct {
	Visualizations []Widget `bson:"visualizations" json:"visualizations"`
}

// FilterReferenceType tells which dashboard filter a widget ignores.
type FilterReferenceType string

const (
	AttributeFilterReference FilterReferenceType = "attributeFilterReference"
	DateFilterReference      FilterReferenceType = "dateFilterReference"
)

type FilterReference struct {
	Type        FilterReferenceType `bson:"type" json:"type"`
	DisplayForm *objref.ObjRef      `bson:"display_form,omitempty" json:"displayForm,omitempty"`
	DataSet     *objref.ObjRef      `bson:"data_set,omitempty" json:"dataSet,omitempty"`
}

func AttributeFilterRef(displayForm objref.ObjRef) FilterReference {
	return FilterReference{Type: AttributeFilterReference, DisplayForm: &displayForm}
}

func DateFilterRef(dataSet objref.ObjRef) FilterReference {
	return FilterReference{Type: DateFilterReference, DataSet: &dataSet}
}
