package commands

import (
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	ChangeKPIWidgetHeader         = "GDC.DASH/CMD.KPI_WIDGET.CHANGE_HEADER"
	ChangeKPIWidgetMeasure        = "GDC.DASH/CMD.KPI_WIDGET.CHANGE_MEASURE"
	ChangeKPIWidgetComparison     = "GDC.DASH/CMD.KPI_WIDGET.CHANGE_COMPARISON"
	ChangeKPIWidgetFilterSettings = "GDC.DASH/CMD.KPI_WIDGET.CHANGE_FILTER_SETTINGS"

	ChangeInsightWidgetHeader         = "GDC.DASH/CMD.INSIGHT_WIDGET.CHANGE_HEADER"
	ChangeInsightWidgetProperties     = "GDC.DASH/CMD.INSIGHT_WIDGET.CHANGE_PROPERTIES"
	ChangeInsightWidgetFilterSettings = "GDC.DASH/CMD.INSIGHT_WIDGET.CHANGE_FILTER_SETTINGS"
	ModifyDrillsForInsightWidget      = "GDC.DASH/CMD.INSIGHT_WIDGET.MODIFY_DRILLS"
	RemoveDrillsForInsightWidget      = "GDC.DASH/CMD.INSIGHT_WIDGET.REMOVE_DRILLS"

	ChangeRichTextWidgetContent = "GDC.DASH/CMD.RICH_TEXT_WIDGET.CHANGE_CONTENT"
)

type WidgetHeader struct {
	Title string `json:"title"`
}

type ChangeWidgetHeaderPayload struct {
	Ref    objref.ObjRef `json:"ref"`
	Header WidgetHeader  `json:"header"`
}

// ChangeKPIMeasurePayload swaps the KPI measure. With HeaderFromMeasure the
// widget title becomes the measure title.
type ChangeKPIMeasurePayload struct {
	Ref               objref.ObjRef `json:"ref"`
	Measure           objref.ObjRef `json:"measureRef"`
	Header            *WidgetHeader `json:"header,omitempty"`
	HeaderFromMeasure bool          `json:"headerFromMeasure,omitempty"`
}

type ChangeKPIComparisonPayload struct {
	Ref                 objref.ObjRef            `json:"ref"`
	ComparisonType      models.KPIComparisonType `json:"comparisonType"`
	ComparisonDirection string                   `json:"comparisonDirection,omitempty"`
}

type ChangeInsightPropertiesPayload struct {
	Ref        objref.ObjRef  `json:"ref"`
	Properties map[string]any `json:"properties"`
}

type ChangeRichTextContentPayload struct {
	Ref     objref.ObjRef `json:"ref"`
	Content string        `json:"content"`
}

type FilterOperationType string

const (
	FilterOpReplace           FilterOperationType = "replace"
	FilterOpEnableDateFilter  FilterOperationType = "enableDateFilter"
	FilterOpDisableDateFilter FilterOperationType = "disableDateFilter"
	FilterOpReplaceIgnores    FilterOperationType = "replaceAttributeIgnores"
	FilterOpIgnoreAttribute   FilterOperationType = "ignoreAttributeFilter"
	FilterOpUnignoreAttribute FilterOperationType = "unignoreAttributeFilter"
)

// FilterOperation describes how a widget's filter settings change.
//
//	replace                  DateDataSet (nil disables date filtering) and IgnoreAttributeFilters
//	enableDateFilter         DateDataSet, or UseDefaultDateDataSet
//	disableDateFilter        -
//	replaceAttributeIgnores  DisplayForms
//	ignoreAttributeFilter    DisplayForms
//	unignoreAttributeFilter  DisplayForms
type FilterOperation struct {
	Type                   FilterOperationType `json:"type"`
	DateDataSet            *objref.ObjRef      `json:"dateDataSet,omitempty"`
	UseDefaultDateDataSet  bool                `json:"useDefaultDateDataSet,omitempty"`
	IgnoreAttributeFilters []objref.ObjRef     `json:"ignoreAttributeFilters,omitempty"`
	DisplayForms           []objref.ObjRef     `json:"displayFormRefs,omitempty"`
}

type ChangeFilterSettingsPayload struct {
	Ref       objref.ObjRef   `json:"ref"`
	Operation FilterOperation `json:"operation"`
}

type ModifyDrillsPayload struct {
	Ref    objref.ObjRef  `json:"ref"`
	Drills []models.Drill `json:"drills"`
}

// RemoveDrillsPayload removes drills by origin local identifier, or every drill with All.
type RemoveDrillsPayload struct {
	Ref     objref.ObjRef `json:"ref"`
	Origins []string      `json:"origins,omitempty"`
	All     bool          `json:"all,omitempty"`
}

func ReplaceFilterSettings(dateDataSet *objref.ObjRef, ignoreAttributeFilters []objref.ObjRef) FilterOperation {
	return FilterOperation{Type: FilterOpReplace, DateDataSet: dateDataSet, IgnoreAttributeFilters: ignoreAttributeFilters}
}

func EnableDateFilter(dateDataSet objref.ObjRef) FilterOperation {
	return FilterOperation{Type: FilterOpEnableDateFilter, DateDataSet: &dateDataSet}
}

func EnableDefaultDateFilter() FilterOperation {
	return FilterOperation{Type: FilterOpEnableDateFilter, UseDefaultDateDataSet: true}
}

func DisableDateFilter() FilterOperation {
	return FilterOperation{Type: FilterOpDisableDateFilter}
}

func ReplaceAttributeIgnores(displayForms ...objref.ObjRef) FilterOperation {
	return FilterOperation{Type: FilterOpReplaceIgnores, DisplayForms: displayForms}
}

func IgnoreAttributeFilter(displayForms ...objref.ObjRef) FilterOperation {
	return FilterOperation{Type: FilterOpIgnoreAttribute, DisplayForms: displayForms}
}

func UnignoreAttributeFilter(displayForms ...objref.ObjRef) FilterOperation {
	return FilterOperation{Type: FilterOpUnignoreAttribute, DisplayForms: displayForms}
}

func ChangeKPIHeader(ref objref.ObjRef, title string, correlationID ...string) Command {
	return newCommand(ChangeKPIWidgetHeader, ChangeWidgetHeaderPayload{Ref: ref, Header: WidgetHeader{Title: title}}, correlationID)
}

func ChangeKPIMeasure(ref, measure objref.ObjRef, headerFromMeasure bool, correlationID ...string) Command {
	return newCommand(ChangeKPIWidgetMeasure, ChangeKPIMeasurePayload{Ref: ref, Measure: measure, HeaderFromMeasure: headerFromMeasure}, correlationID)
}

func ChangeKPIComparison(ref objref.ObjRef, comparison models.KPIComparisonType, direction string, correlationID ...string) Command {
	return newCommand(ChangeKPIWidgetComparison, ChangeKPIComparisonPayload{Ref: ref, ComparisonType: comparison, ComparisonDirection: direction}, correlationID)
}

func ChangeKPIFilterSettings(ref objref.ObjRef, op FilterOperation, correlationID ...string) Command {
	return newCommand(ChangeKPIWidgetFilterSettings, ChangeFilterSettingsPayload{Ref: ref, Operation: op}, correlationID)
}

func ChangeInsightHeader(ref objref.ObjRef, title string, correlationID ...string) Command {
	return newCommand(ChangeInsightWidgetHeader, ChangeWidgetHeaderPayload{Ref: ref, Header: WidgetHeader{Title: title}}, correlationID)
}

func ChangeInsightProperties(ref objref.ObjRef, properties map[string]any, correlationID ...string) Command {
	return newCommand(ChangeInsightWidgetProperties, ChangeInsightPropertiesPayload{Ref: ref, Properties: properties}, correlationID)
}

func ChangeInsightFilterSettings(ref objref.ObjRef, op FilterOperation, correlationID ...string) Command {
	return newCommand(ChangeInsightWidgetFilterSettings, ChangeFilterSettingsPayload{Ref: ref, Operation: op}, correlationID)
}

func ModifyDrills(ref objref.ObjRef, drills []models.Drill, correlationID ...string) Command {
	return newCommand(ModifyDrillsForInsightWidget, ModifyDrillsPayload{Ref: ref, Drills: drills}, correlationID)
}

func RemoveDrills(ref objref.ObjRef, origins []string, correlationID ...string) Command {
	return newCommand(RemoveDrillsForInsightWidget, RemoveDrillsPayload{Ref: ref, Origins: origins}, correlationID)
}

func RemoveAllDrills(ref objref.ObjRef, correlationID ...string) Command {
	return newCommand(RemoveDrillsForInsightWidget, RemoveDrillsPayload{Ref: ref, All: true}, correlationID)
}

func ChangeRichTextContent(ref objref.ObjRef, content string, correlationID ...string) Command {
	return newCommand(ChangeRichTextWidgetContent, ChangeRichTextContentPayload{Ref: ref, Content: content}, correlationID)
}
