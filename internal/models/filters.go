package models

import (
	"go-dashboard/pkg/objref"
)

type FilterContext struct {
	objref.Identity `bson:",inline"`
	Filters         []FilterContextItem `bson:"filters" json:"filters"`
}

// FilterContextItem carries exactly one of the two filter kinds.
type FilterContextItem struct {
	AttributeFilter *AttributeFilter `bson:"attribute_filter,omitempty" json:"attributeFilter,omitempty"`
	DateFilter      *DateFilter      `bson:"date_filter,omitempty" json:"dateFilter,omitempty"`
}

type SelectionMode string

const (
	SelectionMulti  SelectionMode = "multi"
	SelectionSingle SelectionMode = "single"
)

// AttributeElements selects elements either by uri or by value, never both.
type AttributeElements struct {
	URIs   []string `bson:"uris,omitempty" json:"uris,omitempty"`
	Values []string `bson:"values,omitempty" json:"values,omitempty"`
}

type AttributeFilter struct {
	LocalIdentifier   string                  `bson:"local_identifier" json:"localIdentifier"`
	DisplayForm       objref.ObjRef           `bson:"display_form" json:"displayForm"`
	NegativeSelection bool                    `bson:"negative_selection" json:"negativeSelection"`
	Elements          AttributeElements       `bson:"elements" json:"attributeElements"`
	SelectionMode     SelectionMode           `bson:"selection_mode,omitempty" json:"selectionMode,omitempty"`
	Title             string                  `bson:"title,omitempty" json:"title,omitempty"`
	FilterElementsBy  []AttributeFilterParent `bson:"filter_elements_by,omitempty" json:"filterElementsBy,omitempty"`
}

// AttributeFilterParent makes a filter depend on the selection of another filter,
// bridged over the given attributes.
type AttributeFilterParent struct {
	FilterLocalIdentifier string     `bson:"filter_local_identifier" json:"filterLocalIdentifier"`
	Over                  ParentOver `bson:"over" json:"over"`
}

type ParentOver struct {
	Attributes []objref.ObjRef `bson:"attributes" json:"attributes"`
}

type DateFilterType string

const (
	DateFilterAbsolute DateFilterType = "absolute"
	DateFilterRelative DateFilterType = "relative"
	DateFilterAllTime  DateFilterType = "allTime"
)

type DateGranularity string

const (
	GranularityDate    DateGranularity = "GDC.time.date"
	GranularityWeek    DateGranularity = "GDC.time.week_us"
	GranularityMonth   DateGranularity = "GDC.time.month"
	GranularityQuarter DateGranularity = "GDC.time.quarter"
	GranularityYear    DateGranularity = "GDC.time.year"
)

// DateFilter is absolute (From/To are ISO dates), relative (offsets in
// Granularity units) or all time.
type DateFilter struct {
	Type        DateFilterType  `bson:"type" json:"type"`
	Granularity DateGranularity `bson:"granularity,omitempty" json:"granularity,omitempty"`
	From        string          `bson:"from,omitempty" json:"from,omitempty"`
	To          string          `bson:"to,omitempty" json:"to,omitempty"`
	FromOffset  int             `bson:"from_offset,omitempty" json:"fromOffset,omitempty"`
	ToOffset    int             `bson:"to_offset,omitempty" json:"toOffset,omitempty"`
	DataSet     *objref.ObjRef  `bson:"data_set,omitempty" json:"dataSet,omitempty"`
}

func (f FilterContextItem) IsDate() bool {
	return f.DateFilter != nil
}

func (f FilterContextItem) IsAttribute() bool {
	return f.AttributeFilter != nil
}
