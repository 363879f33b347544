package commands

import (
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	ChangeDateFilterSelection      = "GDC.DASH/CMD.FILTER_CONTEXT.DATE_FILTER.CHANGE_SELECTION"
	AddAttributeFilter             = "GDC.DASH/CMD.FILTER_CONTEXT.ATTRIBUTE_FILTER.ADD"
	RemoveAttributeFilters         = "GDC.DASH/CMD.FILTER_CONTEXT.ATTRIBUTE_FILTER.REMOVE"
	MoveAttributeFilter            = "GDC.DASH/CMD.FILTER_CONTEXT.ATTRIBUTE_FILTER.MOVE"
	ChangeAttributeFilterSelection = "GDC.DASH/CMD.FILTER_CONTEXT.ATTRIBUTE_FILTER.CHANGE_SELECTION"
	SetAttributeFilterParents      = "GDC.DASH/CMD.FILTER_CONTEXT.ATTRIBUTE_FILTER.SET_PARENT"
)

type ChangeDateFilterSelectionPayload struct {
	Type        models.DateFilterType  `json:"type"`
	Granularity models.DateGranularity `json:"granularity,omitempty"`
	From        string                 `json:"from,omitempty"`
	To          string                 `json:"to,omitempty"`
	FromOffset  int                    `json:"fromOffset,omitempty"`
	ToOffset    int                    `json:"toOffset,omitempty"`
	DataSet     *objref.ObjRef         `json:"dataSet,omitempty"`
}

// AddAttributeFilterPayload inserts a filter at Index among attribute filters; -1 appends.
type AddAttributeFilterPayload struct {
	DisplayForm       objref.ObjRef                  `json:"displayForm"`
	Index             int                            `json:"index"`
	Parents           []models.AttributeFilterParent `json:"parentFilters,omitempty"`
	InitialSelection  *models.AttributeElements      `json:"initialSelection,omitempty"`
	NegativeSelection *bool                          `json:"initialIsNegativeSelection,omitempty"`
	SelectionMode     models.SelectionMode           `json:"selectionMode,omitempty"`
	Title             string                         `json:"title,omitempty"`
}

type RemoveAttributeFiltersPayload struct {
	FilterLocalIDs []string `json:"filterLocalIds"`
}

type MoveAttributeFilterPayload struct {
	FilterLocalID string `json:"filterLocalId"`
	Index         int    `json:"index"`
}

type SelectionType string

const (
	SelectionIn    SelectionType = "IN"
	SelectionNotIn SelectionType = "NOT_IN"
)

type ChangeAttributeFilterSelectionPayload struct {
	FilterLocalID string                   `json:"filterLocalId"`
	Elements      models.AttributeElements `json:"elements"`
	SelectionType SelectionType            `json:"selectionType"`
}

type SetAttributeFilterParentsPayload struct {
	FilterLocalID string                         `json:"filterLocalId"`
	Parents       []models.AttributeFilterParent `json:"parentFilters"`
}

func ChangeDateFilter(p ChangeDateFilterSelectionPayload, correlationID ...string) Command {
	return newCommand(ChangeDateFilterSelection, p, correlationID)
}

func AllTimeDateFilter(correlationID ...string) Command {
	return ChangeDateFilter(ChangeDateFilterSelectionPayload{Type: models.DateFilterAllTime}, correlationID...)
}

func AddAttributeFilterCmd(displayForm objref.ObjRef, index int, correlationID ...string) Command {
	return newCommand(AddAttributeFilter, AddAttributeFilterPayload{DisplayForm: displayForm, Index: index}, correlationID)
}

func RemoveAttributeFiltersCmd(localIDs []string, correlationID ...string) Command {
	return newCommand(RemoveAttributeFilters, RemoveAttributeFiltersPayload{FilterLocalIDs: localIDs}, correlationID)
}

func MoveAttributeFilterCmd(localID string, index int, correlationID ...string) Command {
	return newCommand(MoveAttributeFilter, MoveAttributeFilterPayload{FilterLocalID: localID, Index: index}, correlationID)
}

func ChangeAttributeFilterSelectionCmd(localID string, elements models.AttributeElements, selection SelectionType, correlationID ...string) Command {
	return newCommand(ChangeAttributeFilterSelection, ChangeAttributeFilterSelectionPayload{
		FilterLocalID: localID,
		Elements:      elements,
		SelectionType: selection,
	}, correlationID)
}

func SetAttributeFilterParentsCmd(localID string, parents []models.AttributeFilterParent, correlationID ...string) Command {
	return newCommand(SetAttributeFilterParents, SetAttributeFilterParentsPayload{
		FilterLocalID: localID,
		Parents:       parents,
	}, correlationID)
}
