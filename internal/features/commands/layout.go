package commands

import (
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	AddLayoutSection             = "GDC.DASH/CMD.FLUID_LAYOUT.ADD_SECTION"
	MoveLayoutSection            = "GDC.DASH/CMD.FLUID_LAYOUT.MOVE_SECTION"
	RemoveLayoutSection          = "GDC.DASH/CMD.FLUID_LAYOUT.REMOVE_SECTION"
	ChangeLayoutSectionHeader    = "GDC.DASH/CMD.FLUID_LAYOUT.CHANGE_SECTION_HEADER"
	AddSectionItems              = "GDC.DASH/CMD.FLUID_LAYOUT.ADD_ITEMS"
	MoveSectionItem              = "GDC.DASH/CMD.FLUID_LAYOUT.MOVE_ITEM"
	RemoveSectionItem            = "GDC.DASH/CMD.FLUID_LAYOUT.REMOVE_ITEM"
	RemoveSectionItemByWidgetRef = "GDC.DASH/CMD.FLUID_LAYOUT.REMOVE_ITEM_BY_WIDGET_REF"
	ReplaceSectionItem           = "GDC.DASH/CMD.FLUID_LAYOUT.REPLACE_ITEM"
	UndoLayoutChanges            = "GDC.DASH/CMD.FLUID_LAYOUT.UNDO"
)

// Indexes follow the same convention everywhere: -1 means "at the end".

type AddSectionPayload struct {
	Index         int                   `json:"index"`
	InitialHeader *models.SectionHeader `json:"initialHeader,omitempty"`
	InitialItems  []models.Item         `json:"initialItems,omitempty"`
}

type MoveSectionPayload struct {
	SectionIndex int `json:"sectionIndex"`
	ToIndex      int `json:"toIndex"`
}

type RemoveSectionPayload struct {
	Index int `json:"index"`
}

type ChangeSectionHeaderPayload struct {
	Index        int                  `json:"index"`
	Header       models.SectionHeader `json:"header"`
	MergeHeaders bool                 `json:"mergeHeaders,omitempty"`
}

type AddItemsPayload struct {
	SectionIndex int           `json:"sectionIndex"`
	ItemIndex    int           `json:"itemIndex"`
	Items        []models.Item `json:"items"`
}

type MoveItemPayload struct {
	SectionIndex   int `json:"sectionIndex"`
	ItemIndex      int `json:"itemIndex"`
	ToSectionIndex int `json:"toSectionIndex"`
	ToItemIndex    int `json:"toItemIndex"`
}

type RemoveItemPayload struct {
	SectionIndex              int  `json:"sectionIndex"`
	ItemIndex                 int  `json:"itemIndex"`
	EagerRemoveSectionIfEmpty bool `json:"eagerRemoveSectionIfEmpty,omitempty"`
}

type RemoveItemByWidgetRefPayload struct {
	Widget                    objref.ObjRef `json:"widgetRef"`
	EagerRemoveSectionIfEmpty bool          `json:"eagerRemoveSectionIfEmpty,omitempty"`
}

type ReplaceItemPayload struct {
	SectionIndex int         `json:"sectionIndex"`
	ItemIndex    int         `json:"itemIndex"`
	Item         models.Item `json:"item"`
}

// UndoLayoutPayload reverts the last Steps layout commands; zero means one.
type UndoLayoutPayload struct {
	Steps int `json:"steps,omitempty"`
}

func AddSection(index int, header *models.SectionHeader, items []models.Item, correlationID ...string) Command {
	return newCommand(AddLayoutSection, AddSectionPayload{Index: index, InitialHeader: header, InitialItems: items}, correlationID)
}

func MoveSection(sectionIndex, toIndex int, correlationID ...string) Command {
	return newCommand(MoveLayoutSection, MoveSectionPayload{SectionIndex: sectionIndex, ToIndex: toIndex}, correlationID)
}

func RemoveSection(index int, correlationID ...string) Command {
	return newCommand(RemoveLayoutSection, RemoveSectionPayload{Index: index}, correlationID)
}

func ChangeSectionHeader(index int, header models.SectionHeader, merge bool, correlationID ...string) Command {
	return newCommand(ChangeLayoutSectionHeader, ChangeSectionHeaderPayload{Index: index, Header: header, MergeHeaders: merge}, correlationID)
}

func AddItems(sectionIndex, itemIndex int, items []models.Item, correlationID ...string) Command {
	return newCommand(AddSectionItems, AddItemsPayload{SectionIndex: sectionIndex, ItemIndex: itemIndex, Items: items}, correlationID)
}

func MoveItem(sectionIndex, itemIndex, toSectionIndex, toItemIndex int, correlationID ...string) Command {
	return newCommand(MoveSectionItem, MoveItemPayload{
		SectionIndex:   sectionIndex,
		ItemIndex:      itemIndex,
		ToSectionIndex: toSectionIndex,
		ToItemIndex:    toItemIndex,
	}, correlationID)
}

func RemoveItem(sectionIndex, itemIndex int, eager bool, correlationID ...string) Command {
	return newCommand(RemoveSectionItem, RemoveItemPayload{SectionIndex: sectionIndex, ItemIndex: itemIndex, EagerRemoveSectionIfEmpty: eager}, correlationID)
}

func RemoveItemByWidgetRef(widget objref.ObjRef, eager bool, correlationID ...string) Command {
	return newCommand(RemoveSectionItemByWidgetRef, RemoveItemByWidgetRefPayload{Widget: widget, EagerRemoveSectionIfEmpty: eager}, correlationID)
}

func ReplaceItem(sectionIndex, itemIndex int, item models.Item, correlationID ...string) Command {
	return newCommand(ReplaceSectionItem, ReplaceItemPayload{SectionIndex: sectionIndex, ItemIndex: itemIndex, Item: item}, correlationID)
}

func UndoLayout(steps int, correlationID ...string) Command {
	return newCommand(UndoLayoutChanges, UndoLayoutPayload{Steps: steps}, correlationID)
}
