package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownCommand = errors.New("unknown command type")

// Command is a typed request to change dashboard state.
type Command struct {
	Type          string `json:"type"`
	Payload       any    `json:"payload"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (c Command) WithCorrelation(id string) Command {
	c.CorrelationID = id
	return c
}

func newCommand(cmdType string, payload any, correlationID []string) Command {
	cmd := Command{Type: cmdType, Payload: payload}
	if len(correlationID) > 0 {
		cmd.CorrelationID = correlationID[0]
	}
	return cmd
}

type payloadDecoder func(raw json.RawMessage) (any, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]payloadDecoder{}
)

func register[T any](cmdType string) {
	decoders[cmdType] = func(raw json.RawMessage) (any, error) {
		var payload T
		if len(raw) == 0 || string(raw) == "null" {
			return payload, nil
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

// RegisterPayload adds a custom command type, decoded into T.
func RegisterPayload[T any](cmdType string) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	register[T](cmdType)
}

func IsKnown(cmdType string) bool {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	_, ok := decoders[cmdType]
	return ok
}

// Decode builds a typed command from its wire shape.
func Decode(cmdType string, raw json.RawMessage, correlationID string) (Command, error) {
	decodersMu.RLock()
	decode, ok := decoders[cmdType]
	decodersMu.RUnlock()
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmdType)
	}

	payload, err := decode(raw)
	if err != nil {
		return Command{}, fmt.Errorf("invalid payload for %s: %w", cmdType, err)
	}
	return Command{Type: cmdType, Payload: payload, CorrelationID: correlationID}, nil
}

func init() {
	register[InitializePayload](Initialize)
	register[RenamePayload](RenameDashboard)
	register[ResetPayload](ResetDashboard)
	register[SavePayload](SaveDashboard)
	register[ExportXLSXPayload](ExportDashboardXLSX)
	register[RefreshCatalogPayload](RefreshCatalog)

	register[ChangeDateFilterSelectionPayload](ChangeDateFilterSelection)
	register[AddAttributeFilterPayload](AddAttributeFilter)
	register[RemoveAttributeFiltersPayload](RemoveAttributeFilters)
	register[MoveAttributeFilterPayload](MoveAttributeFilter)
	register[ChangeAttributeFilterSelectionPayload](ChangeAttributeFilterSelection)
	register[SetAttributeFilterParentsPayload](SetAttributeFilterParents)

	register[AddSectionPayload](AddLayoutSection)
	register[MoveSectionPayload](MoveLayoutSection)
	register[RemoveSectionPayload](RemoveLayoutSection)
	register[ChangeSectionHeaderPayload](ChangeLayoutSectionHeader)
	register[AddItemsPayload](AddSectionItems)
	register[MoveItemPayload](MoveSectionItem)
	register[RemoveItemPayload](RemoveSectionItem)
	register[RemoveItemByWidgetRefPayload](RemoveSectionItemByWidgetRef)
	register[ReplaceItemPayload](ReplaceSectionItem)
	register[UndoLayoutPayload](UndoLayoutChanges)

	register[ChangeWidgetHeaderPayload](ChangeKPIWidgetHeader)
	register[ChangeKPIMeasurePayload](ChangeKPIWidgetMeasure)
	register[ChangeKPIComparisonPayload](ChangeKPIWidgetComparison)
	register[ChangeFilterSettingsPayload](ChangeKPIWidgetFilterSettings)

	register[ChangeWidgetHeaderPayload](ChangeInsightWidgetHeader)
	register[ChangeInsightPropertiesPayload](ChangeInsightWidgetProperties)
	register[ChangeFilterSettingsPayload](ChangeInsightWidgetFilterSettings)
	register[ModifyDrillsPayload](ModifyDrillsForInsightWidget)
	register[RemoveDrillsPayload](RemoveDrillsForInsightWidget)

	register[ChangeRichTextContentPayload](ChangeRichTextWidgetContent)

	register[CreateAutomationPayload](CreateAlert)
	register[UpdateAutomationPayload](UpdateAlert)
	register[RemoveAutomationsPayload](RemoveAlerts)
	register[CreateAutomationPayload](CreateScheduledEmail)
	register[RemoveAutomationsPayload](RemoveScheduledEmails)

	register[ResetQueryCachePayload](ResetQueryCache)
}
