package commands

import (
	"encoding/json"
	"testing"

	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := json.RawMessage(`{"ref":{"identifier":"kpi-1"},"operation":{"type":"replace","dateDataSet":{"identifier":"created_date"}}}`)

	cmd, err := Decode(ChangeKPIWidgetFilterSettings, raw, "corr-1")
	require.NoError(t, err)

	assert.Equal(t, ChangeKPIWidgetFilterSettings, cmd.Type)
	assert.Equal(t, "corr-1", cmd.CorrelationID)

	payload, ok := cmd.Payload.(ChangeFilterSettingsPayload)
	require.True(t, ok)
	assert.Equal(t, objref.IDRef("kpi-1"), payload.Ref)
	assert.Equal(t, FilterOpReplace, payload.Operation.Type)
	require.NotNil(t, payload.Operation.DateDataSet)
	assert.Equal(t, "created_date", payload.Operation.DateDataSet.Identifier)
}

func TestDecodeEmptyPayload(t *testing.T) {
	cmd, err := Decode(ResetDashboard, nil, "")
	require.NoError(t, err)
	assert.Equal(t, ResetPayload{}, cmd.Payload)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode("GDC.DASH/CMD.NOPE", nil, "")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Decode(RenameDashboard, json.RawMessage(`{"newTitle": 12}`), "")
	assert.Error(t, err)
}

func TestRegisterPayload(t *testing.T) {
	const custom = "PLUGIN/CMD.TEST_DECODE"
	assert.False(t, IsKnown(custom))

	RegisterPayload[map[string]any](custom)

	cmd, err := Decode(custom, json.RawMessage(`{"a":1}`), "x")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, cmd.Payload)
}

func TestConstructorsCarryCorrelation(t *testing.T) {
	cmd := Rename("Sales", "abc")
	assert.Equal(t, "abc", cmd.CorrelationID)
	assert.Equal(t, RenamePayload{Title: "Sales"}, cmd.Payload)

	assert.Empty(t, Reset().CorrelationID)
	assert.Equal(t, "z", Reset().WithCorrelation("z").CorrelationID)
}
