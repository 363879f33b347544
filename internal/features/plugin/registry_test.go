package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countWidgets = `
text := import("text")
result = {
	count: len(dashboard.widgets),
	title: text.to_upper(dashboard.title),
	label: payload.label
}
`

const rejectEmpty = `
if len(dashboard.filters) == 0 {
	failure = "dashboard has no filters"
} else {
	result = dashboard.filters[0].kind
}
`

func testDashboard() models.Dashboard {
	return models.Dashboard{
		Identity: objref.Identity{Identifier: "d1"},
		Title:    "sales",
		Layout: models.Layout{Sections: []models.Section{{Items: []models.Item{
			{Widget: &models.Widget{Type: models.WidgetKPI, Identity: objref.Identity{Identifier: "w1"}}},
			{Widget: &models.Widget{Type: models.WidgetRichText, Identity: objref.Identity{Identifier: "w2"}}},
		}}}},
	}
}

func TestRunScript(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(CustomCommand{Name: "count_widgets", Script: countWidgets}))

	assert.True(t, r.Has("PLUGIN/CMD.COUNT_WIDGETS"))
	assert.True(t, commands.IsKnown("PLUGIN/CMD.COUNT_WIDGETS"))

	evtType, done, err := r.Run(context.Background(), CommandType("count_widgets"), map[string]any{"label": "x"}, testDashboard())
	require.NoError(t, err)
	assert.Equal(t, "PLUGIN/EVT.COUNT_WIDGETS.DONE", evtType)

	result, ok := done.Result.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, result["count"])
	assert.Equal(t, "SALES", result["title"])
	assert.Equal(t, "x", result["label"])
}

func TestRunScriptFailure(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(CustomCommand{Name: "first_filter", Script: rejectEmpty}))

	_, _, err := r.Run(context.Background(), CommandType("first_filter"), nil, testDashboard())
	require.Error(t, err)
	assert.Equal(t, events.ReasonUserError, events.AsCommandError(err).Reason)

	doc := testDashboard()
	doc.FilterContext.Filters = []models.FilterContextItem{{DateFilter: &models.DateFilter{Type: models.DateFilterAllTime}}}
	_, done, err := r.Run(context.Background(), CommandType("first_filter"), nil, doc)
	require.NoError(t, err)
	assert.Equal(t, "date", done.Result)
}

func TestRegisterRejects(t *testing.T) {
	r := NewRegistry(nil)
	assert.Error(t, r.Register(CustomCommand{Name: "bad name", Script: `result = 1`}))
	assert.Error(t, r.Register(CustomCommand{Name: "broken", Script: `result = (`}))

	_, _, err := r.Run(context.Background(), CommandType("missing"), nil, testDashboard())
	require.Error(t, err)
	assert.Equal(t, events.ReasonNotSupported, events.AsCommandError(err).Reason)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "echo.tengo"), []byte(`result = payload`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	r := NewRegistry(nil)
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"PLUGIN/CMD.ECHO"}, r.Types())

	_, done, err := r.Run(context.Background(), "PLUGIN/CMD.ECHO", struct {
		Value string `json:"value"`
	}{Value: "v"}, models.Dashboard{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": "v"}, done.Result)
}
