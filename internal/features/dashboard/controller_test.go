package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-dashboard/internal/backend/inmemory"
	"go-dashboard/internal/config"
	"go-dashboard/internal/features/events"
	"go-dashboard/internal/features/session"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ident(id string) objref.Identity {
	return objref.Identity{Identifier: id, URI: inmemory.URIPrefix + id}
}

func testApp(t *testing.T) (*fiber.App, *session.Manager) {
	t.Helper()
	b := inmemory.New(inmemory.Fixtures{
		Catalog: models.Catalog{
			Measures:     []models.CatalogMeasure{{Identity: ident("revenue"), Title: "Revenue"}},
			DateDatasets: []models.CatalogDateDataset{{Identity: ident("closed_date"), Title: "Closed"}},
		},
		DateDatasetsByItem: map[string][]string{"revenue": {"closed_date"}},
		DateFilterConfig: models.DateFilterConfig{
			AllTime: models.DateFilterOption{LocalIdentifier: "allTime", Visible: true},
		},
		Dashboards: []models.Dashboard{{
			Identity: ident("dash"),
			Title:    "Sales",
			Layout: models.Layout{Sections: []models.Section{{
				Items: []models.Item{
					{Size: models.ItemSize{GridWidth: 6}, Widget: &models.Widget{
						Type:     models.WidgetKPI,
						Identity: objref.Identity{Identifier: "kpi.revenue"},
						KPI:      &models.KPIWidgetConfig{Metric: objref.IDRef("revenue"), ComparisonType: models.KPIComparisonNone},
					}},
					{Size: models.ItemSize{GridWidth: 6}, Widget: &models.Widget{
						Type:     models.WidgetRichText,
						Identity: objref.Identity{Identifier: "w.text"},
						RichText: &models.RichTextWidgetConfig{Content: "notes"},
					}},
				},
			}}},
		}},
	})

	manager := session.NewManager(session.Options{
		Workspace: b.Workspace("ws"),
		Resolver:  objref.PrefixResolver(inmemory.URIPrefix),
	})
	t.Cleanup(func() { _ = manager.CloseAll(context.Background()) })

	cfg := &config.Config{SkipAuth: true, WorkspaceID: "ws"}
	ctrl := NewDashboardController(NewDashboardService(manager, zap.NewNop()), zap.NewNop())
	app := fiber.New()
	NewDashboardApi(ctrl, cfg).Setup(app)
	return app, manager
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func openSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/api/dashboards/dash/sessions", "")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Sales", body["title"])
	return body["id"].(string)
}

func TestOpenSession(t *testing.T) {
	app, manager := testApp(t)

	sid := openSession(t, app)
	assert.Equal(t, []string{sid}, manager.IDs())

	status, _ := do(t, app, http.MethodPost, "/api/dashboards/missing/sessions", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := do(t, app, http.MethodPost, "/api/dashboards/new/sessions", "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "", body["title"])
}

func TestExecuteCommandStatuses(t *testing.T) {
	app, _ := testApp(t)
	sid := openSession(t, app)
	path := "/api/sessions/" + sid + "/commands"

	tests := []struct {
		name      string
		body      string
		status    int
		eventType string
	}{
		{
			name:      "success",
			body:      `{"type":"GDC.DASH/CMD.RENAME","payload":{"newTitle":"Revenue"},"correlationId":"c1"}`,
			status:    http.StatusOK,
			eventType: events.DashboardRenamed,
		},
		{
			name:      "user error",
			body:      `{"type":"GDC.DASH/CMD.FLUID_LAYOUT.REMOVE_SECTION","payload":{"index":9}}`,
			status:    http.StatusUnprocessableEntity,
			eventType: events.CommandFailed,
		},
		{
			name:      "rejected",
			body:      `{"type":"GDC.DASH/CMD.DOES_NOT_EXIST"}`,
			status:    http.StatusConflict,
			eventType: events.CommandRejected,
		},
		{
			name:   "malformed payload",
			body:   `{"type":"GDC.DASH/CMD.RENAME","payload":"oops"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing type",
			body:   `{}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.status, status, body)
			if tt.eventType != "" {
				assert.Equal(t, tt.eventType, body["type"])
			}
		})
	}

	status, _ := do(t, app, http.MethodPost, "/api/sessions/nope/commands", `{"type":"GDC.DASH/CMD.RENAME","payload":{"newTitle":"x"}}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStateAndClose(t *testing.T) {
	app, _ := testApp(t)
	sid := openSession(t, app)

	status, body := do(t, app, http.MethodGet, "/api/sessions/"+sid+"/state", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, sid, body["session"])
	doc := body["dashboard"].(map[string]any)
	assert.Equal(t, "Sales", doc["title"])
	assert.Equal(t, map[string]any{"kpi.revenue": map[string]any{"status": "notQueried"}}, body["dateDatasetQueries"])

	status, _ = do(t, app, http.MethodDelete, "/api/sessions/"+sid, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, app, http.MethodGet, "/api/sessions/"+sid+"/state", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, app, http.MethodDelete, "/api/sessions/"+sid, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWidgetDateDatasets(t *testing.T) {
	app, _ := testApp(t)
	sid := openSession(t, app)
	base := "/api/sessions/" + sid + "/widgets/"

	status, body := do(t, app, http.MethodGet, base+"kpi.revenue/date-datasets", "")
	require.Equal(t, http.StatusOK, status, body)
	datasets := body["dateDatasets"].([]any)
	require.Len(t, datasets, 1)

	status, body = do(t, app, http.MethodGet, "/api/sessions/"+sid+"/state", "")
	require.Equal(t, http.StatusOK, status)
	statuses := body["dateDatasetQueries"].(map[string]any)
	assert.Equal(t, map[string]any{"status": "success"}, statuses["kpi.revenue"])
	assert.NotContains(t, statuses, "w.text")

	status, _ = do(t, app, http.MethodGet, base+"w.text/date-datasets", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = do(t, app, http.MethodGet, base+"missing/date-datasets", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventsRequireUpgrade(t *testing.T) {
	app, _ := testApp(t)
	sid := openSession(t, app)

	status, _ := do(t, app, http.MethodGet, "/api/sessions/"+sid+"/events", "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}
