package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/commands"
	"go-dashboard/internal/features/handlers"
	"go-dashboard/internal/features/plugin"
	"go-dashboard/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedSessions int

func (f fixedSessions) SessionCount() int { return int(f) }

func newApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	plugins := plugin.NewRegistry(zap.NewNop())
	require.NoError(t, plugins.Register(plugin.CustomCommand{Name: "stamp", Script: `result = "ok"`}))

	ctrl := NewSystemController(cfg, fixedSessions(3), handlers.DefaultRegistry(), plugins)
	app := fiber.New()
	NewHealthApi(ctrl).Setup(app)
	NewDebugApi(ctrl, cfg).Setup(app)
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthCheck(t *testing.T) {
	app := newApp(t, &config.Config{Backend: config.BackendMemory, WorkspaceID: "ws"})

	status, body := get(t, app, "/api/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["backend"])
	assert.Equal(t, float64(3), body["sessions"])
}

func TestListCommands(t *testing.T) {
	app := newApp(t, &config.Config{SkipAuth: true})

	status, body := get(t, app, "/api/debug/commands", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["builtin"], commands.RenameDashboard)
	assert.Equal(t, []any{plugin.CommandType("stamp")}, body["plugins"])
}

func TestDebugRoutesNeedToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := newApp(t, cfg)

	status, _ := get(t, app, "/api/debug/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token, err := utils.GenerateToken(cfg.JWTSecret, "u1", []string{"ws"}, time.Hour)
	require.NoError(t, err)
	status, body := get(t, app, "/api/debug/me", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, []any{"ws"}, body["workspaces"])
}
