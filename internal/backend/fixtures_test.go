package backend

import (
	"os"
	"path/filepath"
	"testing"

	"go-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixturesSeedFile(t *testing.T) {
	f, err := LoadFixtures(filepath.Join("..", "..", "cmd", "seed", "data", "fixtures.json"))
	require.NoError(t, err)

	require.Len(t, f.Dashboards, 1)
	dash := f.Dashboards[0]
	assert.Equal(t, "sales", dash.Identifier)
	require.Len(t, dash.Layout.Sections, 2)
	kpi := dash.Layout.Sections[0].Items[0].Widget
	require.NotNil(t, kpi)
	assert.Equal(t, models.WidgetKPI, kpi.Type)
	require.NotNil(t, kpi.KPI)
	assert.Equal(t, "revenue", kpi.KPI.Metric.Identifier)

	require.Len(t, dash.FilterContext.Filters, 2)
	assert.Equal(t, models.DateFilterAllTime, dash.FilterContext.Filters[0].DateFilter.Type)
	assert.Equal(t, "f.region", dash.FilterContext.Filters[1].AttributeFilter.LocalIdentifier)

	assert.Equal(t, []models.DateGranularity{models.GranularityMonth, models.GranularityQuarter, models.GranularityYear},
		f.DateFilterConfig.RelativeForm.Granularities)
	assert.Equal(t, []string{"order_date", "ship_date"}, f.DateDatasetsByItem["revenue"])

	require.Len(t, f.Automations, 1)
	assert.Equal(t, models.AutomationScheduledExport, f.Automations[0].Type)
	require.NotNil(t, f.Automations[0].Schedule)
	assert.Equal(t, "0 8 * * MON", f.Automations[0].Schedule.Cron)
}

func TestLoadFixturesErrors(t *testing.T) {
	f, err := LoadFixtures("")
	require.NoError(t, err)
	assert.Empty(t, f.Dashboards)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadFixtures(bad)
	assert.Error(t, err)
}
