package export

import (
	"bytes"
	"testing"
	"time"

	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDashboard() models.Dashboard {
	ds := objref.IDRef("created_date")
	return models.Dashboard{
		Identity: objref.Identity{Identifier: "sales"},
		Title:    "Sales overview",
		Layout: models.Layout{Sections: []models.Section{{
			Header: models.SectionHeader{Title: "Top"},
			Items: []models.Item{
				{Widget: &models.Widget{
					Type:        models.WidgetKPI,
					Identity:    objref.Identity{Identifier: "kpi_1"},
					Title:       "Revenue",
					DateDataSet: &ds,
					KPI:         &models.KPIWidgetConfig{Metric: objref.IDRef("revenue")},
				}},
				{Widget: &models.Widget{
					Type:     models.WidgetInsight,
					Identity: objref.Identity{Identifier: "insight_1"},
					Title:    "By region",
					Insight:  &models.InsightWidgetConfig{Insight: objref.IDRef("by_region")},
				}},
			},
		}}},
		FilterContext: models.FilterContext{Filters: []models.FilterContextItem{
			{DateFilter: &models.DateFilter{Type: models.DateFilterRelative, Granularity: models.GranularityYear, FromOffset: -1}},
			{AttributeFilter: &models.AttributeFilter{
				LocalIdentifier:   "region",
				DisplayForm:       objref.IDRef("region.name"),
				NegativeSelection: true,
				Elements:          models.AttributeElements{Values: []string{"East", "West"}},
			}},
		}},
	}
}

func TestDashboardXLSX(t *testing.T) {
	svc := &ExportServiceImpl{Now: func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }}

	content, name, err := svc.DashboardXLSX(sampleDashboard(), "")
	require.NoError(t, err)
	assert.Equal(t, "Sales_overview_20240301_100000.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{WidgetsSheet, FiltersSheet}, f.GetSheetList())

	widgets, err := f.GetRows(WidgetsSheet)
	require.NoError(t, err)
	require.Len(t, widgets, 3)
	assert.Equal(t, widgetColumns, widgets[0])
	assert.Equal(t, "kpi", widgets[1][2])
	assert.Equal(t, "kpi_1", widgets[1][3])
	assert.Equal(t, "id::created_date", widgets[1][6])
	assert.Equal(t, "id::by_region", widgets[2][5])

	filters, err := f.GetRows(FiltersSheet)
	require.NoError(t, err)
	require.Len(t, filters, 3)
	assert.Equal(t, "date", filters[1][1])
	assert.Equal(t, "attribute", filters[2][1])
	assert.Equal(t, "NOT_IN", filters[2][4])
	assert.Equal(t, "East, West", filters[2][5])
}

func TestDashboardXLSXKeepsGivenName(t *testing.T) {
	_, name, err := NewExportService().DashboardXLSX(sampleDashboard(), "report")
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", name)

	_, name, err = NewExportService().DashboardXLSX(models.Dashboard{}, "already.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "already.xlsx", name)
}
