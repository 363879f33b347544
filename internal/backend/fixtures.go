package backend

import (
	"encoding/json"
	"fmt"
	"os"

	"go-dashboard/internal/models"
)

// Fixtures is the content of one workspace as kept in a JSON seed file.
type Fixtures struct {
	Dashboards       []models.Dashboard      `json:"dashboards"`
	Insights         []models.Insight        `json:"insights"`
	Catalog          models.Catalog          `json:"catalog"`
	DateFilterConfig models.DateFilterConfig `json:"dateFilterConfig"`
	Automations      []models.Automation     `json:"automations"`
	// DateDatasetsByItem maps a measure or display form identifier to the
	// identifiers of the date datasets that can filter it.
	DateDatasetsByItem map[string][]string `json:"dateDatasetsByItem"`
}

// LoadFixtures reads a seed file. An empty path yields empty fixtures.
func LoadFixtures(path string) (Fixtures, error) {
	var f Fixtures
	if path == "" {
		return f, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	return f, nil
}
