package export

import (
	"fmt"
	"strings"
	"time"

	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/xuri/excelize/v2"
)

const (
	WidgetsSheet = "Widgets"
	FiltersSheet = "Filters"
)

var (
	widgetColumns = []string{"Section", "Item", "Type", "Identifier", "Title", "Source", "Date Dataset", "Ignored Filters", "Drills"}
	filterColumns = []string{"Position", "Kind", "Local Identifier", "Target", "Selection", "Elements", "Parents"}
)

type ExportService interface {
	// DashboardXLSX renders the document into a workbook and returns its
	// content together with the file name to use.
	DashboardXLSX(doc models.Dashboard, fileName string) ([]byte, string, error)
}

type ExportServiceImpl struct {
	Now func() time.Time
}

func NewExportService() ExportService {
	return &ExportServiceImpl{Now: time.Now}
}

func (s *ExportServiceImpl) DashboardXLSX(doc models.Dashboard, fileName string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(WidgetsSheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(FiltersSheet); err != nil {
		return nil, "", err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	if err := writeSheet(f, WidgetsSheet, widgetColumns, widgetRows(doc.Layout), headerStyle); err != nil {
		return nil, "", err
	}
	if err := writeSheet(f, FiltersSheet, filterColumns, filterRows(doc.FilterContext), headerStyle); err != nil {
		return nil, "", err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	name := fileName
	if name == "" {
		title := strings.TrimSpace(doc.Title)
		if title == "" {
			title = "dashboard"
		}
		name = fmt.Sprintf("%s_%s", strings.ReplaceAll(title, " ", "_"), s.Now().Format("20060102_150405"))
	}
	if !strings.HasSuffix(name, ".xlsx") {
		name += ".xlsx"
	}
	return buffer.Bytes(), name, nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]any, headerStyle int) error {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 20)
	}
	return nil
}

func widgetRows(layout models.Layout) [][]any {
	var rows [][]any
	var walk func(prefix string, sections []models.Section)
	walk = func(prefix string, sections []models.Section) {
		for si, section := range sections {
			sectionLabel := fmt.Sprintf("%s%d", prefix, si+1)
			if section.Header.Title != "" {
				sectionLabel += " " + section.Header.Title
			}
			for ii, item := range section.Items {
				if item.Widget == nil {
					continue
				}
				w := item.Widget
				rows = append(rows, []any{
					sectionLabel,
					ii + 1,
					string(w.Type),
					w.Identifier,
					w.Title,
					widgetSource(*w),
					refText(w.DateDataSet),
					len(w.IgnoredFilters),
					len(w.Drills),
				})
				if w.Layout != nil {
					walk(fmt.Sprintf("%d.%d.", si+1, ii+1), w.Layout.Sections)
				}
			}
		}
	}
	walk("", layout.Sections)
	return rows
}

func widgetSource(w models.Widget) string {
	switch w.Type {
	case models.WidgetInsight:
		if w.Insight != nil {
			return w.Insight.Insight.String()
		}
	case models.WidgetKPI:
		if w.KPI != nil {
			return w.KPI.Metric.String()
		}
	case models.WidgetVisualizationSwitcher:
		if w.Switcher != nil {
			return fmt.Sprintf("%d visualizations", len(w.Switcher.Visualizations))
		}
	}
	return ""
}

func filterRows(fc models.FilterContext) [][]any {
	rows := make([][]any, 0, len(fc.Filters))
	for i, item := range fc.Filters {
		switch {
		case item.DateFilter != nil:
			df := item.DateFilter
			selection := string(df.Type)
			elements := ""
			switch df.Type {
			case models.DateFilterAbsolute:
				elements = df.From + " - " + df.To
			case models.DateFilterRelative:
				elements = fmt.Sprintf("%s %d..%d", df.Granularity, df.FromOffset, df.ToOffset)
			}
			rows = append(rows, []any{i + 1, "date", "", refText(df.DataSet), selection, elements, ""})
		case item.AttributeFilter != nil:
			af := item.AttributeFilter
			selection := "IN"
			if af.NegativeSelection {
				selection = "NOT_IN"
			}
			elements := af.Elements.Values
			if len(af.Elements.URIs) > 0 {
				elements = af.Elements.URIs
			}
			parents := make([]string, 0, len(af.FilterElementsBy))
			for _, p := range af.FilterElementsBy {
				parents = append(parents, p.FilterLocalIdentifier)
			}
			rows = append(rows, []any{
				i + 1,
				"attribute",
				af.LocalIdentifier,
				af.DisplayForm.String(),
				selection,
				strings.Join(elements, ", "),
				strings.Join(parents, ", "),
			})
		}
	}
	return rows
}

func refText(ref *objref.ObjRef) string {
	if ref == nil {
		return ""
	}
	return ref.String()
}
