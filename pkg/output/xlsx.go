package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/pipeline"
)

// SheetName is the worksheet the XLSX report writes to.
const SheetName = "Tenders"

// ReportHeaders returns the header row of the XLSX report.
func ReportHeaders() []string {
	headers := append([]string{"Source"}, models.FieldNames...)
	return append(headers, "Error")
}

// BuildReport renders one row per result. Failed documents keep their row
// with only the source and error filled in.
func BuildReport(results []pipeline.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range ReportHeaders() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, res := range results {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, res.Source)
		if res.Err != nil {
			write(len(models.FieldNames)+2, res.Err.Error())
			continue
		}
		values := res.Record.Values()
		for j, name := range models.FieldNames {
			write(j+2, values[name])
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 40) // source
	_ = f.SetColWidth(SheetName, "B", "D", 32) // title, reference, organization
	_ = f.SetColWidth(SheetName, "E", "G", 14) // dates
	_ = f.SetColWidth(SheetName, "H", "I", 60) // description, summary
	_ = f.SetColWidth(SheetName, "J", "J", 40) // error

	return f, nil
}

// WriteReport writes the XLSX report for results to path.
func WriteReport(path string, results []pipeline.Result) error {
	f, err := BuildReport(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write %s: %w", path, err)
	}
	return nil
}
