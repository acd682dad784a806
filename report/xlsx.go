package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Summary"

// WriteXLSX writes t as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, title string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Subject: "Weather forecast summary",
		Creator: "weathercast",
		Created: time.Now().UTC().Format(time.RFC3339),
	})

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, xlsxValue(v)); err != nil {
				return err
			}
		}
	}

	for i := range t.Header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 14.0
		if i == 0 {
			width = 24
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	_, err = f.WriteTo(w)
	return err
}

// SaveXLSX writes the workbook to path, creating parent directories.
func SaveXLSX(path, title string, t *Table) error {
	return saveWith(path, func(w io.Writer) error { return WriteXLSX(w, title, t) })
}

// xlsxValue leaves NaN cells blank.
func xlsxValue(v any) any {
	if x, ok := v.(float64); ok && math.IsNaN(x) {
		return ""
	}
	return v
}
