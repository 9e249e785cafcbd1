// Package export writes lead lists to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/leads"
)

// SheetName is the worksheet holding the exported leads.
const SheetName = "Leads"

// WriteLeads writes an xlsx workbook with a header row and one row per lead.
// A nil columns slice exports every field seen across the leads.
func WriteLeads(w io.Writer, rows []crm.Lead, columns []string) error {
	f, err := build(rows, columns)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveLeads writes the workbook to path, creating parent directories.
func SaveLeads(path string, rows []crm.Lead, columns []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteLeads(out, rows, columns); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}

func build(rows []crm.Lead, columns []string) (*excelize.File, error) {
	if columns == nil {
		columns = leads.Columns(rows)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if len(columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(columns), 1)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("header range: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for i, lead := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		values := make([]any, len(columns))
		for j, name := range columns {
			values[j] = cellValue(lead.Fields[name])
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int64, float64:
		return val
	default:
		return crm.FormatValue(val)
	}
}
