package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/clinicops/reportengine/internal/domain/models"
)

const (
	sheetName    = "Appointments"
	defaultSheet = "Sheet1"
	columnWidth  = 20
)

// Spreadsheet renders appointments as a single-sheet xlsx workbook: a header
// row followed by one row per appointment.
func (r *Renderer) Spreadsheet(appointments []models.Appointment) ([]byte, error) {
	if len(appointments) == 0 {
		return nil, ErrEmptyDataset
	}

	rows := r.projector.ProjectAll(appointments)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3B82F6"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	if err := sw.SetColWidth(1, len(Columns), columnWidth); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, col := range Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: col}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d coordinates: %w", i+1, err)
		}
		values := row.Values()
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
