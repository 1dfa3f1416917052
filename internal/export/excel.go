// Package export renders the audit log as an Excel workbook for admins.
package export

import (
	"fmt"
	"io"

	"playslot/internal/audit"

	"github.com/xuri/excelize/v2"
)

var columns = []string{"Time", "User", "Game", "Date", "Slot", "Action"}

// ExcelWriter builds a single-sheet workbook row by row.
type ExcelWriter struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

// NewExcelWriter creates a workbook with one named sheet.
func NewExcelWriter(sheet string) *ExcelWriter {
	// Excel caps sheet names at 31 chars.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	return &ExcelWriter{file: f, sheet: sheet, currentRow: 1}
}

// WriteHeader writes a bold header row.
func (w *ExcelWriter) WriteHeader(cols []string) error {
	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(cols), w.currentRow)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow appends one data row.
func (w *ExcelWriter) WriteRow(row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *ExcelWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases the workbook.
func (w *ExcelWriter) Close() error {
	return w.file.Close()
}

// WriteAuditWorkbook renders audit events into an Excel workbook on wr.
func WriteAuditWorkbook(events []audit.Event, wr io.Writer) error {
	w := NewExcelWriter("Booking Audit")
	defer w.Close()

	if err := w.WriteHeader(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ev := range events {
		row := eventRowValues(ev)
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return w.Save(wr)
}

func eventRowValues(ev audit.Event) []interface{} {
	return []interface{}{
		ev.CreatedAt.Format("2006-01-02 15:04:05"),
		ev.UserID,
		ev.GameKey,
		ev.DateKey,
		ev.SlotLabel,
		ev.Action,
	}
}
