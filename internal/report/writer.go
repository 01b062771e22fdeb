package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// sheetWriter appends rows to sheets of a single workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	boldStyle    int
	overdueStyle int
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	overdue, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &sheetWriter{file: f, boldStyle: bold, overdueStyle: overdue}, nil
}

// addSheet starts a new sheet; the first call renames the default one.
func (w *sheetWriter) addSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	return w.writeStyledRow(values, w.boldStyle)
}

func (w *sheetWriter) writeRow(row []interface{}) error {
	return w.writeStyledRow(row, 0)
}

func (w *sheetWriter) writeStyledRow(row []interface{}, style int) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	if style != 0 && len(row) > 0 {
		start, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		end, _ := excelize.CoordinatesToCellName(len(row), w.currentRow)
		if err := w.file.SetCellStyle(w.currentSheet, start, end, style); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

func (w *sheetWriter) setColumnWidths(widths map[string]float64) error {
	for col, width := range widths {
		if err := w.file.SetColWidth(w.currentSheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *sheetWriter) close() error {
	return w.file.Close()
}
