package report

import (
	"fmt"
	"io"
	"time"

	"openward/shared/reminders"
)

// ReminderSheet is the name of the sheet listing reminders.
const ReminderSheet = "Reminders"

// SummarySheet is the name of the sheet with board totals.
const SummarySheet = "Summary"

// ReminderColumns are the headers of the reminder sheet.
var ReminderColumns = []string{"Bed", "Patient", "Kind", "Title", "Detail", "Overdue", "Time"}

const timeLayout = "2006-01-02 15:04"

// HandoverFilename names the handover workbook for a board evaluated at t.
func HandoverFilename(t time.Time) string {
	return fmt.Sprintf("handover_%s.xlsx", t.Format("20060102_1504"))
}

// WriteHandover renders board as an XLSX shift handover sheet. Rows follow
// board order so overdue items come first.
func WriteHandover(wr io.Writer, wardName string, board reminders.Board) error {
	w, err := newSheetWriter()
	if err != nil {
		return err
	}
	defer w.close()

	if err := w.addSheet(ReminderSheet); err != nil {
		return err
	}
	if err := w.writeHeader(ReminderColumns); err != nil {
		return err
	}

	loc := board.EvaluatedAt.Location()
	for _, r := range board.Reminders {
		overdue := "no"
		style := 0
		if r.IsOverdue {
			overdue = "yes"
			style = w.overdueStyle
		}
		row := []interface{}{
			r.BedNumber,
			r.PatientName,
			string(r.Kind),
			r.Title,
			r.Detail,
			overdue,
			r.Time.In(loc).Format(timeLayout),
		}
		if err := w.writeStyledRow(row, style); err != nil {
			return fmt.Errorf("write reminder %s: %w", r.ID, err)
		}
	}
	if err := w.setColumnWidths(map[string]float64{"B": 24, "D": 28, "E": 32, "G": 18}); err != nil {
		return err
	}

	if err := w.addSheet(SummarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Ward", wardName},
		{"Evaluated at", board.EvaluatedAt.Format(timeLayout + " MST")},
		{"Reminders", len(board.Reminders)},
		{"Overdue", board.OverdueCount},
	}
	for _, row := range summary {
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	return w.save(wr)
}
