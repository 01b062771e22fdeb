package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"openward/internal/report"
	"openward/internal/repository"
	"openward/shared/reminders"
)

// BoardResponse is the reminders endpoint payload.
type BoardResponse struct {
	Ward string `json:"ward"`
	reminders.Board
}

// handleReminders returns the latest board.
// GET /api/v1/reminders?overdue=true&kind=meal&patient_id=3
func (s *HTTPServer) handleReminders(w http.ResponseWriter, r *http.Request) {
	board, ok := s.currentBoard(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	overdueOnly := q.Get("overdue") == "true"

	kind := reminders.ReminderKind(q.Get("kind"))
	if kind != "" && kind != reminders.ReminderKindMedication && kind != reminders.ReminderKindMeal {
		writeError(w, http.StatusBadRequest, "kind must be medication or meal")
		return
	}

	var patientID int64
	if v := q.Get("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid patient_id")
			return
		}
		patientID = id
	}

	filtered := make([]reminders.Reminder, 0, len(board.Reminders))
	for _, rem := range board.Reminders {
		if overdueOnly && !rem.IsOverdue {
			continue
		}
		if kind != "" && rem.Kind != kind {
			continue
		}
		if patientID != 0 && rem.PatientID != patientID {
			continue
		}
		filtered = append(filtered, rem)
	}

	writeJSON(w, http.StatusOK, BoardResponse{
		Ward:  s.wardName,
		Board: reminders.NewBoard(board.EvaluatedAt, board.Trigger, filtered),
	})
}

// handleHandover streams the board as an XLSX workbook.
// GET /api/v1/reminders/handover.xlsx
func (s *HTTPServer) handleHandover(w http.ResponseWriter, r *http.Request) {
	board, ok := s.currentBoard(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteHandover(&buf, s.wardName, board); err != nil {
		s.logger.Error().Err(err).Msg("failed to render handover sheet")
		writeError(w, http.StatusInternalServerError, "failed to render handover sheet")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.HandoverFilename(board.EvaluatedAt)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleEvaluate forces an evaluation and returns the new board.
// POST /api/v1/reminders/evaluate
func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.evaluator == nil {
		writeError(w, http.StatusNotImplemented, "manual evaluation disabled")
		return
	}
	board, ok := s.evaluator.RunNow(r.Context())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "reminders not evaluated yet")
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{Ward: s.wardName, Board: board})
}

func (s *HTTPServer) currentBoard(w http.ResponseWriter, r *http.Request) (reminders.Board, bool) {
	board, err := s.boards.GetBoard(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoBoard) {
			writeError(w, http.StatusServiceUnavailable, "reminders not evaluated yet")
			return board, false
		}
		s.logger.Error().Err(err).Msg("failed to read reminder board")
		writeError(w, http.StatusInternalServerError, "failed to read reminder board")
		return board, false
	}
	return board, true
}
