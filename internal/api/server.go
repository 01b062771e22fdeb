package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"openward/internal/metrics"
	"openward/internal/models"
	"openward/shared/reminders"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RecordStore is the subset of the record store the API writes through.
type RecordStore interface {
	CreatePatient(ctx context.Context, p *models.Patient) error
	ListPatients(ctx context.Context, status string) ([]models.Patient, error)
	DischargePatient(ctx context.Context, id int64) error
	CreateMedication(ctx context.Context, m *models.Medication) error
	ListMedications(ctx context.Context, patientID int64) ([]models.Medication, error)
	MarkMedicationGiven(ctx context.Context, id int64, at time.Time) (*models.Medication, error)
	CreateMeal(ctx context.Context, m *models.Meal) error
}

// BoardReader returns the latest published reminder board.
type BoardReader interface {
	GetBoard(ctx context.Context) (reminders.Board, error)
}

// Evaluator forces a reminder evaluation.
type Evaluator interface {
	RunNow(ctx context.Context) (reminders.Board, bool)
}

// HTTPServer serves the ward API.
type HTTPServer struct {
	store     RecordStore
	boards    BoardReader
	evaluator Evaluator
	wardName  string
	clock     func() time.Time
	logger    *zerolog.Logger
	server    *http.Server
}

// NewHTTPServer wires handlers. evaluator may be nil, which disables
// POST /api/v1/reminders/evaluate.
func NewHTTPServer(port int, store RecordStore, boards BoardReader, evaluator Evaluator, wardName string, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		store:     store,
		boards:    boards,
		evaluator: evaluator,
		wardName:  wardName,
		clock:     time.Now,
		logger:    logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router with all API routes.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.instrument)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/reminders", s.handleReminders)
		r.Get("/reminders/handover.xlsx", s.handleHandover)
		r.Post("/reminders/evaluate", s.handleEvaluate)

		r.Get("/patients", s.handleListPatients)
		r.Post("/patients", s.handleCreatePatient)
		r.Post("/patients/{id}/discharge", s.handleDischarge)

		r.Get("/medications", s.handleListMedications)
		r.Post("/medications", s.handleCreateMedication)
		r.Post("/medications/{id}/administer", s.handleAdminister)

		r.Post("/meals", s.handleCreateMeal)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// instrument records per-route metrics and logs each request.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(route, status, elapsed)

		s.logger.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("api request")
	})
}

// Start serves until ctx is done.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
