package reminders

import (
	"context"
	"time"

	"openward/internal/models"
)

// ReminderKind defines what a reminder is about.
type ReminderKind string

const (
	ReminderKindMedication ReminderKind = "medication"
	ReminderKindMeal       ReminderKind = "meal"
)

// Trigger records why an evaluation ran.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerTick    Trigger = "tick"
	TriggerChange  Trigger = "change"
	TriggerManual  Trigger = "manual"
)

// Reminder is a derived, time-sensitive item for the ward board.
// Reminders are recomputed on every evaluation and never stored as records.
type Reminder struct {
	ID          string       `json:"id"`
	Kind        ReminderKind `json:"kind"`
	PatientID   int64        `json:"patient_id"`
	PatientName string       `json:"patient_name"`
	BedNumber   string       `json:"bed_number"`
	Title       string       `json:"title"`
	Detail      string       `json:"detail"`
	IsOverdue   bool         `json:"is_overdue"`
	Time        time.Time    `json:"time"`
}

// Snapshot is an immutable view of the records an evaluation works on.
type Snapshot struct {
	Patients    []models.Patient
	Medications []models.Medication
	Meals       []models.Meal
}

// Board is the published result of one evaluation.
type Board struct {
	EvaluatedAt  time.Time  `json:"evaluated_at"`
	Trigger      Trigger    `json:"trigger"`
	Reminders    []Reminder `json:"reminders"`
	OverdueCount int        `json:"overdue_count"`
}

// NewBoard wraps generated reminders.
func NewBoard(now time.Time, trigger Trigger, list []Reminder) Board {
	overdue := 0
	for i := range list {
		if list[i].IsOverdue {
			overdue++
		}
	}
	if list == nil {
		list = []Reminder{}
	}
	return Board{
		EvaluatedAt:  now,
		Trigger:      trigger,
		Reminders:    list,
		OverdueCount: overdue,
	}
}

// RecordSource provides the records reminders are derived from.
type RecordSource interface {
	// LoadSnapshot returns a fresh, fully materialised copy of the ward records.
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// Sink receives every published board.
type Sink interface {
	Publish(ctx context.Context, board Board) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, board Board) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, board Board) error {
	return f(ctx, board)
}

// Notifier delivers overdue alerts to ward staff.
type Notifier interface {
	// SendAlert sends a single overdue reminder.
	SendAlert(ctx context.Context, r Reminder) error
}

// Logger interface for logging.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
