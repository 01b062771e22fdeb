package database

import (
	"context"
	"database/sql"
	"fmt"

	"openward/shared/reminders"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var _ reminders.RecordSource = (*DB)(nil)

// LoadSnapshot reads patients, medications and recent meals inside one read
// transaction so the reminder engine sees a consistent view.
func (db *DB) LoadSnapshot(ctx context.Context) (reminders.Snapshot, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return reminders.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	patients, err := queryPatients(ctx, tx, `SELECT `+patientColumns+` FROM patients ORDER BY id`)
	if err != nil {
		return reminders.Snapshot{}, fmt.Errorf("load patients: %w", err)
	}

	meds, err := queryMedications(ctx, tx, `SELECT `+medicationColumns+` FROM medications ORDER BY id`)
	if err != nil {
		return reminders.Snapshot{}, fmt.Errorf("load medications: %w", err)
	}

	since := db.now().Add(-MealLookback)
	meals, err := queryMeals(ctx, tx, `
		SELECT `+mealColumns+` FROM meals
		WHERE recorded_at >= ?
		ORDER BY recorded_at, id`, since)
	if err != nil {
		return reminders.Snapshot{}, fmt.Errorf("load meals: %w", err)
	}

	return reminders.Snapshot{
		Patients:    patients,
		Medications: meds,
		Meals:       meals,
	}, nil
}
