package database

import (
	"context"
	"fmt"
	"time"

	"openward/internal/models"
)

const mealColumns = `id, patient_id, type, recorded_at, recorded_by, description,
	amount_consumed, notes, created_at`

func scanMeal(row rowScanner) (models.Meal, error) {
	var m models.Meal
	err := row.Scan(&m.ID, &m.PatientID, &m.Type, &m.RecordedAt, &m.RecordedBy,
		&m.Description, &m.AmountConsumed, &m.Notes, &m.CreatedAt)
	return m, err
}

// CreateMeal logs a meal for an existing patient. A zero RecordedAt means now.
func (db *DB) CreateMeal(ctx context.Context, m *models.Meal) error {
	now := db.now()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = now
	}
	if err := models.ValidateMeal(m); err != nil {
		return err
	}
	if _, err := db.GetPatient(ctx, m.PatientID); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO meals (patient_id, type, recorded_at, recorded_by, description,
			amount_consumed, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PatientID, m.Type, m.RecordedAt.UTC(), m.RecordedBy, m.Description,
		m.AmountConsumed, m.Notes, now,
	)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = now

	db.publish("meal", id, "created")
	return nil
}

// ListMealsSince returns meals recorded at or after since, oldest first.
func (db *DB) ListMealsSince(ctx context.Context, since time.Time) ([]models.Meal, error) {
	return queryMeals(ctx, db.DB, `
		SELECT `+mealColumns+` FROM meals
		WHERE recorded_at >= ?
		ORDER BY recorded_at, id`, since.UTC())
}

func queryMeals(ctx context.Context, q querier, query string, args ...any) ([]models.Meal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []models.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}
