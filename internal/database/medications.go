package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"openward/internal/models"
)

const medicationColumns = `id, patient_id, name, dosage, route, frequency, prn,
	start_date, last_given, created_at, updated_at`

func scanMedication(row rowScanner) (models.Medication, error) {
	var m models.Medication
	var lastGiven sql.NullTime
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Route, &m.Frequency, &m.PRN,
		&m.StartDate, &lastGiven, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	if lastGiven.Valid {
		t := lastGiven.Time
		m.LastGiven = &t
	}
	return m, nil
}

// CreateMedication records a standing order for an existing patient.
func (db *DB) CreateMedication(ctx context.Context, m *models.Medication) error {
	if err := models.ValidateMedication(m); err != nil {
		return err
	}
	if _, err := db.GetPatient(ctx, m.PatientID); err != nil {
		return err
	}

	now := db.now()
	var lastGiven sql.NullTime
	if m.LastGiven != nil {
		lastGiven = sql.NullTime{Time: m.LastGiven.UTC(), Valid: true}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO medications (patient_id, name, dosage, route, frequency, prn,
			start_date, last_given, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PatientID, m.Name, m.Dosage, m.Route, m.Frequency, m.PRN,
		m.StartDate.UTC(), lastGiven, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now

	db.publish("medication", id, "created")
	return nil
}

// GetMedication returns a medication by ID.
func (db *DB) GetMedication(ctx context.Context, id int64) (*models.Medication, error) {
	row := db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id)
	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("medication %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

// ListMedications returns medications, optionally for one patient (patientID > 0).
func (db *DB) ListMedications(ctx context.Context, patientID int64) ([]models.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications`
	var args []any
	if patientID > 0 {
		query += ` WHERE patient_id = ?`
		args = append(args, patientID)
	}
	query += ` ORDER BY id`

	return queryMedications(ctx, db.DB, query, args...)
}

func queryMedications(ctx context.Context, q querier, query string, args ...any) ([]models.Medication, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

// MarkMedicationGiven records an administered dose at the given time.
func (db *DB) MarkMedicationGiven(ctx context.Context, id int64, at time.Time) (*models.Medication, error) {
	if at.IsZero() {
		at = db.now()
	}
	result, err := db.ExecContext(ctx, `
		UPDATE medications SET last_given = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), db.now(), id,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("medication %d: %w", id, ErrNotFound)
	}

	db.publish("medication", id, "administered")
	return db.GetMedication(ctx, id)
}
