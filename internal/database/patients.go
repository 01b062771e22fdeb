package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"openward/internal/models"
)

const patientColumns = `id, name, mrn, bed_number, dob, gender, weight, emergency_contact,
	diagnosis, allergies, status, admission_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (models.Patient, error) {
	var p models.Patient
	var weight sql.NullFloat64
	err := row.Scan(&p.ID, &p.Name, &p.MRN, &p.BedNumber, &p.DOB, &p.Gender, &weight,
		&p.EmergencyContact, &p.Diagnosis, &p.Allergies, &p.Status, &p.AdmissionDate,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if weight.Valid {
		w := weight.Float64
		p.Weight = &w
	}
	return p, nil
}

// CreatePatient admits a patient and returns it with its new ID.
func (db *DB) CreatePatient(ctx context.Context, p *models.Patient) error {
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := models.ValidatePatient(p); err != nil {
		return err
	}

	now := db.now()
	var weight sql.NullFloat64
	if p.Weight != nil {
		weight = sql.NullFloat64{Float64: *p.Weight, Valid: true}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO patients (name, mrn, bed_number, dob, gender, weight, emergency_contact,
			diagnosis, allergies, status, admission_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.MRN, p.BedNumber, p.DOB, p.Gender, weight, p.EmergencyContact,
		p.Diagnosis, p.Allergies, p.Status, p.AdmissionDate, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	db.publish("patient", id, "created")
	return nil
}

// GetPatient returns a patient by ID.
func (db *DB) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	row := db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// ListPatients returns patients ordered by bed. An empty status lists all.
func (db *DB) ListPatients(ctx context.Context, status string) ([]models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY bed_number, id`

	return queryPatients(ctx, db.DB, query, args...)
}

func queryPatients(ctx context.Context, q querier, query string, args ...any) ([]models.Patient, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// DischargePatient marks an active patient discharged. Discharging twice is
// a no-op.
func (db *DB) DischargePatient(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `
		UPDATE patients SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.StatusDischarged, db.now(), id, models.StatusActive,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		if _, err := db.GetPatient(ctx, id); err != nil {
			return err
		}
		return nil
	}

	db.publish("patient", id, "discharged")
	return nil
}
