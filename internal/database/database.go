package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"openward/internal/events"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MealLookback bounds how far back LoadSnapshot reads meals.
const MealLookback = 48 * time.Hour

// DB is the ward record store.
type DB struct {
	*sql.DB
	path   string
	bus    *events.EventBus
	clock  func() time.Time
	logger *zerolog.Logger
}

// NewDB opens the database at path and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	instance := &DB{
		DB:     db,
		path:   path,
		clock:  time.Now,
		logger: logger,
	}

	if err := instance.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// WithEventBus makes every successful write publish records.changed on bus.
func (db *DB) WithEventBus(bus *events.EventBus) *DB {
	db.bus = bus
	return db
}

// WithClock replaces the wall clock, mostly for tests.
func (db *DB) WithClock(clock func() time.Time) *DB {
	db.clock = clock
	return db
}

func (db *DB) now() time.Time {
	return db.clock().UTC()
}

func (db *DB) publish(entity string, id int64, action string) {
	if db.bus == nil {
		return
	}
	db.bus.Publish(events.NewRecordsChanged(events.RecordChange{
		Entity:   entity,
		EntityID: id,
		Action:   action,
	}))
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			mrn TEXT NOT NULL DEFAULT '',
			bed_number TEXT NOT NULL,
			dob TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			weight REAL,
			emergency_contact TEXT NOT NULL DEFAULT '',
			diagnosis TEXT NOT NULL DEFAULT '',
			allergies TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			admission_date TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS medications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			dosage TEXT NOT NULL DEFAULT '',
			route TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL,
			prn BOOLEAN NOT NULL DEFAULT 0,
			start_date DATETIME NOT NULL,
			last_given DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (patient_id) REFERENCES patients(id)
		)`,
		`CREATE TABLE IF NOT EXISTS meals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			recorded_at DATETIME NOT NULL,
			recorded_by TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			amount_consumed TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (patient_id) REFERENCES patients(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_patients_status ON patients(status)`,
		`CREATE INDEX IF NOT EXISTS idx_patients_mrn ON patients(mrn)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_patient ON medications(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_meals_patient_recorded ON meals(patient_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_meals_recorded ON meals(recorded_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
