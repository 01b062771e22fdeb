package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidatePatient(t *testing.T) {
	weight := 68.0
	zero := 0.0

	tests := []struct {
		name    string
		patient *Patient
		wantErr bool
	}{
		{"valid", &Patient{Name: "Ramesh Patel", BedNumber: "A1", Status: StatusActive, Weight: &weight}, false},
		{"discharged is valid", &Patient{Name: "Sunita Devi", BedNumber: "A2", Status: StatusDischarged}, false},
		{"nil", nil, true},
		{"missing name", &Patient{BedNumber: "A1", Status: StatusActive}, true},
		{"missing bed", &Patient{Name: "X", Status: StatusActive}, true},
		{"unknown status", &Patient{Name: "X", BedNumber: "A1", Status: "transferred"}, true},
		{"unknown gender", &Patient{Name: "X", BedNumber: "A1", Status: StatusActive, Gender: "other"}, true},
		{"zero weight", &Patient{Name: "X", BedNumber: "A1", Status: StatusActive, Weight: &zero}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatient(tt.patient)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMedication(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Valid", func(t *testing.T) {
		m := &Medication{PatientID: 1, Name: "Paracetamol", Frequency: "Q6H", StartDate: start}
		assert.NoError(t, ValidateMedication(m))
	})

	t.Run("MissingPatient", func(t *testing.T) {
		m := &Medication{Name: "Paracetamol", Frequency: "Q6H", StartDate: start}
		assert.ErrorIs(t, ValidateMedication(m), ErrInvalid)
	})

	t.Run("MissingFrequency", func(t *testing.T) {
		m := &Medication{PatientID: 1, Name: "Paracetamol", StartDate: start}
		assert.ErrorIs(t, ValidateMedication(m), ErrInvalid)
	})

	t.Run("MissingStartDate", func(t *testing.T) {
		m := &Medication{PatientID: 1, Name: "Paracetamol", Frequency: "BID"}
		assert.ErrorIs(t, ValidateMedication(m), ErrInvalid)
	})
}

func TestValidateMeal(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	assert.NoError(t, ValidateMeal(&Meal{PatientID: 1, Type: MealLunch, RecordedAt: at, AmountConsumed: Amount75}))
	assert.NoError(t, ValidateMeal(&Meal{PatientID: 1, Type: MealSnack, RecordedAt: at}))
	assert.ErrorIs(t, ValidateMeal(&Meal{PatientID: 1, Type: "brunch", RecordedAt: at}), ErrInvalid)
	assert.ErrorIs(t, ValidateMeal(&Meal{PatientID: 1, Type: MealLunch}), ErrInvalid)
	assert.ErrorIs(t, ValidateMeal(&Meal{PatientID: 1, Type: MealLunch, RecordedAt: at, AmountConsumed: "90%"}), ErrInvalid)
	assert.ErrorIs(t, ValidateMeal(&Meal{Type: MealLunch, RecordedAt: at}), ErrInvalid)
}

func TestPatientIsActive(t *testing.T) {
	assert.True(t, (&Patient{Status: StatusActive}).IsActive())
	assert.False(t, (&Patient{Status: StatusDischarged}).IsActive())
	assert.False(t, (&Patient{}).IsActive())
}
