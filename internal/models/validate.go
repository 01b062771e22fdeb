package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid record")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// IsValidStatus checks a patient status.
func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusDischarged:
		return true
	default:
		return false
	}
}

// IsValidMealType checks a meal type.
func IsValidMealType(t string) bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	default:
		return false
	}
}

func isValidAmount(a string) bool {
	switch a {
	case AmountUnknown, AmountNone, Amount25, Amount50, Amount75, AmountAll:
		return true
	default:
		return false
	}
}

// ValidatePatient checks a patient before it is stored.
func ValidatePatient(p *Patient) error {
	if p == nil {
		return invalid("patient is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("patient name is required")
	}
	if strings.TrimSpace(p.BedNumber) == "" {
		return invalid("bed number is required")
	}
	if !IsValidStatus(p.Status) {
		return invalid("unknown patient status %q", p.Status)
	}
	if p.Gender != "" && p.Gender != GenderMale && p.Gender != GenderFemale {
		return invalid("unknown gender %q", p.Gender)
	}
	if p.Weight != nil && *p.Weight <= 0 {
		return invalid("weight must be positive")
	}
	return nil
}

// ValidateMedication checks a medication order before it is stored.
func ValidateMedication(m *Medication) error {
	if m == nil {
		return invalid("medication is nil")
	}
	if m.PatientID <= 0 {
		return invalid("medication must reference a patient")
	}
	if strings.TrimSpace(m.Name) == "" {
		return invalid("medication name is required")
	}
	if strings.TrimSpace(m.Frequency) == "" {
		return invalid("medication frequency is required")
	}
	if m.StartDate.IsZero() {
		return invalid("medication start date is required")
	}
	return nil
}

// ValidateMeal checks a meal entry before it is stored.
func ValidateMeal(m *Meal) error {
	if m == nil {
		return invalid("meal is nil")
	}
	if m.PatientID <= 0 {
		return invalid("meal must reference a patient")
	}
	if !IsValidMealType(m.Type) {
		return invalid("unknown meal type %q", m.Type)
	}
	if m.RecordedAt.IsZero() {
		return invalid("meal recorded_at is required")
	}
	if !isValidAmount(m.AmountConsumed) {
		return invalid("unknown amount consumed %q", m.AmountConsumed)
	}
	return nil
}
