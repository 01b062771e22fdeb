package models

import "time"

// Patient statuses.
const (
	StatusActive     = "active"
	StatusDischarged = "discharged"
)

// Genders accepted on admission.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Meal types.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Meal amounts consumed.
const (
	AmountNone    = "none"
	Amount25      = "25%"
	Amount50      = "50%"
	Amount75      = "75%"
	AmountAll     = "100%"
	AmountUnknown = ""
)

// Patient is an admitted (or discharged) ward patient.
type Patient struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	MRN              string    `json:"mrn"`
	BedNumber        string    `json:"bed_number"`
	DOB              string    `json:"dob,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	Weight           *float64  `json:"weight,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	Diagnosis        string    `json:"diagnosis,omitempty"`
	Allergies        string    `json:"allergies,omitempty"`
	Status           string    `json:"status"`
	AdmissionDate    string    `json:"admission_date,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsActive reports whether the patient is still on the ward.
func (p *Patient) IsActive() bool {
	return p.Status == StatusActive
}

// Medication is a standing order for a patient.
type Medication struct {
	ID        int64      `json:"id"`
	PatientID int64      `json:"patient_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Route     string     `json:"route"`
	Frequency string     `json:"frequency"`
	PRN       bool       `json:"prn"`
	StartDate time.Time  `json:"start_date"`
	LastGiven *time.Time `json:"last_given,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Meal is a logged meal for a patient.
type Meal struct {
	ID             int64     `json:"id"`
	PatientID      int64     `json:"patient_id"`
	Type           string    `json:"type"`
	RecordedAt     time.Time `json:"recorded_at"`
	RecordedBy     string    `json:"recorded_by,omitempty"`
	Description    string    `json:"description,omitempty"`
	AmountConsumed string    `json:"amount_consumed,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
