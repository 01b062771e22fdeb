package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"openward/internal/models"
)

// CreatePatientRequest is the body of POST /api/v1/patients.
type CreatePatientRequest struct {
	Name             string   `json:"name"`
	MRN              string   `json:"mrn"`
	BedNumber        string   `json:"bed_number"`
	DOB              string   `json:"dob,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	EmergencyContact string   `json:"emergency_contact,omitempty"`
	Diagnosis        string   `json:"diagnosis,omitempty"`
	Allergies        string   `json:"allergies,omitempty"`
	AdmissionDate    string   `json:"admission_date,omitempty"`
}

// CreateMedicationRequest is the body of POST /api/v1/medications.
type CreateMedicationRequest struct {
	PatientID int64      `json:"patient_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Route     string     `json:"route"`
	Frequency string     `json:"frequency"`
	PRN       bool       `json:"prn"`
	StartDate *time.Time `json:"start_date,omitempty"` // defaults to now
}

// AdministerRequest is the optional body of POST /api/v1/medications/{id}/administer.
type AdministerRequest struct {
	GivenAt *time.Time `json:"given_at,omitempty"` // defaults to now
}

// CreateMealRequest is the body of POST /api/v1/meals.
type CreateMealRequest struct {
	PatientID      int64      `json:"patient_id"`
	Type           string     `json:"type"`
	RecordedAt     *time.Time `json:"recorded_at,omitempty"` // defaults to now
	RecordedBy     string     `json:"recorded_by,omitempty"`
	Description    string     `json:"description,omitempty"`
	AmountConsumed string     `json:"amount_consumed,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// GET /api/v1/patients?status=active
func (s *HTTPServer) handleListPatients(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.IsValidStatus(status) {
		writeError(w, http.StatusBadRequest, "status must be active or discharged")
		return
	}

	patients, err := s.store.ListPatients(r.Context(), status)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

// POST /api/v1/patients
func (s *HTTPServer) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := &models.Patient{
		Name:             req.Name,
		MRN:              req.MRN,
		BedNumber:        req.BedNumber,
		DOB:              req.DOB,
		Gender:           req.Gender,
		Weight:           req.Weight,
		EmergencyContact: req.EmergencyContact,
		Diagnosis:        req.Diagnosis,
		Allergies:        req.Allergies,
		Status:           models.StatusActive,
		AdmissionDate:    req.AdmissionDate,
	}
	if err := s.store.CreatePatient(r.Context(), p); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// POST /api/v1/patients/{id}/discharge
func (s *HTTPServer) handleDischarge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	if err := s.store.DischargePatient(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": models.StatusDischarged})
}

// GET /api/v1/medications?patient_id=3
func (s *HTTPServer) handleListMedications(w http.ResponseWriter, r *http.Request) {
	var patientID int64
	if v := r.URL.Query().Get("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid patient_id")
			return
		}
		patientID = id
	}

	meds, err := s.store.ListMedications(r.Context(), patientID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"medications": meds})
}

// POST /api/v1/medications
func (s *HTTPServer) handleCreateMedication(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m := &models.Medication{
		PatientID: req.PatientID,
		Name:      req.Name,
		Dosage:    req.Dosage,
		Route:     req.Route,
		Frequency: req.Frequency,
		PRN:       req.PRN,
		StartDate: s.clock(),
	}
	if req.StartDate != nil {
		m.StartDate = *req.StartDate
	}
	if err := s.store.CreateMedication(r.Context(), m); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// POST /api/v1/medications/{id}/administer
func (s *HTTPServer) handleAdminister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid medication id")
		return
	}

	var req AdministerRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	givenAt := s.clock()
	if req.GivenAt != nil {
		if req.GivenAt.After(givenAt) {
			writeError(w, http.StatusBadRequest, "given_at cannot be in the future")
			return
		}
		givenAt = *req.GivenAt
	}

	med, err := s.store.MarkMedicationGiven(r.Context(), id, givenAt)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// POST /api/v1/meals
func (s *HTTPServer) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var req CreateMealRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m := &models.Meal{
		PatientID:      req.PatientID,
		Type:           req.Type,
		RecordedAt:     s.clock(),
		RecordedBy:     req.RecordedBy,
		Description:    req.Description,
		AmountConsumed: req.AmountConsumed,
		Notes:          req.Notes,
	}
	if req.RecordedAt != nil {
		m.RecordedAt = *req.RecordedAt
	}
	if err := s.store.CreateMeal(r.Context(), m); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
