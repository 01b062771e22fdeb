package reminders

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"openward/internal/models"
)

const mealNotLogged = "Meal not logged"

// Generate derives the ordered reminder list for the given records at now.
// It never performs I/O and returns the same list for the same inputs.
func Generate(snap Snapshot, now time.Time) []Reminder {
	patients := make(map[int64]*models.Patient, len(snap.Patients))
	for i := range snap.Patients {
		patients[snap.Patients[i].ID] = &snap.Patients[i]
	}

	list := make([]Reminder, 0)
	for i := range snap.Medications {
		med := &snap.Medications[i]
		patient, ok := patients[med.PatientID]
		if !ok || !patient.IsActive() {
			continue
		}
		if r, due := medicationReminder(med, patient, now); due {
			list = append(list, r)
		}
	}

	list = append(list, mealReminders(snap, now)...)

	SortReminders(list)
	return list
}

func medicationReminder(med *models.Medication, patient *models.Patient, now time.Time) (Reminder, bool) {
	if med.PRN {
		return Reminder{}, false
	}

	threshold := ThresholdHours(med.Frequency)
	hoursSince := threshold + 1
	reference := med.StartDate
	if med.LastGiven != nil {
		reference = *med.LastGiven
		hoursSince = int(now.Sub(reference) / time.Hour)
	}

	isOverdue := hoursSince >= threshold
	if !isOverdue && hoursSince < threshold-1 {
		return Reminder{}, false
	}

	return Reminder{
		ID:          fmt.Sprintf("med-%d", med.ID),
		Kind:        ReminderKindMedication,
		PatientID:   patient.ID,
		PatientName: patient.Name,
		BedNumber:   patient.BedNumber,
		Title:       med.Name,
		Detail:      med.Dosage + " • " + med.Route,
		IsOverdue:   isOverdue,
		Time:        reference,
	}, true
}

func mealReminders(snap Snapshot, now time.Time) []Reminder {
	hour := now.Hour()
	window, ok := CurrentMealWindow(hour)
	if !ok {
		return nil
	}

	logged := make(map[int64]bool)
	for i := range snap.Meals {
		m := &snap.Meals[i]
		if m.Type == window.Type && sameLocalDay(m.RecordedAt, now) {
			logged[m.PatientID] = true
		}
	}

	var list []Reminder
	for i := range snap.Patients {
		p := &snap.Patients[i]
		if !p.IsActive() || logged[p.ID] {
			continue
		}
		list = append(list, Reminder{
			ID:          fmt.Sprintf("meal-%d-%s", p.ID, window.Type),
			Kind:        ReminderKindMeal,
			PatientID:   p.ID,
			PatientName: p.Name,
			BedNumber:   p.BedNumber,
			Title:       capitalize(window.Type),
			Detail:      mealNotLogged,
			IsOverdue:   hour > window.Start+1,
			Time:        now,
		})
	}
	return list
}

// SortReminders orders overdue reminders first, then by time, newest first.
// Equal elements keep their relative order.
func SortReminders(list []Reminder) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsOverdue != list[j].IsOverdue {
			return list[i].IsOverdue
		}
		return list[i].Time.After(list[j].Time)
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
