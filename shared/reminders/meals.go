package reminders

import (
	"time"

	"openward/internal/models"
)

// MealWindow is an hour-of-day range, bounds inclusive.
type MealWindow struct {
	Type  string
	Start int
	End   int
}

// MealSchedule is the fixed daily meal schedule of the ward.
var MealSchedule = []MealWindow{
	{Type: models.MealBreakfast, Start: 7, End: 9},
	{Type: models.MealLunch, Start: 12, End: 14},
	{Type: models.MealDinner, Start: 18, End: 20},
}

// CurrentMealWindow returns the window containing hour, if any.
func CurrentMealWindow(hour int) (MealWindow, bool) {
	for _, w := range MealSchedule {
		if hour >= w.Start && hour <= w.End {
			return w, true
		}
	}
	return MealWindow{}, false
}

// sameLocalDay compares calendar dates in now's location.
func sameLocalDay(t, now time.Time) bool {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
