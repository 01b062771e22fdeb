package reminders

import "strings"

// DefaultThresholdHours applies when a frequency matches no known code.
const DefaultThresholdHours = 24

// frequencyRules are checked in order; the first substring match wins.
// TID stays at 8h, ward protocol.
var frequencyRules = []struct {
	code  string
	hours int
}{
	{"Q4H", 4},
	{"Q6H", 6},
	{"Q8H", 8},
	{"BID", 12},
	{"TID", 8},
	{"daily", 24},
}

// ThresholdHours maps a free-text frequency to the number of hours after
// which a dose counts as overdue. Matching is case-sensitive.
func ThresholdHours(frequency string) int {
	for _, rule := range frequencyRules {
		if strings.Contains(frequency, rule.code) {
			return rule.hours
		}
	}
	return DefaultThresholdHours
}
