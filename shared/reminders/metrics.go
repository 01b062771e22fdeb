package reminders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reminder system.
type Metrics struct {
	// EvaluationsTotal is the number of evaluations by trigger and result.
	EvaluationsTotal *prometheus.CounterVec

	// EvaluationDuration is the time to load records and generate reminders.
	EvaluationDuration prometheus.Histogram

	// RemindersCurrent is the size of the latest board by kind and overdue flag.
	RemindersCurrent *prometheus.GaugeVec

	// AlertsSentTotal is the number of overdue alerts by status.
	AlertsSentTotal *prometheus.CounterVec

	// AlertRetries is the total number of alert retry attempts.
	AlertRetries prometheus.Counter

	// RateLimitWaits counts alerts that had to wait for the rate limiter.
	RateLimitWaits prometheus.Counter
}

// NewMetrics creates reminder metrics and registers them with reg.
// A nil reg registers with the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_evaluations_total",
				Help:      "Total number of reminder evaluations",
			},
			[]string{"trigger", "result"},
		),

		EvaluationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reminder_evaluation_duration_seconds",
				Help:      "Time to load records and generate reminders",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
			},
		),

		RemindersCurrent: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reminders_current",
				Help:      "Reminders on the latest board",
			},
			[]string{"kind", "overdue"},
		),

		AlertsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_alerts_total",
				Help:      "Total number of overdue alerts by delivery status",
			},
			[]string{"status"},
		),

		AlertRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_alert_retries_total",
				Help:      "Total number of alert retry attempts",
			},
		),

		RateLimitWaits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_alert_rate_limit_waits_total",
				Help:      "Total number of rate limit waits",
			},
		),
	}
}

// IncEvaluation counts one evaluation.
func (m *Metrics) IncEvaluation(trigger Trigger, result string) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(string(trigger), result).Inc()
}

// ObserveEvaluation records evaluation time.
func (m *Metrics) ObserveEvaluation(seconds float64) {
	if m == nil {
		return
	}
	m.EvaluationDuration.Observe(seconds)
}

// SetBoard updates the current reminder gauges from a board.
func (m *Metrics) SetBoard(board Board) {
	if m == nil {
		return
	}
	counts := map[ReminderKind][2]int{
		ReminderKindMedication: {},
		ReminderKindMeal:       {},
	}
	for _, r := range board.Reminders {
		c := counts[r.Kind]
		if r.IsOverdue {
			c[1]++
		} else {
			c[0]++
		}
		counts[r.Kind] = c
	}
	for kind, c := range counts {
		m.RemindersCurrent.WithLabelValues(string(kind), "false").Set(float64(c[0]))
		m.RemindersCurrent.WithLabelValues(string(kind), "true").Set(float64(c[1]))
	}
}

// IncAlert increments the alert counter for a status.
func (m *Metrics) IncAlert(status string) {
	if m == nil {
		return
	}
	m.AlertsSentTotal.WithLabelValues(status).Inc()
}

// IncRetries increments the retry counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.AlertRetries.Inc()
}

// IncRateLimitWaits increments the rate limit wait counter.
func (m *Metrics) IncRateLimitWaits() {
	if m == nil {
		return
	}
	m.RateLimitWaits.Inc()
}
