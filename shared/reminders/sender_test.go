package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendAlert(ctx context.Context, r Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func reminderID(id string) interface{} {
	return mock.MatchedBy(func(r Reminder) bool { return r.ID == id })
}

func fastSenderConfig() AlertSenderConfig {
	return AlertSenderConfig{
		Rate:  1000,
		Burst: 100,
		Retry: RetryConfig{
			MaxRetries:  2,
			RetryDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond},
		},
	}
}

func boardOf(list ...Reminder) Board {
	return NewBoard(at(13, 0), TriggerTick, list)
}

func TestAlertSender_AlertsOncePerOverdueEpisode(t *testing.T) {
	notifier := new(mockNotifier)
	sender := NewAlertSender(notifier, fastSenderConfig(), nil, nil)
	ctx := context.Background()

	overdue := Reminder{ID: "med-1", Kind: ReminderKindMedication, IsOverdue: true}
	dueSoon := Reminder{ID: "med-2", Kind: ReminderKindMedication}

	notifier.On("SendAlert", mock.Anything, reminderID("med-1")).Return(nil).Twice()

	require.NoError(t, sender.Publish(ctx, boardOf(overdue, dueSoon)))
	assert.True(t, sender.Alerted("med-1"))
	assert.False(t, sender.Alerted("med-2"))

	// Still overdue on the next tick: no second alert.
	require.NoError(t, sender.Publish(ctx, boardOf(overdue, dueSoon)))

	// Dose given, reminder gone: the episode ends.
	require.NoError(t, sender.Publish(ctx, boardOf(dueSoon)))
	assert.False(t, sender.Alerted("med-1"))

	// Overdue again later: alert again.
	require.NoError(t, sender.Publish(ctx, boardOf(overdue)))

	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "SendAlert", mock.Anything, reminderID("med-2"))
}

func TestAlertSender_RetriesTransientErrors(t *testing.T) {
	notifier := new(mockNotifier)
	metrics := NewMetrics("test", prometheus.NewRegistry())
	sender := NewAlertSender(notifier, fastSenderConfig(), nil, metrics)

	r := Reminder{ID: "meal-3-lunch", Kind: ReminderKindMeal, IsOverdue: true}
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).Return(errors.New("connection reset")).Once()
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).Return(nil).Once()

	err := sender.SendWithRetry(context.Background(), r)

	require.NoError(t, err)
	notifier.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsSentTotal.WithLabelValues("sent")))
}

func TestAlertSender_TooManyRequestsWaitsAndRetries(t *testing.T) {
	notifier := new(mockNotifier)
	sender := NewAlertSender(notifier, fastSenderConfig(), nil, nil)

	r := Reminder{ID: "med-4", IsOverdue: true}
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).
		Return(&DeliveryError{Code: 429, Message: "Too Many Requests"}).Once()
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).Return(nil).Once()

	require.NoError(t, sender.SendWithRetry(context.Background(), r))
	notifier.AssertExpectations(t)
}

func TestAlertSender_ForbiddenIsNotRetried(t *testing.T) {
	notifier := new(mockNotifier)
	metrics := NewMetrics("test", prometheus.NewRegistry())
	sender := NewAlertSender(notifier, fastSenderConfig(), nil, metrics)
	ctx := context.Background()

	r := Reminder{ID: "med-5", IsOverdue: true}
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).
		Return(&DeliveryError{Code: 403, Message: "Forbidden: bot was kicked"}).Once()

	err := sender.SendWithRetry(ctx, r)
	assert.ErrorIs(t, err, ErrAlertRejected)

	// Publish treats a rejection as handled so it is not resent every tick.
	notifier.On("SendAlert", mock.Anything, reminderID("med-6")).
		Return(&DeliveryError{Code: 400, Message: "Bad Request: chat not found"}).Once()
	require.NoError(t, sender.Publish(ctx, boardOf(Reminder{ID: "med-6", IsOverdue: true})))
	require.NoError(t, sender.Publish(ctx, boardOf(Reminder{ID: "med-6", IsOverdue: true})))

	notifier.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsSentTotal.WithLabelValues("forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AlertsSentTotal.WithLabelValues("bad_request")))
}

func TestAlertSender_MaxRetriesExceeded(t *testing.T) {
	notifier := new(mockNotifier)
	sender := NewAlertSender(notifier, fastSenderConfig(), nil, nil)
	ctx := context.Background()

	r := Reminder{ID: "med-7", IsOverdue: true}
	// MaxRetries=2 means three attempts per publish.
	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).Return(errors.New("timeout")).Times(3)

	err := sender.Publish(ctx, boardOf(r))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.False(t, sender.Alerted(r.ID), "failed alert must be retried on the next board")

	notifier.On("SendAlert", mock.Anything, reminderID(r.ID)).Return(nil).Once()
	require.NoError(t, sender.Publish(ctx, boardOf(r)))
	assert.True(t, sender.Alerted(r.ID))
	notifier.AssertExpectations(t)
}

func TestAlertSender_ContextCancelledDuringBackoff(t *testing.T) {
	notifier := new(mockNotifier)
	cfg := fastSenderConfig()
	cfg.Retry.RetryDelays = []time.Duration{time.Hour}
	sender := NewAlertSender(notifier, cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	notifier.On("SendAlert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(errors.New("timeout")).Once()

	err := sender.SendWithRetry(ctx, Reminder{ID: "med-8", IsOverdue: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsDeliveryError(t *testing.T) {
	wrapped := errors.Join(errors.New("send"), &DeliveryError{Code: 429, RetryAfter: 3})

	dErr, ok := IsDeliveryError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 3, dErr.RetryAfter)

	_, ok = IsDeliveryError(errors.New("plain"))
	assert.False(t, ok)
}
