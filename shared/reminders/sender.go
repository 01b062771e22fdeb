package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrAlertRejected marks an alert the notifier will never accept.
var ErrAlertRejected = errors.New("alert rejected")

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
		},
	}
}

// DeliveryError represents an error reported by the alert channel.
type DeliveryError struct {
	Code       int
	Message    string
	RetryAfter int // seconds to wait before retrying (for 429 errors)
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error %d: %s", e.Code, e.Message)
}

// IsDeliveryError checks if the error is a DeliveryError.
func IsDeliveryError(err error) (*DeliveryError, bool) {
	var dErr *DeliveryError
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}

// AlertSenderConfig holds configuration for the sender.
type AlertSenderConfig struct {
	// Rate is the number of alerts allowed per second.
	Rate float64
	// Burst is the maximum number of alerts sent back to back.
	Burst int
	Retry RetryConfig
}

// DefaultAlertSenderConfig returns the default configuration.
func DefaultAlertSenderConfig() AlertSenderConfig {
	return AlertSenderConfig{
		Rate:  20.0,
		Burst: 30,
		Retry: DefaultRetryConfig(),
	}
}

// AlertSender is a Sink that notifies staff when a reminder becomes overdue.
// A reminder is alerted once per overdue episode.
type AlertSender struct {
	notifier    Notifier
	rateLimiter *rate.Limiter
	retryConfig RetryConfig
	logger      Logger
	metrics     *Metrics

	mu      sync.Mutex
	alerted map[string]bool
}

// NewAlertSender creates a new alert sender.
func NewAlertSender(notifier Notifier, config AlertSenderConfig, logger Logger, metrics *Metrics) *AlertSender {
	if config.Rate <= 0 {
		config.Rate = DefaultAlertSenderConfig().Rate
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &AlertSender{
		notifier:    notifier,
		rateLimiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
		retryConfig: config.Retry,
		logger:      logger,
		metrics:     metrics,
		alerted:     make(map[string]bool),
	}
}

// Publish alerts every reminder that turned overdue since the previous board.
func (s *AlertSender) Publish(ctx context.Context, board Board) error {
	current := make(map[string]bool)
	var fresh []Reminder

	s.mu.Lock()
	for _, r := range board.Reminders {
		if !r.IsOverdue {
			continue
		}
		current[r.ID] = true
		if !s.alerted[r.ID] {
			fresh = append(fresh, r)
		}
	}
	for id := range s.alerted {
		if !current[id] {
			delete(s.alerted, id)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, r := range fresh {
		err := s.SendWithRetry(ctx, r)
		if err != nil && !errors.Is(err, ErrAlertRejected) {
			errs = append(errs, err)
			continue
		}
		s.mu.Lock()
		s.alerted[r.ID] = true
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Alerted reports whether id was alerted in the current overdue episode.
func (s *AlertSender) Alerted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerted[id]
}

// SendWithRetry sends an alert with retry logic and rate limiting.
func (s *AlertSender) SendWithRetry(ctx context.Context, r Reminder) error {
	if err := s.waitForToken(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	maxRetries := s.retryConfig.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := s.notifier.SendAlert(ctx, r)
		if err == nil {
			s.metrics.IncAlert("sent")
			s.logger.Info("overdue alert sent",
				"reminder_id", r.ID,
				"patient_id", r.PatientID)
			return nil
		}

		lastErr = err

		if dErr, ok := IsDeliveryError(err); ok {
			switch dErr.Code {
			case 429: // Too Many Requests
				waitTime := time.Duration(dErr.RetryAfter) * time.Second
				if waitTime == 0 {
					waitTime = s.delay(attempt)
				}
				s.logger.Info("rate limited by alert channel, waiting",
					"retry_after", waitTime,
					"attempt", attempt,
					"reminder_id", r.ID)
				s.metrics.IncRetries()

				if err := sleepContext(ctx, waitTime); err != nil {
					return err
				}
				continue

			case 403: // Chat forbids the bot
				return s.reject(r, "forbidden", err)

			case 400: // Bad Request
				return s.reject(r, "bad_request", err)
			}
		}

		if attempt < maxRetries {
			delay := s.delay(attempt)
			s.logger.Info("retrying overdue alert",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay", delay,
				"error", err)
			s.metrics.IncRetries()

			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		}
	}

	s.metrics.IncAlert("failed")
	s.logger.Error("max retries exceeded for overdue alert",
		"reminder_id", r.ID,
		"patient_id", r.PatientID,
		"error", lastErr)

	return fmt.Errorf("alert %s: max retries exceeded: %w", r.ID, lastErr)
}

func (s *AlertSender) reject(r Reminder, reason string, err error) error {
	s.metrics.IncAlert(reason)
	s.logger.Error("overdue alert rejected",
		"reminder_id", r.ID,
		"reason", reason,
		"error", err)
	return fmt.Errorf("%w: %s: %v", ErrAlertRejected, reason, err)
}

func (s *AlertSender) delay(attempt int) time.Duration {
	delays := s.retryConfig.RetryDelays
	if len(delays) == 0 {
		return time.Second
	}
	if attempt >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempt]
}

func (s *AlertSender) waitForToken(ctx context.Context) error {
	res := s.rateLimiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}
	s.metrics.IncRateLimitWaits()
	if err := sleepContext(ctx, delay); err != nil {
		res.Cancel()
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
