package reminders

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SchedulerConfig holds configuration for the reminder scheduler.
type SchedulerConfig struct {
	// Timezone for hour-of-day and calendar-day rules (e.g., "Asia/Kolkata").
	// Empty means the process local zone.
	Timezone string
	// CheckInterval is how often reminders are re-evaluated with unchanged data.
	CheckInterval time.Duration
	// ChangeRate is the maximum number of change-triggered evaluations per second.
	ChangeRate float64
	// ChangeBurst is the number of change-triggered evaluations allowed at once.
	ChangeBurst int
	// EvaluationTimeout bounds loading records and publishing a board.
	EvaluationTimeout time.Duration
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Timezone:          "",
		CheckInterval:     1 * time.Minute,
		ChangeRate:        2,
		ChangeBurst:       4,
		EvaluationTimeout: 10 * time.Second,
	}
}

// Scheduler re-evaluates reminders on a timer and on record changes and
// publishes each board to its sinks.
type Scheduler struct {
	config   SchedulerConfig
	source   RecordSource
	sinks    []Sink
	location *time.Location
	logger   Logger
	metrics  *Metrics
	clock    func() time.Time
	limiter  *rate.Limiter
	changes  chan struct{}

	evalMu sync.Mutex

	mu        sync.Mutex
	latest    Board
	hasLatest bool
	running   bool
	stopCh    chan struct{}
}

// NewScheduler creates a new reminder scheduler.
func NewScheduler(
	config SchedulerConfig,
	source RecordSource,
	logger Logger,
	sinks ...Sink,
) (*Scheduler, error) {
	defaults := DefaultSchedulerConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.ChangeRate <= 0 {
		config.ChangeRate = defaults.ChangeRate
	}
	if config.ChangeBurst <= 0 {
		config.ChangeBurst = defaults.ChangeBurst
	}
	if config.EvaluationTimeout <= 0 {
		config.EvaluationTimeout = defaults.EvaluationTimeout
	}

	loc := time.Local
	if config.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return &Scheduler{
		config:   config,
		source:   source,
		sinks:    sinks,
		location: loc,
		logger:   logger,
		clock:    time.Now,
		limiter:  rate.NewLimiter(rate.Limit(config.ChangeRate), config.ChangeBurst),
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// WithMetrics attaches metrics to the scheduler.
func (s *Scheduler) WithMetrics(m *Metrics) *Scheduler {
	s.metrics = m
	return s
}

// WithClock replaces the wall clock, mostly for tests.
func (s *Scheduler) WithClock(clock func() time.Time) *Scheduler {
	s.clock = clock
	return s
}

// Location returns the zone reminders are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Start evaluates once and then keeps the board fresh until ctx is done or
// Stop is called. It blocks.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("reminder scheduler started",
		"timezone", s.location.String(),
		"check_interval", s.config.CheckInterval)

	s.evaluate(ctx, TriggerStartup)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped by context")
			s.markStopped()
			return
		case <-s.stopCh:
			s.logger.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.evaluate(ctx, TriggerTick)
		case <-s.changes:
			if !s.waitForChangeSlot(ctx) {
				continue
			}
			s.evaluate(ctx, TriggerChange)
		}
	}
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Notify signals that patients, medications or meals changed.
// It never blocks; bursts collapse into a single evaluation.
func (s *Scheduler) Notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// RunNow forces an immediate evaluation and returns the resulting board.
func (s *Scheduler) RunNow(ctx context.Context) (Board, bool) {
	s.logger.Info("manual reminder evaluation triggered")
	s.evaluate(ctx, TriggerManual)
	return s.Latest()
}

// Latest returns the most recently published board.
func (s *Scheduler) Latest() (Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

func (s *Scheduler) waitForChangeSlot(ctx context.Context) bool {
	res := s.limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return true
	}
	s.metrics.IncRateLimitWaits()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		res.Cancel()
		return false
	case <-s.stopCh:
		res.Cancel()
		return false
	}
}

// evaluate loads a snapshot, generates reminders and publishes the board.
// A failed load keeps the previous board.
func (s *Scheduler) evaluate(ctx context.Context, trigger Trigger) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.config.EvaluationTimeout)
	defer cancel()

	snap, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Error("failed to load ward records, keeping previous board",
			"trigger", string(trigger),
			"error", err)
		s.metrics.IncEvaluation(trigger, "error")
		return
	}

	now := s.clock().In(s.location)
	board := NewBoard(now, trigger, Generate(snap, now))

	s.mu.Lock()
	s.latest = board
	s.hasLatest = true
	s.mu.Unlock()

	s.metrics.IncEvaluation(trigger, "ok")
	s.metrics.ObserveEvaluation(time.Since(start).Seconds())
	s.metrics.SetBoard(board)

	s.logger.Debug("reminders evaluated",
		"trigger", string(trigger),
		"total", len(board.Reminders),
		"overdue", board.OverdueCount)

	for i, sink := range s.sinks {
		if err := sink.Publish(ctx, board); err != nil {
			s.logger.Error("failed to publish reminder board",
				"sink", i,
				"error", err)
		}
	}
}
