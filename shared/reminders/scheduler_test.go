package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"openward/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource implements RecordSource for testing.
type fakeSource struct {
	mu    sync.Mutex
	snap  Snapshot
	err   error
	loads int
}

func (f *fakeSource) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return Snapshot{}, f.err
	}
	return f.snap, nil
}

func (f *fakeSource) set(snap Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
	f.err = err
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

// recordingSink collects published boards.
type recordingSink struct {
	mu     sync.Mutex
	boards []Board
}

func (r *recordingSink) Publish(ctx context.Context, board Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards = append(r.boards, board)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

func (r *recordingSink) last() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boards[len(r.boards)-1]
}

func wardSnapshot() Snapshot {
	return Snapshot{
		Patients:    []models.Patient{activePatient(1, "Ramesh Patel", "A1")},
		Medications: []models.Medication{medication(1, 1, "Q6H", ptr(at(6, 0)))},
	}
}

func newTestScheduler(t *testing.T, source RecordSource, cfg SchedulerConfig, sinks ...Sink) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg, source, nil, sinks...)
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return at(13, 0) })
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{Timezone: "Mars/Olympus"}, &fakeSource{}, nil)
	assert.Error(t, err)
}

func TestNewScheduler_Defaults(t *testing.T) {
	s, err := NewScheduler(SchedulerConfig{Timezone: "Asia/Kolkata"}, &fakeSource{}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.config.CheckInterval)
	assert.Equal(t, "Asia/Kolkata", s.Location().String())
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunNowPublishes(t *testing.T) {
	source := &fakeSource{snap: wardSnapshot()}
	sink := &recordingSink{}
	s := newTestScheduler(t, source, SchedulerConfig{Timezone: "UTC"}, sink)

	board, ok := s.RunNow(context.Background())

	require.True(t, ok)
	assert.Equal(t, TriggerManual, board.Trigger)
	assert.Equal(t, at(13, 0), board.EvaluatedAt)
	// One overdue medication plus one lunch reminder.
	require.Len(t, board.Reminders, 2)
	assert.Equal(t, "med-1", board.Reminders[0].ID)
	assert.Equal(t, 1, board.OverdueCount)
	assert.Equal(t, 1, sink.count())
}

func TestScheduler_EvaluatesInConfiguredLocation(t *testing.T) {
	source := &fakeSource{snap: Snapshot{Patients: []models.Patient{activePatient(1, "Anjali Gupta", "D1")}}}
	s, err := NewScheduler(SchedulerConfig{Timezone: "Asia/Kolkata"}, source, nil)
	require.NoError(t, err)
	// 07:00 UTC is 12:30 in Kolkata, inside the lunch window.
	s.WithClock(func() time.Time { return time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC) })

	board, ok := s.RunNow(context.Background())

	require.True(t, ok)
	require.Len(t, board.Reminders, 1)
	assert.Equal(t, "meal-1-lunch", board.Reminders[0].ID)
	assert.Equal(t, "Asia/Kolkata", board.EvaluatedAt.Location().String())
}

func TestScheduler_SourceErrorKeepsPreviousBoard(t *testing.T) {
	source := &fakeSource{snap: wardSnapshot()}
	sink := &recordingSink{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics("test", reg)
	s := newTestScheduler(t, source, SchedulerConfig{Timezone: "UTC"}, sink).WithMetrics(metrics)

	first, ok := s.RunNow(context.Background())
	require.True(t, ok)

	source.set(Snapshot{}, errors.New("disk I/O error"))
	second, ok := s.RunNow(context.Background())

	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, sink.count(), "failed evaluation must not publish")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("manual", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("manual", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RemindersCurrent.WithLabelValues("medication", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RemindersCurrent.WithLabelValues("meal", "false")))
}

func TestScheduler_NoBoardBeforeFirstSuccess(t *testing.T) {
	source := &fakeSource{err: errors.New("unavailable")}
	s := newTestScheduler(t, source, SchedulerConfig{Timezone: "UTC"})

	_, ok := s.RunNow(context.Background())
	assert.False(t, ok)
}

func TestScheduler_SinkErrorDoesNotBlockOthers(t *testing.T) {
	source := &fakeSource{snap: wardSnapshot()}
	failing := SinkFunc(func(ctx context.Context, board Board) error {
		return errors.New("redis down")
	})
	sink := &recordingSink{}
	s := newTestScheduler(t, source, SchedulerConfig{Timezone: "UTC"}, failing, sink)

	_, ok := s.RunNow(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, sink.count())
}

func TestScheduler_StartTicksAndNotifies(t *testing.T) {
	source := &fakeSource{snap: wardSnapshot()}
	sink := &recordingSink{}
	cfg := SchedulerConfig{
		Timezone:      "UTC",
		CheckInterval: 20 * time.Millisecond,
		ChangeRate:    1000,
		ChangeBurst:   10,
	}
	s := newTestScheduler(t, source, cfg, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, TriggerStartup, func() Board {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.boards[0]
	}().Trigger)

	// Data changes are picked up without waiting for the next tick.
	source.set(Snapshot{}, nil)
	s.Notify()
	require.Eventually(t, func() bool {
		return sink.count() >= 2 && len(sink.last().Reminders) == 0
	}, time.Second, 5*time.Millisecond)

	// Ticks keep re-evaluating with unchanged data.
	n := source.loadCount()
	require.Eventually(t, func() bool { return source.loadCount() > n+1 }, time.Second, 5*time.Millisecond)

	assert.True(t, s.IsRunning())
	cancel()
	<-done
	assert.False(t, s.IsRunning())
}

func TestScheduler_Stop(t *testing.T) {
	source := &fakeSource{snap: wardSnapshot()}
	s := newTestScheduler(t, source, SchedulerConfig{Timezone: "UTC", CheckInterval: time.Hour})

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, s.IsRunning, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.False(t, s.IsRunning())
}

func TestScheduler_NotifyNeverBlocks(t *testing.T) {
	s := newTestScheduler(t, &fakeSource{}, SchedulerConfig{Timezone: "UTC"})

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Notify()
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked without a running scheduler")
	}
}
