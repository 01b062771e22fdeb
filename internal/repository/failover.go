package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"openward/shared/reminders"

	"github.com/rs/zerolog"
)

const recheckInterval = time.Minute

// FailoverBoardRepository serves from primary and switches to fallback while
// primary is failing. Primary is retried once a minute.
type FailoverBoardRepository struct {
	primary  BoardRepository
	fallback BoardRepository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverBoardRepository(primary, fallback BoardRepository, logger *zerolog.Logger) *FailoverBoardRepository {
	return &FailoverBoardRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether primary should be tried for this call.
func (r *FailoverBoardRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) >= recheckInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverBoardRepository) markDown(err error) {
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("board repository primary failed, switching to fallback")
	}
}

func (r *FailoverBoardRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("board repository primary recovered")
	}
}

// SaveBoard always writes to fallback so it is current when primary fails.
func (r *FailoverBoardRepository) SaveBoard(ctx context.Context, board reminders.Board) error {
	fbErr := r.fallback.SaveBoard(ctx, board)

	if !r.usePrimary() {
		return fbErr
	}
	if err := r.primary.SaveBoard(ctx, board); err != nil {
		r.markDown(err)
		return fbErr
	}
	r.markUp()
	return nil
}

func (r *FailoverBoardRepository) GetBoard(ctx context.Context) (reminders.Board, error) {
	if r.usePrimary() {
		board, err := r.primary.GetBoard(ctx)
		if err == nil || errors.Is(err, ErrNoBoard) {
			r.markUp()
			if err == nil {
				return board, nil
			}
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.GetBoard(ctx)
}

// Healthy reports whether primary is currently in use.
func (r *FailoverBoardRepository) Healthy() bool {
	return !r.isDown.Load()
}
