package repository

import (
	"context"
	"sync"

	"openward/shared/reminders"
)

// MemoryBoardRepository keeps the board in process memory.
type MemoryBoardRepository struct {
	mu    sync.RWMutex
	board reminders.Board
	ok    bool
}

func NewMemoryBoardRepository() *MemoryBoardRepository {
	return &MemoryBoardRepository{}
}

func (r *MemoryBoardRepository) SaveBoard(_ context.Context, board reminders.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.board = board
	r.ok = true
	return nil
}

func (r *MemoryBoardRepository) GetBoard(_ context.Context) (reminders.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.ok {
		return reminders.Board{}, ErrNoBoard
	}
	return r.board, nil
}
