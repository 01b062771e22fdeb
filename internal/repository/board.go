package repository

import (
	"context"
	"errors"

	"openward/shared/reminders"
)

// ErrNoBoard is returned before any board has been saved.
var ErrNoBoard = errors.New("no reminder board published yet")

// BoardRepository stores the latest published reminder board.
type BoardRepository interface {
	SaveBoard(ctx context.Context, board reminders.Board) error
	GetBoard(ctx context.Context) (reminders.Board, error)
}

// Sink publishes every evaluated board into repo.
func Sink(repo BoardRepository) reminders.Sink {
	return reminders.SinkFunc(func(ctx context.Context, board reminders.Board) error {
		return repo.SaveBoard(ctx, board)
	})
}
