package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"openward/shared/reminders"

	"github.com/redis/go-redis/v9"
)

// BoardKey is the Redis key holding the latest board.
const BoardKey = "openward:reminders:board"

// RedisBoardRepository shares the latest board with other processes through Redis.
type RedisBoardRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBoardRepository stores boards under BoardKey with ttl. A ttl of zero
// keeps the key forever.
func NewRedisBoardRepository(client *redis.Client, ttl time.Duration) *RedisBoardRepository {
	return &RedisBoardRepository{client: client, ttl: ttl}
}

func (r *RedisBoardRepository) SaveBoard(ctx context.Context, board reminders.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	if err := r.client.Set(ctx, BoardKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set board: %w", err)
	}
	return nil
}

func (r *RedisBoardRepository) GetBoard(ctx context.Context) (reminders.Board, error) {
	val, err := r.client.Get(ctx, BoardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return reminders.Board{}, ErrNoBoard
		}
		return reminders.Board{}, fmt.Errorf("redis get board: %w", err)
	}

	var board reminders.Board
	if err := json.Unmarshal(val, &board); err != nil {
		return reminders.Board{}, fmt.Errorf("decode board: %w", err)
	}
	return board, nil
}

// Ping checks the Redis connection.
func (r *RedisBoardRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
