package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

// SnapshotRepository keeps the best timetable of the latest run in Redis.
type SnapshotRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSnapshotRepository constructs a snapshot repository. A nil client turns it into a no-op store.
func NewSnapshotRepository(client *redis.Client, logger *zap.Logger) *SnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRepository{client: client, logger: logger}
}

// SaveBest stores the snapshot under key with the given TTL.
func (r *SnapshotRepository) SaveBest(ctx context.Context, key string, snapshot *dto.SolutionSnapshot, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.logger.Sugar().Debugw("best solution snapshot stored", "key", key, "slots", len(snapshot.Slots))
	return nil
}

// GetBest loads the snapshot stored under key.
func (r *SnapshotRepository) GetBest(ctx context.Context, key string) (*dto.SolutionSnapshot, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var snapshot dto.SolutionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot for %s: %w", key, err)
	}
	return &snapshot, nil
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
