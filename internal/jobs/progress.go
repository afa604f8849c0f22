package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/redis/go-redis/v9"
)

const progressKeyPrefix = "job:progress:"

// ProgressStore keeps the live snapshot of a running job in Redis. Snapshots
// are ephemeral; the terminal summary lives in the dispatch_jobs row.
type ProgressStore struct {
	rds *redis.Client
	ttl time.Duration
}

func NewProgressStore(rds *redis.Client, ttl time.Duration) *ProgressStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ProgressStore{rds: rds, ttl: ttl}
}

func (s *ProgressStore) WriteSnapshot(ctx context.Context, jobID string, p model.Progress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return s.rds.Set(ctx, progressKeyPrefix+jobID, b, s.ttl).Err()
}

// ReadSnapshot returns nil without error when no snapshot exists.
func (s *ProgressStore) ReadSnapshot(ctx context.Context, jobID string) (*model.Progress, error) {
	raw, err := s.rds.Get(ctx, progressKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	return &p, nil
}
