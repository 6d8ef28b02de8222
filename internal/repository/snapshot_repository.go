package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"filing-service/internal/models"
)

const snapshotKeyPrefix = "filing:snapshot:"

// SnapshotRepository keeps the dataset fingerprint of the last preview per owner and
// filing request, so an export can tell whether it saw the same data.
type SnapshotRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnapshotRepository creates a snapshot repository
func NewSnapshotRepository(redisClient *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{redis: redisClient, ttl: ttl}
}

// SnapshotKey is "filing:snapshot:{owner}:{reportType}:{periodType}:{year}:{value}"
func SnapshotKey(ownerID uuid.UUID, req models.FilingRequest) string {
	return fmt.Sprintf("%s%s:%s:%s:%d:%d", snapshotKeyPrefix, ownerID, req.ReportType, req.PeriodType, req.Year, req.Value)
}

// Save stores the fingerprint of a preview
func (r *SnapshotRepository) Save(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest, fingerprint string) error {
	if err := r.redis.Set(ctx, SnapshotKey(ownerID, req), fingerprint, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store preview snapshot: %w", err)
	}
	return nil
}

// Get returns the stored fingerprint or "" when there is none
func (r *SnapshotRepository) Get(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (string, error) {
	val, err := r.redis.Get(ctx, SnapshotKey(ownerID, req)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preview snapshot: %w", err)
	}
	return val, nil
}

// InvalidateOwner deletes every snapshot of an owner and returns how many were removed
func (r *SnapshotRepository) InvalidateOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	pattern := fmt.Sprintf("%s%s:*", snapshotKeyPrefix, ownerID)

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan preview snapshots: %w", err)
		}
		if len(keys) > 0 {
			n, err := r.redis.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete preview snapshots: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
