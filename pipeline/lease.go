package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leasePrefix = "giggle:lease:"
	pendingKey  = "giggle:pending"

	// DefaultLeaseTTL bounds how long a crashed run can block its topic.
	DefaultLeaseTTL = 30 * time.Minute
)

// Lease enforces at-most-once processing per topic. A run takes the lease
// before touching a topic; a second run against the same page ID fails to
// acquire until the first releases or the TTL expires.
type Lease struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLease creates a lease guard backed by Redis.
func NewLease(rdb *redis.Client, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &Lease{rdb: rdb, ttl: ttl}
}

// Acquire takes the lease for pageID. It returns false when another run
// holds it.
func (l *Lease) Acquire(ctx context.Context, pageID, owner string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leasePrefix+pageID, owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease for %s: %w", pageID, err)
	}
	return ok, nil
}

// Release drops the lease for pageID.
func (l *Lease) Release(ctx context.Context, pageID string) error {
	if err := l.rdb.Del(ctx, leasePrefix+pageID).Err(); err != nil {
		return fmt.Errorf("release lease for %s: %w", pageID, err)
	}
	return nil
}

// MarkPending records that a render request was dispatched for pageID, so
// the results consumer can match a reply even after an orchestrator restart.
func (l *Lease) MarkPending(ctx context.Context, pageID, renderUUID string) error {
	if err := l.rdb.HSet(ctx, pendingKey, pageID, renderUUID).Err(); err != nil {
		return fmt.Errorf("mark pending dispatch for %s: %w", pageID, err)
	}
	return nil
}

// PendingUUID returns the render UUID dispatched for pageID, or empty when
// nothing is pending.
func (l *Lease) PendingUUID(ctx context.Context, pageID string) (string, error) {
	uuid, err := l.rdb.HGet(ctx, pendingKey, pageID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup pending dispatch for %s: %w", pageID, err)
	}
	return uuid, nil
}

// ClearPending removes the pending dispatch record for pageID.
func (l *Lease) ClearPending(ctx context.Context, pageID string) error {
	if err := l.rdb.HDel(ctx, pendingKey, pageID).Err(); err != nil {
		return fmt.Errorf("clear pending dispatch for %s: %w", pageID, err)
	}
	return nil
}
