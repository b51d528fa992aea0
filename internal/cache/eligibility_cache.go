package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EligibilityCache is the optional read-through cache over the attempt
// ledger's latest-timestamp lookup. Entries expire after a bounded
// staleness window; every successful ledger append must Invalidate so
// later checks observe the new attempt.
type EligibilityCache interface {
	// GetLatest returns the cached timestamp of the student's most
	// recent attempt. ok is false on a cache miss; a hit with a nil
	// timestamp means "no attempt on record".
	GetLatest(ctx context.Context, studentID string) (ts *time.Time, ok bool, err error)
	SetLatest(ctx context.Context, studentID string, ts *time.Time) error
	Invalidate(ctx context.Context, studentID string) error
}

type eligibilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEligibilityCache creates a Redis-backed eligibility cache. ttl is
// the staleness bound for advisory cooldown checks.
func NewEligibilityCache(client *redis.Client, ttl time.Duration) EligibilityCache {
	return &eligibilityCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *eligibilityCache) key(studentID string) string {
	return "cooldown:" + studentID
}

// Sentinel for a cached "no attempt on record" result, so first-time
// students also get cache hits.
const noAttempt = "none"

func (c *eligibilityCache) GetLatest(ctx context.Context, studentID string) (*time.Time, bool, error) {
	data, err := c.client.Get(ctx, c.key(studentID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if data == noAttempt {
		return nil, true, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		return nil, false, err
	}
	return &ts, true, nil
}

func (c *eligibilityCache) SetLatest(ctx context.Context, studentID string, ts *time.Time) error {
	val := noAttempt
	if ts != nil {
		val = ts.Format(time.RFC3339Nano)
	}
	return c.client.Set(ctx, c.key(studentID), val, c.ttl).Err()
}

func (c *eligibilityCache) Invalidate(ctx context.Context, studentID string) error {
	return c.client.Del(ctx, c.key(studentID)).Err()
}
