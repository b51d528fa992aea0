package cache

import (
	"context"
	"sync"
	"time"

	"sigquiz/internal/model"
)

// In-memory implementations used when REDIS_ADDR is not configured and
// by tests. Same semantics as the Redis versions, including TTLs.

type memorySessionCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memorySessionEntry
}

type memorySessionEntry struct {
	session   *model.QuizSession
	expiresAt time.Time
}

// NewMemorySessionCache creates a process-local session cache.
func NewMemorySessionCache(ttl time.Duration) SessionCache {
	return &memorySessionCache{
		ttl:      ttl,
		sessions: make(map[string]memorySessionEntry),
	}
}

func (c *memorySessionCache) Set(ctx context.Context, session *model.QuizSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = memorySessionEntry{
		session:   session,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *memorySessionCache) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	c.mu.RLock()
	entry, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.session, nil
}

func (c *memorySessionCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

type memoryEligibilityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEligibilityEntry
}

type memoryEligibilityEntry struct {
	ts        *time.Time
	expiresAt time.Time
}

// NewMemoryEligibilityCache creates a process-local eligibility cache.
func NewMemoryEligibilityCache(ttl time.Duration) EligibilityCache {
	return &memoryEligibilityCache{
		ttl:     ttl,
		entries: make(map[string]memoryEligibilityEntry),
	}
}

func (c *memoryEligibilityCache) GetLatest(ctx context.Context, studentID string) (*time.Time, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[studentID]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.ts, true, nil
}

func (c *memoryEligibilityCache) SetLatest(ctx context.Context, studentID string, ts *time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[studentID] = memoryEligibilityEntry{
		ts:        ts,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *memoryEligibilityCache) Invalidate(ctx context.Context, studentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, studentID)
	return nil
}
