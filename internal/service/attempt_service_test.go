package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigquiz/internal/model"
)

// fakeAttemptRepo is an in-memory attempt ledger with error injection.
type fakeAttemptRepo struct {
	mu        sync.Mutex
	records   []*model.AttemptRecord
	details   int
	appendErr error
	latestErr error
}

func (f *fakeAttemptRepo) Append(ctx context.Context, record *model.AttemptRecord, details []model.GradedDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, record)
	f.details += len(details)
	return nil
}

func (f *fakeAttemptRepo) LatestByStudent(ctx context.Context, studentID string) (*model.AttemptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	var latest *model.AttemptRecord
	for _, r := range f.records {
		if r.StudentID != studentID {
			continue
		}
		if latest == nil || r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeAttemptRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.AttemptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	var out []*model.AttemptRecord
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeEligibilityCache tracks writes and invalidations and can fail reads.
type fakeEligibilityCache struct {
	mu          sync.Mutex
	entries     map[string]*time.Time
	getErr      error
	invalidated int
	sets        int
}

func newFakeEligibilityCache() *fakeEligibilityCache {
	return &fakeEligibilityCache{entries: make(map[string]*time.Time)}
}

func (f *fakeEligibilityCache) GetLatest(ctx context.Context, studentID string) (*time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	ts, ok := f.entries[studentID]
	return ts, ok, nil
}

func (f *fakeEligibilityCache) SetLatest(ctx context.Context, studentID string, ts *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[studentID] = ts
	f.sets++
	return nil
}

func (f *fakeEligibilityCache) Invalidate(ctx context.Context, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, studentID)
	f.invalidated++
	return nil
}

func attemptAt(studentID string, ts time.Time) *model.AttemptRecord {
	return &model.AttemptRecord{
		StudentID:   studentID,
		StudentName: "Alice",
		Timestamp:   ts,
		Score:       "3/5",
	}
}

func TestCheckEligibility_NoPriorAttempt(t *testing.T) {
	svc := NewAttemptService(&fakeAttemptRepo{}, newFakeEligibilityCache(), 10*time.Hour)

	elig, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
}

func TestCheckEligibility_WindowBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{attemptAt("22CS001", t0)}}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	// One second before the window closes.
	elig, err := svc.CheckEligibility(context.Background(), "22CS001", t0.Add(10*time.Hour-time.Second))
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Equal(t, time.Second, elig.RetryAfter)

	// Exactly at the boundary the student is eligible again.
	elig, err = svc.CheckEligibility(context.Background(), "22CS001", t0.Add(10*time.Hour))
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
}

func TestCheckEligibility_RetryAfterShrinks(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{attemptAt("22CS001", t0)}}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	elig, err := svc.CheckEligibility(context.Background(), "22CS001", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, elig.RetryAfter)

	elig, err = svc.CheckEligibility(context.Background(), "22CS001", t0.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, elig.RetryAfter)
}

func TestCheckEligibility_ServedFromCache(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{attemptAt("22CS001", t0)}}
	eligCache := newFakeEligibilityCache()
	svc := NewAttemptService(repo, eligCache, 10*time.Hour)

	_, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, eligCache.sets)

	// The ledger goes down; the cached timestamp still answers.
	repo.latestErr = errors.New("ledger down")
	elig, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
}

func TestCheckEligibility_LedgerErrorSurfaces(t *testing.T) {
	repo := &fakeAttemptRepo{latestErr: errors.New("ledger down")}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	elig, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	assert.Nil(t, elig)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCheckEligibility_CacheErrorFallsThrough(t *testing.T) {
	repo := &fakeAttemptRepo{}
	eligCache := newFakeEligibilityCache()
	eligCache.getErr = errors.New("cache down")
	svc := NewAttemptService(repo, eligCache, 10*time.Hour)

	elig, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
}

func TestRecordAttempt_AppendsAndInvalidates(t *testing.T) {
	repo := &fakeAttemptRepo{}
	eligCache := newFakeEligibilityCache()
	svc := NewAttemptService(repo, eligCache, 10*time.Hour)

	details := []model.GradedDetail{
		{Question: "Q1?", Chosen: "a", Correct: "a", Verdict: model.VerdictCorrect},
		{Question: "Q2?", Chosen: "b", Correct: "c", Verdict: model.VerdictWrong},
	}
	err := svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Now()), details)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 2, repo.details)
	assert.Equal(t, 1, eligCache.invalidated)

	// The next check observes the new attempt.
	elig, err := svc.CheckEligibility(context.Background(), "22CS001", time.Now())
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
}

func TestRecordAttempt_BlockedInsideWindow(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{attemptAt("22CS001", t0)}}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	err := svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Now()), nil)

	var cErr *CooldownError
	require.ErrorAs(t, err, &cErr)
	assert.InDelta(t, (9 * time.Hour).Seconds(), cErr.RetryAfter.Seconds(), 5)
	assert.Equal(t, 1, repo.count())
}

func TestRecordAttempt_IgnoresStaleCache(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{attemptAt("22CS001", t0)}}
	eligCache := newFakeEligibilityCache()
	// Stale cache claims the student never attempted.
	eligCache.entries["22CS001"] = nil
	svc := NewAttemptService(repo, eligCache, 10*time.Hour)

	err := svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Now()), nil)

	var cErr *CooldownError
	assert.ErrorAs(t, err, &cErr)
	assert.Equal(t, 1, repo.count())
}

func TestRecordAttempt_ConcurrentSubmissionsAppendOnce(t *testing.T) {
	repo := &fakeAttemptRepo{}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Time{}), nil)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, blocked int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var cErr *CooldownError
		require.ErrorAs(t, err, &cErr)
		blocked++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, blocked)
	assert.Equal(t, 1, repo.count())
}

func TestRecordAttempt_PersistFailure(t *testing.T) {
	repo := &fakeAttemptRepo{appendErr: errors.New("disk full")}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	err := svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Now()), nil)
	assert.ErrorIs(t, err, ErrPersist)
}

func TestRecordAttempt_LedgerCheckFailureBlocks(t *testing.T) {
	repo := &fakeAttemptRepo{latestErr: errors.New("ledger down")}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	err := svc.RecordAttempt(context.Background(), attemptAt("22CS001", time.Now()), nil)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 0, repo.count())
}

func TestHistory(t *testing.T) {
	t0 := time.Now().Add(-20 * time.Hour)
	repo := &fakeAttemptRepo{records: []*model.AttemptRecord{
		attemptAt("22CS001", t0),
		attemptAt("22CS001", t0.Add(11*time.Hour)),
		attemptAt("22CS002", t0),
	}}
	svc := NewAttemptService(repo, newFakeEligibilityCache(), 10*time.Hour)

	records, err := svc.History(context.Background(), "22CS001")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
