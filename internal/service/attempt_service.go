package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sigquiz/internal/cache"
	"sigquiz/internal/model"
	"sigquiz/internal/repository"
)

// ErrPersist marks a ledger append failure after grading succeeded.
// Callers still report the score; the audit record is what was lost.
var ErrPersist = errors.New("failed to persist attempt record")

// AttemptService is the cooldown gate and the ledger writer. Advisory
// eligibility checks may be served from a bounded-staleness cache;
// RecordAttempt re-checks the gate against the ledger itself under a
// per-student lock, so two concurrent submissions for one student
// cannot both append.
type AttemptService struct {
	attemptRepo repository.AttemptRepo
	eligCache   cache.EligibilityCache
	window      time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAttemptService creates the gate with the given cooldown window.
func NewAttemptService(attemptRepo repository.AttemptRepo, eligCache cache.EligibilityCache, window time.Duration) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		eligCache:   eligCache,
		window:      window,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Window returns the configured cooldown window.
func (s *AttemptService) Window() time.Duration {
	return s.window
}

func (s *AttemptService) studentLock(studentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[studentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[studentID] = l
	}
	return l
}

// CheckEligibility decides whether studentID may attempt at instant
// now. No attempt on record allows; otherwise the student is blocked
// until the window has fully elapsed. Served read-through from the
// eligibility cache; a ledger failure surfaces as an upstream error,
// never as "no cooldown".
func (s *AttemptService) CheckEligibility(ctx context.Context, studentID string, now time.Time) (*model.Eligibility, error) {
	ts, ok, err := s.eligCache.GetLatest(ctx, studentID)
	if err != nil {
		// Degraded cache falls through to the ledger.
		log.Printf("eligibility cache read failed for %s: %v", studentID, err)
		ok = false
	}
	if !ok {
		ts, err = s.latestTimestamp(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if cerr := s.eligCache.SetLatest(ctx, studentID, ts); cerr != nil {
			log.Printf("eligibility cache write failed for %s: %v", studentID, cerr)
		}
	}
	return s.eligibilityAt(ts, now), nil
}

func (s *AttemptService) latestTimestamp(ctx context.Context, studentID string) (*time.Time, error) {
	latest, err := s.attemptRepo.LatestByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: attempt ledger: %v", ErrUpstream, err)
	}
	if latest == nil {
		return nil, nil
	}
	return &latest.Timestamp, nil
}

func (s *AttemptService) eligibilityAt(ts *time.Time, now time.Time) *model.Eligibility {
	if ts == nil {
		return &model.Eligibility{Allowed: true}
	}
	elapsed := now.Sub(*ts)
	if elapsed >= s.window {
		return &model.Eligibility{Allowed: true}
	}
	return &model.Eligibility{
		Allowed:    false,
		RetryAfter: s.window - elapsed,
	}
}

// RecordAttempt appends one attempt plus its graded details, after an
// authoritative cooldown re-check that bypasses the cache. Returns
// *CooldownError when the gate closed between session start and
// submission, and ErrPersist when the append itself failed. The cache
// entry for the student is invalidated on every successful append.
func (s *AttemptService) RecordAttempt(ctx context.Context, record *model.AttemptRecord, details []model.GradedDetail) error {
	l := s.studentLock(record.StudentID)
	l.Lock()
	defer l.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	ts, err := s.latestTimestamp(ctx, record.StudentID)
	if err != nil {
		return err
	}
	if elig := s.eligibilityAt(ts, record.Timestamp); !elig.Allowed {
		return &CooldownError{RetryAfter: elig.RetryAfter}
	}

	if err := s.attemptRepo.Append(ctx, record, details); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// Subsequent eligibility checks must observe this attempt.
	if err := s.eligCache.Invalidate(ctx, record.StudentID); err != nil {
		log.Printf("eligibility cache invalidation failed for %s: %v", record.StudentID, err)
	}
	return nil
}

// History lists a student's attempts, newest first.
func (s *AttemptService) History(ctx context.Context, studentID string) ([]*model.AttemptRecord, error) {
	records, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: attempt ledger: %v", ErrUpstream, err)
	}
	return records, nil
}
