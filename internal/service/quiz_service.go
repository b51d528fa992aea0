package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sigquiz/internal/cache"
	"sigquiz/internal/model"
)

// QuizService draws quiz sessions: a uniformly shuffled subset of the
// pool, held server-side with its answer keys until grading.
type QuizService struct {
	generator    *GeneratorService
	sessionCache cache.SessionCache
	authSvc      *AuthService
	count        int
}

// CreateQuizResponse is what a student receives at session start: the
// questions without answer keys and a token binding them to the quiz.
type CreateQuizResponse struct {
	QuizID    string                 `json:"quizId"`
	Token     string                 `json:"token"`
	Questions []model.PublicQuestion `json:"questions"`
}

// NewQuizService creates a quiz service drawing count questions per quiz.
func NewQuizService(generator *GeneratorService, sessionCache cache.SessionCache, authSvc *AuthService, count int) *QuizService {
	return &QuizService{
		generator:    generator,
		sessionCache: sessionCache,
		authSvc:      authSvc,
		count:        count,
	}
}

// SelectQuiz draws k distinct questions from pool, every permutation
// equally likely. Pure over the pool snapshot; the input slice is not
// reordered.
func SelectQuiz(pool []*model.Question, k int) ([]model.Question, error) {
	if len(pool) < k {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPool, len(pool), k)
	}

	shuffled := make([]*model.Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	selected := make([]model.Question, k)
	for i := 0; i < k; i++ {
		selected[i] = *shuffled[i]
	}
	return selected, nil
}

// CreateSession sources a pool, draws the quiz, stores the session and
// returns the stripped questions plus an attempt token.
func (s *QuizService) CreateSession(ctx context.Context, studentName, studentID string) (*CreateQuizResponse, error) {
	pool, err := s.generator.Pool(ctx, s.count)
	if err != nil {
		return nil, err
	}

	selected, err := SelectQuiz(pool, s.count)
	if err != nil {
		return nil, err
	}

	session := &model.QuizSession{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		StudentName: studentName,
		Questions:   selected,
		StartedAt:   time.Now(),
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: session store: %v", ErrUpstream, err)
	}

	token, err := s.authSvc.GenerateAttemptToken(studentID, session.ID)
	if err != nil {
		return nil, err
	}

	return &CreateQuizResponse{
		QuizID:    session.ID,
		Token:     token,
		Questions: session.PublicQuestions(),
	}, nil
}

// GetSession loads a live session by id.
func (s *QuizService) GetSession(ctx context.Context, quizID string) (*model.QuizSession, error) {
	session, err := s.sessionCache.Get(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("%w: session store: %v", ErrUpstream, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession discards a session after grading so it cannot be
// submitted twice.
func (s *QuizService) CloseSession(ctx context.Context, quizID string) {
	if err := s.sessionCache.Delete(ctx, quizID); err != nil {
		log.Printf("failed to drop quiz session %s: %v", quizID, err)
	}
}
