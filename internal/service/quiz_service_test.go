package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigquiz/internal/cache"
)

func newQuizService(bankSize, count int) *QuizService {
	repo := &fakeQuestionRepo{questions: bankQuestions(bankSize)}
	generator := NewGeneratorService(aiConfig("http://unused", ""), repo)
	sessionCache := cache.NewMemorySessionCache(time.Hour)
	authSvc := NewAuthService("test-secret", time.Hour)
	return NewQuizService(generator, sessionCache, authSvc, count)
}

func TestSelectQuiz_DrawsDistinct(t *testing.T) {
	pool := bankQuestions(20)

	selected, err := SelectQuiz(pool, 5)
	require.NoError(t, err)
	require.Len(t, selected, 5)

	seen := make(map[int]bool)
	for _, q := range selected {
		assert.False(t, seen[q.ID], "question %d drawn twice", q.ID)
		seen[q.ID] = true
		assert.GreaterOrEqual(t, q.ID, 1)
		assert.LessOrEqual(t, q.ID, 20)
	}
}

func TestSelectQuiz_DoesNotReorderPool(t *testing.T) {
	pool := bankQuestions(10)

	_, err := SelectQuiz(pool, 5)
	require.NoError(t, err)

	for i, q := range pool {
		assert.Equal(t, i+1, q.ID)
	}
}

func TestSelectQuiz_InsufficientPool(t *testing.T) {
	pool := bankQuestions(3)

	selected, err := SelectQuiz(pool, 5)
	assert.Nil(t, selected)
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

func TestSelectQuiz_ExactPoolSize(t *testing.T) {
	pool := bankQuestions(5)

	selected, err := SelectQuiz(pool, 5)
	require.NoError(t, err)
	assert.Len(t, selected, 5)
}

func TestSelectQuiz_EveryQuestionReachable(t *testing.T) {
	pool := bankQuestions(6)

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		selected, err := SelectQuiz(pool, 3)
		require.NoError(t, err)
		for _, q := range selected {
			seen[q.ID] = true
		}
	}
	assert.Len(t, seen, 6, "over many draws every pool question should appear")
}

func TestCreateSession_StripsAnswerKeys(t *testing.T) {
	svc := newQuizService(8, 5)

	resp, err := svc.CreateSession(context.Background(), "Alice", "22CS001")
	require.NoError(t, err)
	require.Len(t, resp.Questions, 5)
	require.NotEmpty(t, resp.QuizID)
	require.NotEmpty(t, resp.Token)

	// The wire form must not leak the answer key.
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct")
}

func TestCreateSession_SessionKeepsAnswerKeys(t *testing.T) {
	svc := newQuizService(8, 5)

	resp, err := svc.CreateSession(context.Background(), "Alice", "22CS001")
	require.NoError(t, err)

	session, err := svc.GetSession(context.Background(), resp.QuizID)
	require.NoError(t, err)
	assert.Equal(t, "22CS001", session.StudentID)
	assert.Equal(t, "Alice", session.StudentName)
	require.Len(t, session.Questions, 5)
	for _, q := range session.Questions {
		assert.Equal(t, 1, q.Correct)
	}
}

func TestCreateSession_TokenBoundToQuiz(t *testing.T) {
	authSvc := NewAuthService("test-secret", time.Hour)
	repo := &fakeQuestionRepo{questions: bankQuestions(8)}
	generator := NewGeneratorService(aiConfig("http://unused", ""), repo)
	svc := NewQuizService(generator, cache.NewMemorySessionCache(time.Hour), authSvc, 5)

	resp, err := svc.CreateSession(context.Background(), "Alice", "22CS001")
	require.NoError(t, err)

	claims, err := authSvc.ValidateAttemptToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "22CS001", claims.StudentID)
	assert.Equal(t, resp.QuizID, claims.QuizID)
}

func TestCreateSession_InsufficientBank(t *testing.T) {
	svc := newQuizService(2, 5)

	resp, err := svc.CreateSession(context.Background(), "Alice", "22CS001")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

func TestGetSession_NotFound(t *testing.T) {
	svc := newQuizService(8, 5)

	session, err := svc.GetSession(context.Background(), "no-such-quiz")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseSession_SingleUse(t *testing.T) {
	svc := newQuizService(8, 5)

	resp, err := svc.CreateSession(context.Background(), "Alice", "22CS001")
	require.NoError(t, err)

	svc.CloseSession(context.Background(), resp.QuizID)

	_, err = svc.GetSession(context.Background(), resp.QuizID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateAttemptToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-a", time.Hour)
	verifier := NewAuthService("secret-b", time.Hour)

	token, err := issuer.GenerateAttemptToken("22CS001", "quiz-1")
	require.NoError(t, err)

	claims, err := verifier.ValidateAttemptToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAttemptToken_Expired(t *testing.T) {
	authSvc := NewAuthService("test-secret", -time.Minute)

	token, err := authSvc.GenerateAttemptToken("22CS001", "quiz-1")
	require.NoError(t, err)

	_, err = authSvc.ValidateAttemptToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAttemptToken_Garbage(t *testing.T) {
	authSvc := NewAuthService("test-secret", time.Hour)

	_, err := authSvc.ValidateAttemptToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
