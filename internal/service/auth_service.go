package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sigquiz/internal/model"
)

// AuthService issues and validates attempt tokens: short-lived JWTs
// binding a student id to the quiz session drawn for them.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
}

// NewAuthService creates an auth service. ttl bounds how long after
// session start a submission is accepted.
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
	}
}

// GenerateAttemptToken creates a quiz-scoped token for a student.
func (s *AuthService) GenerateAttemptToken(studentID, quizID string) (string, error) {
	claims := &model.AttemptClaims{
		StudentID: studentID,
		QuizID:    quizID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateAttemptToken validates an attempt token and returns its claims.
func (s *AuthService) ValidateAttemptToken(tokenString string) (*model.AttemptClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.AttemptClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.AttemptClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
