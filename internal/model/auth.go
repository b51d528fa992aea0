package model

import "github.com/golang-jwt/jwt/v5"

// AttemptClaims binds an issued quiz session to a student so a
// submission can only grade the session it was created for.
type AttemptClaims struct {
	StudentID string `json:"studentId"`
	QuizID    string `json:"quizId"`
	jwt.RegisteredClaims
}
