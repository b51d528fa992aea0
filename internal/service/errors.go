package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientPool means the question pool holds fewer
	// questions than a quiz needs. Fatal for the request, not retried.
	ErrInsufficientPool = errors.New("not enough questions in the pool")

	// ErrUpstream covers an unreachable or malformed question source
	// or ledger store. Never interpreted as "no cooldown".
	ErrUpstream = errors.New("upstream service unavailable")

	// ErrSessionNotFound means the quiz id references no live session:
	// expired, already graded, or never issued.
	ErrSessionNotFound = errors.New("quiz session not found or expired")

	// ErrInvalidToken means the attempt token is missing, malformed,
	// expired, or bound to a different student or quiz.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// CooldownError is the rejected-state response when a student is still
// inside the cooldown window. Not a failure; carries the remaining wait.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %s", e.RetryAfter.Round(time.Second))
}

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
