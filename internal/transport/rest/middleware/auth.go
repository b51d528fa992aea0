package middleware

import (
	"context"
	"net/http"
	"strings"

	"sigquiz/internal/service"
)

type contextKey string

const (
	StudentIDKey contextKey = "studentId"
	QuizIDKey    contextKey = "quizId"
)

// AuthMiddleware gates quiz endpoints behind the shared secret and
// validates attempt tokens on submission.
type AuthMiddleware struct {
	quizKey string
	authSvc *service.AuthService
}

// NewAuthMiddleware creates the middleware. An empty quizKey disables
// the shared-secret gate.
func NewAuthMiddleware(quizKey string, authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{quizKey: quizKey, authSvc: authSvc}
}

// RequireQuizKey checks the X-Quiz-Key header against the shared
// secret. Failures are opaque: no hint whether the key was absent or
// wrong.
func (m *AuthMiddleware) RequireQuizKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.quizKey != "" && r.Header.Get("X-Quiz-Key") != m.quizKey {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAttemptToken validates the bearer attempt token and stores its
// claims on the request context.
func (m *AuthMiddleware) RequireAttemptToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateAttemptToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, StudentIDKey, claims.StudentID)
		ctx = context.WithValue(ctx, QuizIDKey, claims.QuizID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetStudentID extracts the token's student id from context.
func GetStudentID(ctx context.Context) string {
	if v := ctx.Value(StudentIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetQuizID extracts the token's quiz id from context.
func GetQuizID(ctx context.Context) string {
	if v := ctx.Value(QuizIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
