package rest

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"sigquiz/internal/service"
	"sigquiz/internal/transport/rest/handler"
	"sigquiz/internal/transport/rest/middleware"
	"sigquiz/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	QuizService    *service.QuizService
	GradingService *service.GradingService
	AttemptService *service.AttemptService
	AuthService    *service.AuthService

	QuizKey           string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	PerQuestionTime   time.Duration
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(c.QuizService, c.GradingService, c.AttemptService)
	attemptHandler := handler.NewAttemptHandler(c.AttemptService)
	wsHandler := ws.NewHandler(c.QuizService, c.GradingService, c.AttemptService, c.PerQuestionTime)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.QuizKey, c.AuthService)
	limiter := middleware.NewRateLimiter(c.RateLimitRequests, c.RateLimitWindow)

	// CORS and rate limiting apply first
	r.Use(corsMiddleware)
	r.Use(limiter.Middleware)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"hi"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/attempts/{roll}/eligibility", attemptHandler.Eligibility).Methods("GET", "OPTIONS")

	// Quiz routes (require the shared quiz key)
	quizRoutes := v1.NewRoute().Subrouter()
	quizRoutes.Use(authMW.RequireQuizKey)

	quizRoutes.HandleFunc("/quiz", quizHandler.Generate).Methods("GET", "POST", "OPTIONS")
	quizRoutes.HandleFunc("/quiz/live", wsHandler.Live).Methods("GET")
	quizRoutes.HandleFunc("/attempts/{roll}", attemptHandler.History).Methods("GET", "OPTIONS")

	// Submission additionally requires the attempt token
	submitRoutes := quizRoutes.NewRoute().Subrouter()
	submitRoutes.Use(authMW.RequireAttemptToken)
	submitRoutes.HandleFunc("/quiz/submit", quizHandler.Submit).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, X-Quiz-Key"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
