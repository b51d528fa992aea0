package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sigquiz/config"
	"sigquiz/internal/cache"
	internalconfig "sigquiz/internal/config"
	"sigquiz/internal/repository"
	"sigquiz/internal/service"
	"sigquiz/internal/transport/rest"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	aiConfig := internalconfig.DefaultAIConfig()
	log.Printf("Question source:")
	log.Printf("  Model:   %s", aiConfig.Model)
	log.Printf("  Topic:   %s", aiConfig.Topic)
	if aiConfig.IsEnabled() {
		log.Println("  API Key: configured")
	} else {
		log.Println("  API Key: NOT SET (serving from the question bank)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database("sigquiz")

	// Caches: Redis when configured, in-process otherwise
	var (
		sessionCache cache.SessionCache
		eligCache    cache.EligibilityCache
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")
		sessionCache = cache.NewSessionCache(rdb, cfg.SessionTTL())
		eligCache = cache.NewEligibilityCache(rdb, cfg.EligibilityTTL)
	} else {
		log.Println("REDIS_ADDR not set, using in-memory caches")
		sessionCache = cache.NewMemorySessionCache(cfg.SessionTTL())
		eligCache = cache.NewMemoryEligibilityCache(cfg.EligibilityTTL)
	}

	// Repositories
	questionRepo := repository.NewQuestionRepo(db)
	attemptRepo := repository.NewAttemptRepo(db)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL())
	generatorSvc := service.NewGeneratorService(aiConfig, questionRepo)
	quizSvc := service.NewQuizService(generatorSvc, sessionCache, authSvc, cfg.QuestionCount)
	gradingSvc := service.NewGradingService()
	attemptSvc := service.NewAttemptService(attemptRepo, eligCache, cfg.CooldownWindow)

	router := rest.NewRouter(&rest.Container{
		QuizService:       quizSvc,
		GradingService:    gradingSvc,
		AttemptService:    attemptSvc,
		AuthService:       authSvc,
		QuizKey:           cfg.QuizKey,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		PerQuestionTime:   cfg.PerQuestionTime,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET      /health")
		log.Println("  GET      /v1/attempts/{roll}/eligibility")
		log.Println("  GET      /v1/attempts/{roll}")
		log.Println("  GET/POST /v1/quiz")
		log.Println("  POST     /v1/quiz/submit")
		log.Println("  WS       /v1/quiz/live")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
