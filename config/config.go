package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	MongoURI  string
	RedisAddr string // empty means in-memory caches
	HTTPPort  string

	QuizKey   string // shared secret for quiz endpoints; empty disables the gate
	JWTSecret string

	QuestionCount     int
	PerQuestionTime   time.Duration
	CooldownWindow    time.Duration
	EligibilityTTL    time.Duration // staleness bound for the cooldown cache
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		HTTPPort:  getEnv("HTTP_PORT", "8080"),

		QuizKey:   os.Getenv("QUIZ_API_KEY"),
		JWTSecret: getEnv("JWT_SECRET", "quiz-secret-change-in-production"),

		QuestionCount:     getEnvInt("QUESTION_COUNT", 5),
		PerQuestionTime:   getEnvDuration("PER_QUESTION_TIME", 30*time.Second),
		CooldownWindow:    getEnvDuration("COOLDOWN_WINDOW", 10*time.Hour),
		EligibilityTTL:    getEnvDuration("ELIGIBILITY_CACHE_TTL", 5*time.Minute),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// SessionTTL is how long a drawn quiz stays claimable: the full quiz
// duration plus slack for network round trips.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.QuestionCount)*c.PerQuestionTime + 5*time.Minute
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
