package config

import "os"

// AIConfig holds the Gemini question-generator configuration.
type AIConfig struct {
	APIKey    string `json:"-"` // Never serialize
	BaseURL   string `json:"baseUrl"`
	Model     string `json:"model"`
	Topic     string `json:"topic"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultAIConfig returns the default Gemini configuration.
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Topic:   getEnvOrDefault("QUIZ_TOPIC", "finance"),
		// Generation is the slowest upstream hop.
		TimeoutMS: 20000,
	}
}

// IsEnabled returns true if the Gemini API is configured.
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full generateContent endpoint for the model.
func (c *AIConfig) ModelEndpoint() string {
	return c.BaseURL + "/" + c.Model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
