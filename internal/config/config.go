package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage: Postgres wins over SQLite; neither means in-memory.
	DatabaseURL string
	SQLitePath  string

	// Redis (optional: answer cache + live updates)
	RedisURL string

	// LLM
	LLMProvider           string
	GeminiAPIKey          string
	GeminiModel           string
	OpenAIAPIKey          string
	OpenAIModel           string
	LLMConcurrentRequests int
	PromptFile            string
	HistoryWindow         int
	AnswerCacheTTL        time.Duration

	// Chat
	SupportedLanguages []string
	AskRateLimit       int

	// Frontend
	FrontendURL string

	// Logging
	LogLevel string
	LogFile  string
}

// ClientConfig is everything the terminal client needs; it is passed explicitly
// to the HTTP client instead of being read from the environment deep inside it.
type ClientConfig struct {
	BackendURL string
	Timeout    time.Duration
	Language   string
	Title      string
	LogFile    string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8000"),
		Env:                   getEnvOrDefault("ENV", "development"),
		DatabaseURL:           getEnvOrDefault("DATABASE_URL", ""),
		SQLitePath:            getEnvOrDefault("SQLITE_PATH", ""),
		RedisURL:              getEnvOrDefault("REDIS_URL", ""),
		LLMProvider:           strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:          getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:          getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		LLMConcurrentRequests: getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		PromptFile:            getEnvOrDefault("PROMPT_FILE", ""),
		HistoryWindow:         getEnvAsIntOrDefault("HISTORY_WINDOW", 20),
		AnswerCacheTTL:        getEnvAsDurationOrDefault("ANSWER_CACHE_TTL", 24*time.Hour),
		SupportedLanguages:    getEnvListOrDefault("SUPPORTED_LANGUAGES", []string{"en", "hi", "ta"}),
		AskRateLimit:          getEnvAsIntOrDefault("ASK_RATE_LIMIT", 30),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "*"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:               getEnvOrDefault("LOG_FILE", ""),
	}

	return cfg
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=%s", ProviderGemini)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if len(c.SupportedLanguages) == 0 {
		return fmt.Errorf("SUPPORTED_LANGUAGES must list at least one language")
	}
	return nil
}

func LoadClient() *ClientConfig {
	godotenv.Load()

	return &ClientConfig{
		BackendURL: strings.TrimRight(getEnvOrDefault("AGRICHAT_BACKEND_URL", "http://localhost:8000"), "/"),
		Timeout:    getEnvAsDurationOrDefault("AGRICHAT_TIMEOUT", 60*time.Second),
		Language:   getEnvOrDefault("AGRICHAT_LANGUAGE", "hi"),
		Title:      getEnvOrDefault("AGRICHAT_TITLE", "My Farm Chat"),
		LogFile:    getEnvOrDefault("AGRICHAT_LOG_FILE", ""),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if s := strings.ToLower(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
