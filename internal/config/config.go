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

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Backends
	GeminiAPIKey         string
	GeminiConcurrentReqs int
	OllamaHost           string
	OllamaCloudHost      string
	OllamaCloudAPIKey    string

	// Assistant
	HistoryLimit    int
	UseSystemPrompt bool
	StreamKeepalive time.Duration

	// Storage
	StoragePath string
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		OllamaHost:           strings.TrimRight(getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"), "/"),
		OllamaCloudHost:      strings.TrimRight(getEnvOrDefault("OLLAMA_CLOUD_HOST", "https://ollama.com"), "/"),
		OllamaCloudAPIKey:    os.Getenv("OLLAMA_CLOUD_API_KEY"),
		HistoryLimit:         getEnvAsIntOrDefault("HISTORY_LIMIT", 10),
		UseSystemPrompt:      getEnvAsBoolOrDefault("ASSISTANT_SYSTEM_PROMPT", true),
		StreamKeepalive:      time.Duration(getEnvAsIntOrDefault("STREAM_KEEPALIVE_SECONDS", 15)) * time.Second,
		StoragePath:          getEnvOrDefault("STORAGE_PATH", "./uploads"),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 3),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.GeminiConcurrentReqs <= 0 {
		cfg.GeminiConcurrentReqs = 5
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
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

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
