package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	AIProvider       string
	AIBaseURL        string
	AIAPIKey         string
	AIModel          string
	AITemperature    float64
	AITimeoutSeconds int

	DatabaseURL        string
	DatabaseServiceKey string

	HTTPPort string
	LogLevel string
	LogMode  string
}

// Load reads the .env file if present and then the process environment.
// A missing AI credential is not an error here: the workflows report it
// per request so the service can still serve stored programs.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AIProvider:       strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenAI)),
		AIBaseURL:        strings.TrimRight(getEnv("AI_BASE_URL", "https://api.openai.com/v1"), "/"),
		AIAPIKey:         getEnv("AI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "google/gemini-2.5-flash"),
		AITemperature:    getEnvAsFloat("AI_TEMPERATURE", 0.7),
		AITimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 0),

		DatabaseURL:        getEnv("DATABASE_URL", "programs.db"),
		DatabaseServiceKey: getEnv("DATABASE_SERVICE_KEY", ""),

		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogMode:  getEnv("LOG_MODE", "development"),
	}

	switch cfg.AIProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q (want %q or %q)", cfg.AIProvider, ProviderOpenAI, ProviderGemini)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must not be empty")
	}
	return cfg, nil
}

// UsesPostgres reports whether DatabaseURL points at a Postgres server
// rather than a local SQLite file.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
