package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	CORSOrigin    string
	// DetectorCommand is the command line for the focus detector subprocess
	// (e.g. "python3 detector/stream_server.py"). Empty disables the
	// detector endpoints.
	DetectorCommand string
	LogLevel        string
	LogFormat       string
}

func Load() (*Config, error) {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:5173"),
		DetectorCommand: getEnv("DETECTOR_COMMAND", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 16 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
