package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	MongoURL  string
	MongoDB   string
	RedisURL  string
	JWTSecret string
	TokenTTL  time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env if present; in deployed environments the variables come
	// from the process environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      GetEnv("PORT", "8081"),
		MongoURL:  GetEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:   GetEnv("MONGO_DB", "neurobridge"),
		RedisURL:  GetEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret: GetEnv("JWT_SECRET", ""),
		Env:       GetEnv("ENV", "development"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
	}

	ttl, err := time.ParseDuration(GetEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
