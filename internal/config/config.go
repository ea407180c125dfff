package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	BackendBaseURL    string
	DefaultBusinessID int64
	TokenSecret       string
	FlowLog           bool
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8082"),
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://qr:qr@localhost:5432/qr_billing?sslmode=disable"),
		BackendBaseURL:    getEnv("BACKEND_BASE_URL", "http://localhost:8081"),
		DefaultBusinessID: getEnvInt64("DEFAULT_BUSINESS_ID", 1),
		TokenSecret:       getEnv("TOKEN_SECRET", "dev-secret-change-in-production"),
		FlowLog:           getEnv("FLOW_LOG", "") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
