package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment       string
	ServerPort        int
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	RedisURL          string
	SessionSecret     string
	SessionTTL        time.Duration
	PageSize          int
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	ReportCacheTTL    time.Duration
	StatsIntervalMins int
	LogLevel          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}

	pageSize, err := strconv.Atoi(getEnv("PAGE_SIZE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}

	loginMaxAttempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}

	reportCacheTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL_SECONDS: %w", err)
	}

	statsInterval, err := strconv.Atoi(getEnv("STATS_INTERVAL_MINUTES", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL_MINUTES: %w", err)
	}

	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		ServerPort:        port,
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            dbPort,
		DBUser:            getEnv("DB_USER", "jobtrack"),
		DBPassword:        getEnv("DB_PASSWORD", "dev"),
		DBName:            getEnv("DB_NAME", "jobtrack"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        time.Duration(sessionTTL) * time.Minute,
		PageSize:          pageSize,
		LoginMaxAttempts:  loginMaxAttempts,
		LoginWindow:       time.Minute,
		ReportCacheTTL:    time.Duration(reportCacheTTL) * time.Second,
		StatsIntervalMins: statsInterval,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
