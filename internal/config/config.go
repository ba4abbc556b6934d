package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port        string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	CustomerServiceURL string
	ProductServiceURL  string
	DirectoryTimeout   time.Duration

	EnrichConcurrency int
	EnrichTimeout     time.Duration
}

// Load reads configuration from environment variables, falling back to
// development defaults.
func Load() Config {
	return Config{
		Port:        getenv("PORT", "8080"),
		Environment: getenv("ENVIRONMENT", "development"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "billing"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		CustomerServiceURL: getenv("CUSTOMER_SERVICE_URL", "http://localhost:8081"),
		ProductServiceURL:  getenv("PRODUCT_SERVICE_URL", "http://localhost:8082"),
		DirectoryTimeout:   time.Duration(getenvInt("DIRECTORY_TIMEOUT_SECONDS", 10)) * time.Second,

		EnrichConcurrency: getenvInt("ENRICH_CONCURRENCY", 4),
		EnrichTimeout:     time.Duration(getenvInt("ENRICH_TIMEOUT_SECONDS", 5)) * time.Second,
	}
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
