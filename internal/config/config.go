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
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// HTTP server
	HTTPHost    string `env:"HTTP_HOST" default:"127.0.0.1"`
	HTTPPort    int    `env:"HTTP_PORT" default:"8080"`
	SecretKey   string `env:"SECRET_KEY" required:"true"`
	SessionName string `env:"SESSION_NAME" default:"favmovies_session"`

	// Database
	DatabaseType string `env:"DATABASE_TYPE" default:"sqlite"`
	DatabaseURL  string `env:"DATABASE_URL" default:"my_favorite_movies.db"`

	// External APIs
	TMDBAPIKey       string        `env:"TMDB_API_KEY" required:"true"`
	TMDBAPIURL       string        `env:"TMDB_API_URL" default:"https://api.themoviedb.org/3"`
	TMDBImageBaseURL string        `env:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
	TMDBTimeout      time.Duration `env:"TMDB_TIMEOUT" default:"10s"`
	TMDBMaxRetries   int           `env:"TMDB_MAX_RETRIES" default:"2"`
	TMDBRetryDelay   time.Duration `env:"TMDB_RETRY_DELAY" default:"500ms"`
	TMDBRateLimit    float64       `env:"TMDB_RATE_LIMIT" default:"20"`

	// Development
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env is fine, plain environment variables still apply.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env file: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// HTTP server
	if err := loadEnvString(&config.HTTPHost, "HTTP_HOST", "127.0.0.1"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SecretKey, "SECRET_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SessionName, "SESSION_NAME", "favmovies_session"); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvString(&config.DatabaseType, "DATABASE_TYPE", "sqlite"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.DatabaseURL, "DATABASE_URL", "my_favorite_movies.db"); err != nil {
		return nil, err
	}

	// External APIs
	if err := loadEnvString(&config.TMDBAPIKey, "TMDB_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.TMDBAPIURL, "TMDB_API_URL", "https://api.themoviedb.org/3"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.TMDBImageBaseURL, "TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.TMDBTimeout, "TMDB_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.TMDBMaxRetries, "TMDB_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.TMDBRetryDelay, "TMDB_RETRY_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.TMDBRateLimit, "TMDB_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.TMDBAPIKey == "" {
		errors = append(errors, "TMDB_API_KEY is required")
	}
	if c.SecretKey == "" {
		errors = append(errors, "SECRET_KEY is required")
	} else if len(c.SecretKey) < 16 {
		errors = append(errors, "SECRET_KEY should be at least 16 characters long")
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validDatabaseTypes := []string{"sqlite", "postgres"}
	if !contains(validDatabaseTypes, c.DatabaseType) {
		errors = append(errors, fmt.Sprintf("DATABASE_TYPE must be one of: %s", strings.Join(validDatabaseTypes, ", ")))
	}
	if c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL must not be empty")
	}

	if c.TMDBTimeout <= 0 {
		errors = append(errors, "TMDB_TIMEOUT must be positive")
	}
	if c.TMDBMaxRetries < 0 || c.TMDBMaxRetries > 5 {
		errors = append(errors, "TMDB_MAX_RETRIES must be between 0 and 5")
	}
	if c.TMDBRateLimit <= 0 {
		errors = append(errors, "TMDB_RATE_LIMIT must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// HTTPAddr is the listen address of the web server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
