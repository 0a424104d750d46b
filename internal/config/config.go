package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Market    MarketConfig
	Security  SecurityConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds the browser origins allowed to call the API.
// Credentials stay off unless a frontend sends cookies; the API keys travel
// in headers.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool
}

// MarketConfig holds the market data sources and their cache settings.
type MarketConfig struct {
	ECBBaseURL     string
	YahooBaseURL   string
	RequestTimeout time.Duration
	// PriceCacheTTL is how long a symbol price table stays in memory.
	PriceCacheTTL time.Duration
	// FetchConcurrency bounds parallel upstream requests.
	FetchConcurrency int
}

// SecurityConfig holds secrets. ReportKey is a base64 Fernet key; reports
// cannot be saved when it is empty.
type SecurityConfig struct {
	APIKey    string
	ReportKey string
}

// SchedulerConfig holds the background rate refresh settings.
type SchedulerConfig struct {
	Enabled bool
	// RateRefreshSpec is a cron expression.
	RateRefreshSpec string
	// RateRefreshDays is how many days back each refresh fetches.
	RateRefreshDays int
}

// RateLimitConfig holds the API request rate limit.
type RateLimitConfig struct {
	Interval time.Duration
	Burst    int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/equity_tax.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsDuration("CORS_MAX_AGE", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Market: MarketConfig{
			ECBBaseURL:       getEnv("ECB_BASE_URL", "https://data-api.ecb.europa.eu"),
			YahooBaseURL:     getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestTimeout:   getEnvAsDuration("MARKET_REQUEST_TIMEOUT", 15*time.Second),
			PriceCacheTTL:    getEnvAsDuration("PRICE_CACHE_TTL", 24*time.Hour),
			FetchConcurrency: getEnvAsInt("MARKET_FETCH_CONCURRENCY", 4),
		},
		Security: SecurityConfig{
			APIKey:    getEnv("INTERNAL_API_KEY", ""),
			ReportKey: getEnv("REPORT_ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getEnvAsBool("SCHEDULER_ENABLED", true),
			RateRefreshSpec: getEnv("RATE_REFRESH_CRON", "30 17 * * 1-5"),
			RateRefreshDays: getEnvAsInt("RATE_REFRESH_DAYS", 7),
		},
		RateLimit: RateLimitConfig{
			Interval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 100*time.Millisecond),
			Burst:    getEnvAsInt("RATE_LIMIT_BURST", 30),
		},
	}

	if config.Market.FetchConcurrency < 1 {
		return nil, fmt.Errorf("MARKET_FETCH_CONCURRENCY must be at least 1, got %d", config.Market.FetchConcurrency)
	}
	if config.Scheduler.RateRefreshDays < 1 {
		return nil, fmt.Errorf("RATE_REFRESH_DAYS must be at least 1, got %d", config.Scheduler.RateRefreshDays)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
