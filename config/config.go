package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"survivor-pool-go/logging"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Cache configuration
	Cache CacheConfig `json:"cache"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Authentication configuration
	Auth AuthConfig `json:"auth"`

	// Application configuration
	App AppConfig `json:"app"`

	// Odds ingestion configuration
	Odds OddsConfig `json:"odds"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string `json:"port"`
	Host        string `json:"host"`
	BehindProxy bool   `json:"behind_proxy"`
	Environment string `json:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout"`
}

// CacheConfig holds Redis page cache configuration
type CacheConfig struct {
	Enabled bool          `json:"enabled"`
	Addr    string        `json:"addr"`
	TTL     time.Duration `json:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Prefix      string `json:"prefix"`
	EnableColor bool   `json:"enable_color"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	CurrentSeason int    `json:"current_season"`
	IsDevelopment bool   `json:"is_development"`
	AppURL        string `json:"app_url"`
	MetricsPort   string `json:"metrics_port"`
}

// OddsConfig holds odds and fixture feed configuration
type OddsConfig struct {
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	SportKey   string `json:"sport_key"`
	Regions    string `json:"regions"`
	Bookmakers string `json:"bookmakers"`
	FixtureURL string `json:"fixture_url"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't treat missing .env as an error
		logging.Warnf("Could not load .env file: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	isDevelopment := strings.ToLower(environment) == "development"

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			BehindProxy: getBoolEnv("BEHIND_PROXY", false),
			Environment: environment,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", "survivor"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "survivor_pool"),
			Timeout:  getDurationEnv("DB_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Enabled: getBoolEnv("CACHE_ENABLED", true),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			TTL:     getDurationEnv("CACHE_TTL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "debug"),
			Prefix:      getEnv("LOG_PREFIX", "survivor-pool"),
			EnableColor: getBoolEnv("LOG_COLOR", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		App: AppConfig{
			CurrentSeason: getIntEnv("CURRENT_SEASON", 2025),
			IsDevelopment: isDevelopment,
			AppURL:        getEnv("APP_URL", "https://pl-survivor-pool.example.com"),
			MetricsPort:   getEnv("METRICS_PORT", "9100"),
		},
		Odds: OddsConfig{
			APIKey:     getEnv("ODDS_API_KEY", ""),
			BaseURL:    getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com"),
			SportKey:   getEnv("ODDS_SPORT_KEY", "soccer_epl"),
			Regions:    getEnv("ODDS_REGIONS", "uk"),
			Bookmakers: getEnv("ODDS_BOOKMAKERS", "bet365,paddypower,williamhill_uk,ladbrokes,coral,betfair"),
			FixtureURL: getEnv("FIXTURE_FEED_URL", "https://fixturedownload.com/feed/json/epl-2025"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == "your-secret-key-change-in-production" && !c.App.IsDevelopment {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.App.CurrentSeason < 2020 || c.App.CurrentSeason > 2035 {
		return fmt.Errorf("current season must be between 2020 and 2035, got: %d", c.App.CurrentSeason)
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// BookmakerList returns the configured bookmaker allow-list
func (c *Config) BookmakerList() []string {
	parts := strings.Split(c.Odds.Bookmakers, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (Behind Proxy: %t, Environment: %s)",
		c.GetServerAddress(), c.Server.BehindProxy, c.Server.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "")
	logging.Infof("Cache: Enabled=%t, Addr=%s, TTL=%s", c.Cache.Enabled, c.Cache.Addr, c.Cache.TTL)
	logging.Infof("Logging: Level=%s, Prefix=%s, Color=%t",
		c.Logging.Level, c.Logging.Prefix, c.Logging.EnableColor)
	logging.Infof("App: Season=%d, Development=%t, URL=%s",
		c.App.CurrentSeason, c.App.IsDevelopment, c.App.AppURL)
	logging.Infof("Odds: Sport=%s, Regions=%s, Bookmakers=%s, APIKey set=%t",
		c.Odds.SportKey, c.Odds.Regions, c.Odds.Bookmakers, c.Odds.APIKey != "")
	logging.Info("================================")
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
