package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Search modes for locating the parent post of a thread.
const (
	SearchModeOwnHistory = "own-history"
	SearchModeSurface    = "surface"
)

// Credentials holds the Twitter API credential set.
type Credentials struct {
	BearerToken       string
	AccessToken       string
	AccessTokenSecret string
	APIKey            string
	APIKeySecret      string
}

// Config holds all application configuration.
type Config struct {
	// EnvFile is the dotenv file that was consulted (may not exist).
	EnvFile string

	Credentials Credentials

	// Publishing behaviour
	SearchMode      string // "own-history" (default) or "surface"
	WithImages      bool
	HeaderDelay     time.Duration // Wait after the header post before resolving it
	ChainDelay      time.Duration // Wait between chained image replies
	DayStartHour    int           // UTC hour that starts the posting day
	WaitOnRateLimit bool
	SiteHost        string // Host used in permalinks

	// Journal
	DatabasePath string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// The dotenv file named by ENV_FILE (default .env) is loaded first when it
// exists; a missing file only produces a warning.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		slog.Warn("env file not found, using process environment only",
			"path", envFile,
			"hint", "create it with the keys and tokens needed to connect to the Twitter API",
		)
	}

	cfg := &Config{
		EnvFile: envFile,
		Credentials: Credentials{
			BearerToken:       getEnv("BEARER_TOKEN", ""),
			AccessToken:       getEnv("ACCESS_TOKEN", ""),
			AccessTokenSecret: getEnv("ACCESS_TOKEN_SECRET", ""),
			APIKey:            getEnv("API_KEY", ""),
			APIKeySecret:      getEnv("API_KEY_SECRET", ""),
		},
		SearchMode:   getEnv("SEARCH_MODE", SearchModeOwnHistory),
		SiteHost:     getEnv("SITE_HOST", "twitter.com"),
		DatabasePath: getEnv("DATABASE_PATH", "data/easypost.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}

	// Parse durations
	var err error
	cfg.HeaderDelay, err = time.ParseDuration(getEnv("HEADER_DELAY", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEADER_DELAY: %w", err)
	}

	cfg.ChainDelay, err = time.ParseDuration(getEnv("CHAIN_DELAY", "25s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_DELAY: %w", err)
	}

	// Parse integers
	cfg.DayStartHour, err = strconv.Atoi(getEnv("DAY_START_HOUR", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_START_HOUR: %w", err)
	}

	// Parse booleans
	cfg.WithImages, err = strconv.ParseBool(getEnv("WITH_IMAGES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITH_IMAGES: %w", err)
	}

	cfg.WaitOnRateLimit, err = strconv.ParseBool(getEnv("WAIT_ON_RATE_LIMIT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WAIT_ON_RATE_LIMIT: %w", err)
	}

	return cfg, nil
}

// Validate checks that the non-credential settings are usable.
func (c *Config) Validate() error {
	switch c.SearchMode {
	case SearchModeOwnHistory, SearchModeSurface:
	default:
		return fmt.Errorf("invalid SEARCH_MODE: %s (must be '%s' or '%s')", c.SearchMode, SearchModeOwnHistory, SearchModeSurface)
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		return fmt.Errorf("invalid DAY_START_HOUR: %d (must be between 0 and 23)", c.DayStartHour)
	}
	if c.HeaderDelay < 0 {
		return fmt.Errorf("HEADER_DELAY must not be negative")
	}
	if c.ChainDelay < 0 {
		return fmt.Errorf("CHAIN_DELAY must not be negative")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForPosting checks the credentials needed to create posts.
func (c *Config) ValidateForPosting() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Credentials.APIKey == "" {
		return fmt.Errorf("API_KEY is required for posting")
	}
	if c.Credentials.APIKeySecret == "" {
		return fmt.Errorf("API_KEY_SECRET is required for posting")
	}
	if c.Credentials.AccessToken == "" {
		return fmt.Errorf("ACCESS_TOKEN is required for posting")
	}
	if c.Credentials.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required for posting")
	}
	return nil
}

// ValidateForImages checks configuration needed for image publishing.
func (c *Config) ValidateForImages() error {
	if err := c.ValidateForPosting(); err != nil {
		return err
	}
	if !c.WithImages {
		return fmt.Errorf("WITH_IMAGES must be true to publish images")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
