package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"sjsage522/housewatch/pkg/errors"
)

// State backends
const (
	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

// Config represents the application configuration
type Config struct {
	// Seen-set state
	StateFile     string
	StateBackend  string
	RedisStateKey string

	// Fetcher configuration
	UserAgent       string
	AcceptLanguage  string
	FetchTimeout    time.Duration
	FetchRetries    int
	FetchBackoff    time.Duration
	FetchRatePerSec float64
	SourceCooldown  time.Duration
	SourcesFile     string
	Sources         []Source
	CrawlInterval   time.Duration
	MemcacheAddr    string

	// Telegram configuration
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIBase string
	NotifyTimeout   time.Duration

	// Email configuration
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	EmailTo   string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Environment
	Environment string
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0 Safari/537.36 HouseWatch/1.0"

// LoadConfig loads the configuration from environment variables with defaults.
// Sources come from SOURCES_FILE when set, the built-in list otherwise.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		StateFile:            getEnv("HOUSE_WATCH_STATE", "seen_listings.json"),
		StateBackend:         getEnv("STATE_BACKEND", StateBackendFile),
		RedisStateKey:        getEnv("REDIS_STATE_KEY", "housewatch:state"),
		UserAgent:            getEnv("HOUSE_WATCH_UA", defaultUserAgent),
		AcceptLanguage:       getEnv("ACCEPT_LANGUAGE", "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7"),
		FetchTimeout:         getEnvSeconds("FETCH_TIMEOUT_SECONDS", 25),
		FetchRetries:         getEnvInt("FETCH_RETRIES", 2),
		FetchBackoff:         getEnvSeconds("FETCH_BACKOFF_SECONDS", 1.5),
		FetchRatePerSec:      getEnvFloat("FETCH_RATE_PER_SEC", 0),
		SourceCooldown:       getEnvSeconds("SOURCE_COOLDOWN_SECONDS", 600),
		SourcesFile:          getEnv("SOURCES_FILE", ""),
		CrawlInterval:        getEnvSeconds("CRAWL_INTERVAL_SECONDS", 0),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIBase:      getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		NotifyTimeout:        getEnvSeconds("NOTIFY_TIMEOUT_SECONDS", 20),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPass:             getEnv("SMTP_PASS", ""),
		EmailFrom:            getEnv("EMAIL_FROM", ""),
		EmailTo:              getEnv("EMAIL_TO", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		Environment:          getEnv("HOUSE_WATCH_ENVIRONMENT", "development"),
	}

	if cfg.SourcesFile != "" {
		sources, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	} else {
		cfg.Sources = DefaultSources()
	}

	return cfg, nil
}

// Validate checks the configuration for values the watcher cannot run with
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.NewConfiguration("no sources configured", nil)
	}
	names := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return err
		}
		if names[c.Sources[i].Name] {
			return errors.NewConfiguration(fmt.Sprintf("duplicate source name %q", c.Sources[i].Name), nil)
		}
		names[c.Sources[i].Name] = true
	}

	switch c.StateBackend {
	case StateBackendFile:
		if c.StateFile == "" {
			return errors.NewConfiguration("HOUSE_WATCH_STATE must not be empty", nil)
		}
	case StateBackendRedis:
		if c.RedisAddr == "" {
			return errors.NewConfiguration("STATE_BACKEND=redis requires REDIS_ADDR", nil)
		}
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown STATE_BACKEND %q", c.StateBackend), nil)
	}

	if c.FetchRetries < 0 {
		return errors.NewConfiguration("FETCH_RETRIES must be >= 0", nil)
	}
	if c.FetchTimeout <= 0 || c.NotifyTimeout <= 0 {
		return errors.NewConfiguration("timeouts must be positive", nil)
	}
	if c.FetchRatePerSec < 0 {
		return errors.NewConfiguration("FETCH_RATE_PER_SEC must be >= 0", nil)
	}
	if c.CrawlInterval < 0 {
		return errors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be >= 0", nil)
	}
	return nil
}

// TelegramEnabled reports whether both Telegram credentials are present
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// EmailEnabled reports whether email notifications are configured
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.EmailTo != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvSeconds reads a (possibly fractional) number of seconds
func getEnvSeconds(key string, defaultSeconds float64) time.Duration {
	return time.Duration(getEnvFloat(key, defaultSeconds) * float64(time.Second))
}
