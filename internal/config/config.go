package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	RelayURL          string
	RelayMode         string
	CoinGeckoBaseURL  string
	FearGreedBaseURL  string
	PriceIDs          []string
	PricePollSecs     int
	MarketPollSecs    int
	FearGreedPollSecs int
	NewsPollSecs      int
	NewsItemLimit     int
	NewsStripHTML     bool
	LayoutPath        string
	DisplayTZ         string
	DisplayLocation   *time.Location

	RedisURL        string
	SnapshotTTLSecs int

	AdminAPIKey      string
	TelegramBotToken string

	SSHPort           int
	SSHHostKeyPath    string
	SSHAuthorizedKeys string

	LogLevel string
	LogFile  string

	// Warnings collects every fallback taken while loading, for the caller to log
	// once a logger exists.
	Warnings []string
}

func Load() *Config {
	cfg := &Config{
		RelayURL:          strings.TrimSpace(os.Getenv("RELAY_URL")),
		CoinGeckoBaseURL:  strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL")),
		FearGreedBaseURL:  strings.TrimSpace(os.Getenv("FEAR_GREED_BASE_URL")),
		LayoutPath:        strings.TrimSpace(os.Getenv("DASHBOARD_LAYOUT")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		SSHAuthorizedKeys: strings.TrimSpace(os.Getenv("SSH_AUTHORIZED_KEYS")),
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.RelayURL == "" {
		cfg.RelayURL = "https://api.allorigins.win"
	}

	cfg.RelayMode = strings.ToLower(strings.TrimSpace(os.Getenv("RELAY_MODE")))
	if cfg.RelayMode == "" {
		cfg.RelayMode = "relay"
	}
	if cfg.RelayMode != "relay" && cfg.RelayMode != "direct" {
		cfg.warnf("unsupported RELAY_MODE=%q, defaulting to relay", cfg.RelayMode)
		cfg.RelayMode = "relay"
	}

	cfg.PriceIDs = splitList(os.Getenv("PRICE_IDS"))

	cfg.PricePollSecs = cfg.positiveInt("PRICE_POLL_SECS", 60)
	cfg.MarketPollSecs = cfg.positiveInt("MARKET_POLL_SECS", 60)
	cfg.FearGreedPollSecs = cfg.positiveInt("FEAR_GREED_POLL_SECS", 3600)
	cfg.NewsPollSecs = cfg.positiveInt("NEWS_POLL_SECS", 1800)
	cfg.NewsItemLimit = cfg.positiveInt("NEWS_ITEM_LIMIT", 5)
	cfg.SnapshotTTLSecs = cfg.positiveInt("SNAPSHOT_TTL_SECS", 7200)
	cfg.SSHPort = cfg.positiveInt("SSH_PORT", 2222)

	cfg.NewsStripHTML = strings.EqualFold(strings.TrimSpace(os.Getenv("NEWS_STRIP_HTML")), "true")

	cfg.DisplayTZ = strings.TrimSpace(os.Getenv("DISPLAY_TZ"))
	if cfg.DisplayTZ == "" {
		cfg.DisplayTZ = "UTC"
	}
	loc, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		cfg.warnf("unknown DISPLAY_TZ=%q, defaulting to UTC", cfg.DisplayTZ)
		cfg.DisplayTZ = "UTC"
		loc = time.UTC
	}
	cfg.DisplayLocation = loc

	if cfg.RedisURL == "" {
		cfg.warnf("REDIS_URL not set, snapshot mirror disabled")
	}
	if cfg.TelegramBotToken == "" {
		cfg.warnf("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.AdminAPIKey == "" {
		cfg.warnf("ADMIN_API_KEY not set, manual refresh is unauthenticated")
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/dashboard_ed25519"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// positiveInt reads key as a positive integer, falling back to def when the
// variable is unset or invalid.
func (c *Config) positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warnf("invalid %s=%q, defaulting to %d", key, v, def)
		return def
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *Config) PriceInterval() time.Duration     { return seconds(c.PricePollSecs) }
func (c *Config) MarketInterval() time.Duration    { return seconds(c.MarketPollSecs) }
func (c *Config) FearGreedInterval() time.Duration { return seconds(c.FearGreedPollSecs) }
func (c *Config) NewsInterval() time.Duration      { return seconds(c.NewsPollSecs) }
func (c *Config) SnapshotTTL() time.Duration       { return seconds(c.SnapshotTTLSecs) }
