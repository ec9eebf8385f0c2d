package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	WAHA struct {
		BaseURL string `yaml:"base_url"`
		Session string `yaml:"session"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"waha"`
	TradingView struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"tradingview"`
	Quote struct {
		Interval    string `yaml:"interval"`
		Bars        int    `yaml:"bars"`
		IndexSymbol string `yaml:"index_symbol"`
		Exchange    string `yaml:"exchange"`
	} `yaml:"quote"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds"`
	RateLimitSeconds   int `yaml:"rate_limit_seconds"`
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`
	Port               int `yaml:"port"`
	Database           struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from an optional YAML file, then applies environment
// variable overrides (a .env file is honored), then fills defaults.
func Load(path string) (*Config, error) {
	// Missing .env is fine, plain env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WAHA_BASE_URL"); v != "" {
		cfg.WAHA.BaseURL = v
	}
	if v := os.Getenv("WAHA_SESSION"); v != "" {
		cfg.WAHA.Session = v
	}
	if v := os.Getenv("WAHA_API_KEY"); v != "" {
		cfg.WAHA.APIKey = v
	}
	if v := os.Getenv("TRADINGVIEW_USERNAME"); v != "" {
		cfg.TradingView.Username = v
	}
	if v := os.Getenv("TRADINGVIEW_PASSWORD"); v != "" {
		cfg.TradingView.Password = v
	}
	if v := os.Getenv("TV_INTERVAL"); v != "" {
		cfg.Quote.Interval = v
	}
	if v := os.Getenv("TV_BARS"); v != "" {
		cfg.Quote.Bars = envInt(v, cfg.Quote.Bars)
	}
	if v := os.Getenv("IHSG_SYMBOL"); v != "" {
		cfg.Quote.IndexSymbol = v
	}
	if v := os.Getenv("EXCHANGE"); v != "" {
		cfg.Quote.Exchange = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		cfg.CacheTTLSeconds = envInt(v, cfg.CacheTTLSeconds)
	}
	if v := os.Getenv("RATE_LIMIT_SECONDS"); v != "" {
		cfg.RateLimitSeconds = envInt(v, cfg.RateLimitSeconds)
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeoutSeconds = envInt(v, cfg.HTTPTimeoutSeconds)
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = envInt(v, cfg.Port)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.WAHA.BaseURL == "" {
		cfg.WAHA.BaseURL = "http://localhost:3000"
	}
	cfg.WAHA.BaseURL = strings.TrimRight(cfg.WAHA.BaseURL, "/")
	if cfg.WAHA.Session == "" {
		cfg.WAHA.Session = "default"
	}
	if cfg.Quote.Interval == "" {
		cfg.Quote.Interval = "1d"
	}
	if cfg.Quote.Bars == 0 {
		cfg.Quote.Bars = 2
	}
	if cfg.Quote.IndexSymbol == "" {
		cfg.Quote.IndexSymbol = "COMPOSITE"
	}
	cfg.Quote.IndexSymbol = strings.ToUpper(cfg.Quote.IndexSymbol)
	if cfg.Quote.Exchange == "" {
		cfg.Quote.Exchange = "IDX"
	}
	cfg.Quote.Exchange = strings.ToUpper(cfg.Quote.Exchange)
	if cfg.CacheTTLSeconds == 0 {
		cfg.CacheTTLSeconds = 15
	}
	if cfg.RateLimitSeconds == 0 {
		cfg.RateLimitSeconds = 5
	}
	if cfg.HTTPTimeoutSeconds == 0 {
		cfg.HTTPTimeoutSeconds = 15
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Quote.Bars < 1 {
		return fmt.Errorf("quote.bars must be at least 1")
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds cannot be negative")
	}
	if c.RateLimitSeconds < 1 {
		return fmt.Errorf("rate_limit_seconds must be at least 1")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535")
	}
	switch c.Quote.Interval {
	case "1m", "5m", "15m", "1h", "1d":
	default:
		return fmt.Errorf("quote.interval %q not supported (1m, 5m, 15m, 1h, 1d)", c.Quote.Interval)
	}
	return nil
}

// Debug reports whether verbose logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func envInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
