// Package config loads and validates linkdepth configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Frontier FrontierConfig `mapstructure:"frontier"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CrawlConfig governs the crawl run itself.
type CrawlConfig struct {
	LinkStrategy         string        `mapstructure:"link_strategy"`
	MaxRequestsPerDomain int           `mapstructure:"max_requests_per_domain"`
	Timeout              time.Duration `mapstructure:"timeout"`
	FoundPath            string        `mapstructure:"found_path"`
}

// FrontierConfig controls queue persistence and decision logging.
type FrontierConfig struct {
	OverflowPath    string `mapstructure:"overflow_path"`
	DecisionLogPath string `mapstructure:"decision_log_path"`
	RotationPolicy  string `mapstructure:"rotation_policy"`
}

// HTTPConfig configures the probe fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ServerConfig controls the optional status API.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKDEPTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.link_strategy", string(frontier.StrategyPaginationFirst))
	v.SetDefault("crawl.max_requests_per_domain", 0)
	v.SetDefault("crawl.timeout", "0s")
	v.SetDefault("crawl.found_path", "")
	v.SetDefault("frontier.rotation_policy", string(frontier.RotationRoundRobin))
	v.SetDefault("http.user_agent", "linkdepth/1.0 (+https://github.com/linkdepth/linkdepth)")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch frontier.LinkStrategy(c.Crawl.LinkStrategy) {
	case frontier.StrategyPaginationFirst, frontier.StrategyBreadthFirst:
	default:
		return fmt.Errorf("crawl.link_strategy must be %q or %q",
			frontier.StrategyPaginationFirst, frontier.StrategyBreadthFirst)
	}
	if c.Crawl.MaxRequestsPerDomain < 0 {
		return fmt.Errorf("crawl.max_requests_per_domain must be >= 0")
	}
	if c.Crawl.Timeout < 0 {
		return fmt.Errorf("crawl.timeout must be >= 0")
	}
	if frontier.RotationPolicy(c.Frontier.RotationPolicy) != frontier.RotationRoundRobin {
		return fmt.Errorf("frontier.rotation_policy: only %q is supported", frontier.RotationRoundRobin)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the status server is enabled")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
