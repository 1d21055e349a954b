// Package config provides configuration management for the recommendation service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading  TradingSettings `mapstructure:"trading" json:"trading"`
	Ranking  RankingConfig   `mapstructure:"ranking" json:"ranking"`
	Pipeline PipelineConfig  `mapstructure:"pipeline" json:"pipeline"`
	Data     DataConfig      `mapstructure:"data" json:"data"`
	Log      LogConfig       `mapstructure:"log" json:"log"`
	Store    StoreConfig     `mapstructure:"store" json:"store"`
}

// RankingConfig holds the default ranking knobs for a run.
type RankingConfig struct {
	MinScore       int `mapstructure:"min_score" json:"min_score" default:"40" validate:"gte=0,lte=100"`
	TopPerStrategy int `mapstructure:"top_per_strategy" json:"top_per_strategy" default:"3" validate:"gte=1"`
	MaxPerSymbol   int `mapstructure:"max_per_symbol" json:"max_per_symbol" default:"2" validate:"gte=1"`
}

// PipelineConfig holds run orchestration settings.
type PipelineConfig struct {
	WorkspaceID    string   `mapstructure:"workspace_id" json:"workspace_id" default:"default" validate:"required"`
	RiskProfile    string   `mapstructure:"risk_profile" json:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Benchmark      string   `mapstructure:"benchmark" json:"benchmark" default:"SPY" validate:"required"`
	Universe       []string `mapstructure:"universe" json:"universe" default:"[\"AAPL\",\"MSFT\",\"AMZN\",\"GOOGL\",\"META\",\"NVDA\",\"JPM\",\"XOM\",\"UNH\",\"HD\",\"PG\",\"KO\"]"`
	SectorProxies  []string `mapstructure:"sector_proxies" json:"sector_proxies" default:"[\"XLK\",\"XLF\",\"XLE\",\"XLV\",\"XLY\",\"XLP\",\"XLI\",\"XLU\",\"XLB\",\"XLRE\",\"XLC\"]"`
	DefaultSymbols []string `mapstructure:"default_symbols" json:"default_symbols" default:"[\"AAPL\",\"MSFT\",\"AMD\",\"KO\",\"XOM\",\"JPM\"]"`
	BatchSize      int      `mapstructure:"batch_size" json:"batch_size" default:"5" validate:"gte=1"`
}

// DataConfig holds market-data provider settings.
type DataConfig struct {
	Provider     string        `mapstructure:"provider" json:"provider" default:"simulated" validate:"oneof=simulated fixtures"`
	FixturesPath string        `mapstructure:"fixtures_path" json:"fixtures_path" validate:"required_if=Provider fixtures"`
	Seed         int64         `mapstructure:"seed" json:"seed" default:"42"`
	Redis        RedisConfig   `mapstructure:"redis" json:"redis"`
	RateLimit    RateLimit     `mapstructure:"rate_limit" json:"rate_limit"`
	Breaker      BreakerConfig `mapstructure:"breaker" json:"breaker"`
	Retry        RetryConfig   `mapstructure:"retry" json:"retry"`
}

// RedisConfig configures the optional provider cache.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled" json:"enabled"`
	Addr      string        `mapstructure:"addr" json:"addr" default:"localhost:6379"`
	Password  string        `mapstructure:"password" json:"-"`
	DB        int           `mapstructure:"db" json:"db"`
	TTL       time.Duration `mapstructure:"ttl" json:"ttl" default:"5m"`
	Namespace string        `mapstructure:"namespace" json:"namespace" default:"optincome"`
}

// RateLimit configures outbound provider call pacing.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps" json:"rps" default:"20" validate:"gt=0"`
	Burst int     `mapstructure:"burst" json:"burst" default:"10" validate:"gte=1"`
}

// BreakerConfig configures the provider circuit breakers.
type BreakerConfig struct {
	MaxConsecutiveFailures uint32        `mapstructure:"max_consecutive_failures" json:"max_consecutive_failures" default:"5" validate:"gte=1"`
	OpenTimeout            time.Duration `mapstructure:"open_timeout" json:"open_timeout" default:"30s"`
	Interval               time.Duration `mapstructure:"interval" json:"interval" default:"60s"`
}

// RetryConfig configures provider call retries.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" json:"max_attempts" default:"3" validate:"gte=1"`
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay" default:"100ms"`
	MaxDelay     time.Duration `mapstructure:"max_delay" json:"max_delay" default:"2s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level" json:"level" default:"info" validate:"oneof=debug info warn error"`
	Console    bool   `mapstructure:"console" json:"console" default:"true"`
	File       bool   `mapstructure:"file" json:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size" default:"100"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" default:"7"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age" default:"30"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path            string `mapstructure:"path" json:"path"`
	MetricsTextfile string `mapstructure:"metrics_textfile" json:"metrics_textfile"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-income"
	}
	return filepath.Join(home, ".config", "options-income")
}

// Default returns a configuration populated with defaults only.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	cfg.fillPaths(DefaultConfigDir())
	return cfg, nil
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	cfg.fillPaths(configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("OPTINCOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template and keep defaults
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func (c *Config) fillPaths(configDir string) {
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(configDir, "options-income.db")
	}
	if c.Log.FilePath == "" {
		c.Log.FilePath = filepath.Join(configDir, "logs", "optincome.log")
	}
}
