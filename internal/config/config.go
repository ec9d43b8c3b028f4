package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/irfndi/coincorr-go/internal/utils"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	CoinGecko   CoinGeckoConfig `mapstructure:"coingecko"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Output      OutputConfig    `mapstructure:"output"`
}

type CoinGeckoConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Timeout      int    `mapstructure:"timeout"`
	RequestDelay string `mapstructure:"request_delay"`
}

type CacheConfig struct {
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AnalysisConfig struct {
	Coins       []string `mapstructure:"coins"`
	TopLimit    int      `mapstructure:"top_limit"`
	VsCurrency  string   `mapstructure:"vs_currency"`
	Days        int      `mapstructure:"days"`
	MinCoverage float64  `mapstructure:"min_coverage"`
	Refresh     bool     `mapstructure:"refresh"`
}

type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Precision int    `mapstructure:"precision"`
}

// MaxDays is the largest day range the free CoinGecko API serves with
// daily granularity.
const MaxDays = 364

func Load() (*Config, error) {
	return load("")
}

// LoadFile loads the configuration from an explicit file instead of the
// default search locations. The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configFile string) (*Config, error) {
	// Clear any file selection left behind by an earlier load.
	viper.Reset()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("coingecko.api_key", "COINGECKO_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind COINGECKO_API_KEY environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the loaded configuration for values the pipeline cannot
// run with.
func (c *Config) Validate() error {
	if c.Analysis.Days < 1 || c.Analysis.Days > MaxDays {
		return utils.NewValidationErrorf("analysis.days must be between 1 and %d, got %d", MaxDays, c.Analysis.Days)
	}
	if c.Analysis.TopLimit < 0 {
		return utils.NewValidationErrorf("analysis.top_limit must not be negative, got %d", c.Analysis.TopLimit)
	}
	if strings.TrimSpace(c.Analysis.VsCurrency) == "" {
		return utils.NewValidationError("analysis.vs_currency must not be empty")
	}
	if c.Analysis.MinCoverage < 0 || c.Analysis.MinCoverage > 1 {
		return utils.NewValidationErrorf("analysis.min_coverage must be between 0 and 1, got %v", c.Analysis.MinCoverage)
	}
	switch c.Cache.Backend {
	case "filesystem", "redis", "memory":
	default:
		return utils.NewValidationErrorf("cache.backend must be one of filesystem, redis or memory, got %q", c.Cache.Backend)
	}
	if c.CoinGecko.RequestDelay != "" {
		if _, err := time.ParseDuration(c.CoinGecko.RequestDelay); err != nil {
			return fmt.Errorf("invalid coingecko.request_delay duration: %w", err)
		}
	}
	return nil
}

// RequestDelayDuration returns the parsed politeness delay applied between
// consecutive upstream fetches.
func (c *CoinGeckoConfig) RequestDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestDelay)
	if err != nil {
		return time.Second
	}
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// CoinGecko
	viper.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("coingecko.api_key", "")
	viper.SetDefault("coingecko.timeout", 30)
	viper.SetDefault("coingecko.request_delay", "1s")

	// Cache
	viper.SetDefault("cache.backend", "filesystem")
	viper.SetDefault("cache.dir", "datasets")
	viper.SetDefault("cache.redis.host", "localhost")
	viper.SetDefault("cache.redis.port", 6379)
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)

	// Analysis
	viper.SetDefault("analysis.coins", []string{"bitcoin"})
	viper.SetDefault("analysis.top_limit", 0)
	viper.SetDefault("analysis.vs_currency", "usd")
	viper.SetDefault("analysis.days", MaxDays)
	viper.SetDefault("analysis.min_coverage", 0.5)
	viper.SetDefault("analysis.refresh", false)

	// Output
	viper.SetDefault("output.dir", "tables")
	viper.SetDefault("output.precision", 2)
}
