// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Storage drivers understood by the container.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	} `mapstructure:"csv" yaml:"csv"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`

	Storage struct {
		Driver      string `mapstructure:"driver" yaml:"driver"`
		SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
		PostgresDSN string `mapstructure:"postgres_dsn" yaml:"-"`
	} `mapstructure:"storage" yaml:"storage"`

	Reconcile struct {
		DelinquencyThreshold float64 `mapstructure:"delinquency_threshold" yaml:"delinquency_threshold"`
		GraceDay             int     `mapstructure:"grace_day" yaml:"grace_day"`
		CleanStartLeadDays   int     `mapstructure:"clean_start_lead_days" yaml:"clean_start_lead_days"`
		MemoLookbackMonths   int     `mapstructure:"memo_lookback_months" yaml:"memo_lookback_months"`
		RecentDeposits       int     `mapstructure:"recent_deposits" yaml:"recent_deposits"`
		HistoryMonths        int     `mapstructure:"history_months" yaml:"history_months"`
		FuzzyMaxDistance     int     `mapstructure:"fuzzy_max_distance" yaml:"fuzzy_max_distance"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Templates struct {
		Owner        string `mapstructure:"owner" yaml:"owner"`
		ProfilesFile string `mapstructure:"profiles_file" yaml:"profiles_file"`
	} `mapstructure:"templates" yaml:"templates"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Server struct {
		Address string `mapstructure:"address" yaml:"address"`
	} `mapstructure:"server" yaml:"server"`

	Watch struct {
		InboxDir string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
		Schedule string `mapstructure:"schedule" yaml:"schedule"`
		TimeZone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"watch" yaml:"watch"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.rent-recon")
	v.AddConfigPath(".rent-recon")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("RENTRECON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Secrets are read from their conventional, unprefixed variables
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}
	if err := v.BindEnv("storage.postgres_dsn", "RENTRECON_STORAGE_POSTGRES_DSN", "DATABASE_URL"); err != nil {
		fmt.Printf("Warning: failed to bind DATABASE_URL environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults only, ignoring
// config files and the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("default configuration does not unmarshal: %v", err))
	}
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.encoding", "auto")

	v.SetDefault("data.directory", "data")

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.sqlite_path", "data/rent-recon.db")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("reconcile.delinquency_threshold", 0)
	v.SetDefault("reconcile.grace_day", 20)
	v.SetDefault("reconcile.clean_start_lead_days", 15)
	v.SetDefault("reconcile.memo_lookback_months", 8)
	v.SetDefault("reconcile.recent_deposits", 6)
	v.SetDefault("reconcile.history_months", 12)
	v.SetDefault("reconcile.fuzzy_max_distance", 2)

	v.SetDefault("templates.owner", "")
	v.SetDefault("templates.profiles_file", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("server.address", ":8080")

	v.SetDefault("watch.inbox_dir", "")
	v.SetDefault("watch.schedule", "@every 15m")
	v.SetDefault("watch.timezone", "Asia/Tokyo")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	switch config.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if config.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn (or DATABASE_URL) required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s (must be file, sqlite or postgres)", config.Storage.Driver)
	}

	r := config.Reconcile
	if r.GraceDay < 1 || r.GraceDay > 28 {
		return fmt.Errorf("reconcile.grace_day must be between 1 and 28, got: %d", r.GraceDay)
	}
	if r.DelinquencyThreshold < 0 {
		return fmt.Errorf("reconcile.delinquency_threshold cannot be negative, got: %f", r.DelinquencyThreshold)
	}
	if r.CleanStartLeadDays < 0 || r.MemoLookbackMonths < 0 || r.RecentDeposits < 0 || r.HistoryMonths < 0 || r.FuzzyMaxDistance < 0 {
		return fmt.Errorf("reconcile limits cannot be negative")
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	return nil
}
