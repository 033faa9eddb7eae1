// Package root contains the root command for the application
package root

import (
	"errors"
	"strings"

	"fjacquet/rent-recon/internal/config"
	"fjacquet/rent-recon/internal/container"
	"fjacquet/rent-recon/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Owner     string
	LogLevel  string
	LogFormat string
	Storage   string
	DataDir   string
}

// ErrNotInitialized is returned by commands run without the root
// pre-run hook having built the container.
var ErrNotInitialized = errors.New("application container not initialized")

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// AppConfig is the configuration loaded by the pre-run hook.
	AppConfig *config.Config

	// AppContainer holds the wired dependencies for the running command.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "rent-recon",
		Short: "Reconcile bank deposits against a rent roll and report overdue rent.",
		Long: `rent-recon ingests bank exports (CSV, XLSX, XLS), detects their column layout,
matches deposits to tenants and computes balances, delinquency and invoice payloads
for a small residential portfolio.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to rent-recon!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg)
			configureLogrus(cfg)
			AppConfig = cfg

			c, err := container.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			AppContainer = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.Warnf("Failed to close application resources: %v", err)
			}
			AppContainer = nil
		},
	}

	// SharedFlags holds the persistent flag values.
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	f := Cmd.PersistentFlags()
	f.StringVar(&SharedFlags.Owner, "owner", "", "Owner namespace for tenants, deposits and templates (overrides templates.owner)")
	f.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text or json)")
	f.StringVar(&SharedFlags.Storage, "storage", "", "Storage driver (file, sqlite or postgres)")
	f.StringVar(&SharedFlags.DataDir, "data-dir", "", "Data directory of the file storage driver")
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("owner") {
		cfg.Templates.Owner = SharedFlags.Owner
	}
	if f.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(SharedFlags.LogLevel)
	}
	if f.Changed("log-format") {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if f.Changed("storage") {
		cfg.Storage.Driver = SharedFlags.Storage
	}
	if f.Changed("data-dir") {
		cfg.Data.Directory = SharedFlags.DataDir
	}
}

func configureLogrus(cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		Log.SetLevel(level)
	}
	if cfg.Log.Format == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// GetLogrusAdapter returns the container logger, or an adapter over Log
// before the container exists.
func GetLogrusAdapter() logging.Logger {
	if AppContainer != nil {
		return AppContainer.GetLogger()
	}
	return logging.NewLogrusAdapterFromLogger(Log)
}

// GetContainer returns the application container, nil before the pre-run hook.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration, nil before the pre-run hook.
func GetConfig() *config.Config {
	return AppConfig
}

// RequireContainer returns the container or ErrNotInitialized.
func RequireContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, ErrNotInitialized
	}
	return AppContainer, nil
}
