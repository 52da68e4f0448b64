// Package root contains the root command for the application
package root

import (
	"fmt"
	"os"

	"bcgov/pay-reconciler/internal/config"
	"bcgov/pay-reconciler/internal/container"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/validation"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to every command
type CommonFlags struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
	LogFormat  string
	Database   string
}

var (
	// Log is the shared logger instance for commands. It is replaced by the
	// configured logger once PersistentPreRunE has run.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the loaded configuration
	AppConfig *config.Config

	// AppContainer holds the wired dependencies for the running command
	AppContainer *container.Container

	// SharedFlags holds the values of the persistent flags
	SharedFlags = CommonFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "pay-reconciler",
		Short: "Reconcile EFT deposits and CAS settlements against invoices.",
		Long: `pay-reconciler processes payment settlement files delivered through a
message queue. TDI17 EFT deposit files are credited to short names and applied
to outstanding invoices; CAS settlement CSV files update invoice payment state.

Run "serve" to start the push worker, or use the other commands to reconcile
single files, backfill a directory, inspect short names and export reports.`,
		SilenceUsage:      true,
		PersistentPreRunE: initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close container")
			}
			AppContainer = nil
		},
	}
)

// Init registers the persistent flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default searches ./config.yaml and $HOME/.pay-reconciler)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.EnvFile, "env-file", "", "Environment file to load before reading configuration (default .env)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format override (text, json)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Database, "db", "", "SQLite database path override")
}

// initialize loads the environment and configuration, applies flag
// overrides and wires the container.
func initialize(cmd *cobra.Command, args []string) error {
	var envFiles []string
	if SharedFlags.EnvFile != "" {
		envFiles = append(envFiles, SharedFlags.EnvFile)
	}
	if _, err := config.LoadEnv(envFiles...); err != nil {
		return err
	}

	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if SharedFlags.Database != "" {
		cfg.Database.Path = SharedFlags.Database
	}

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	AppConfig = cfg
	AppContainer = c
	Log = c.GetLogger()

	// The config file may hold the notification client secret.
	if SharedFlags.ConfigFile != "" {
		if info, err := os.Stat(SharedFlags.ConfigFile); err == nil {
			if err := validation.IsValidFilePermissions(info.Mode().Perm()); err != nil {
				Log.Warn("Config file is writable by other users", logging.F(logging.FieldFileName, SharedFlags.ConfigFile))
			}
		}
	}
	return nil
}

// GetConfig returns the loaded configuration, nil before initialization
func GetConfig() *config.Config {
	return AppConfig
}

// GetContainer returns the wired container, nil before initialization
func GetContainer() *container.Container {
	return AppContainer
}

// GetLogger returns the shared logger
func GetLogger() logging.Logger {
	return Log
}

// RequireContainer returns the container or an error explaining that the
// command ran without initialization.
func RequireContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return AppContainer, nil
}
