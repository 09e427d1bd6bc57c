package commands

import (
	"fmt"
	"os"

	"binocular/internal/config"
	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/switcher"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// newWindowSystem is swapped out by tests
	newWindowSystem = platform.NewWindowSystem

	rootCmd = &cobra.Command{
		Use:   "binoctl",
		Short: "binoctl - inspect and drive the windows Binocular switches between",
		Long: `binoctl walks the desktop's top-level windows with the same rules the
Binocular panel uses and lets you act on them from a terminal.

Features:
  • List the windows the switcher would show
  • Fuzzy-search them by title and process name
  • Focus or close a window by handle
  • Inspect the effective configuration
  • Manage start-at-login`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the per-user binocular.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the --log-level override.
// Log output goes to stderr so stdout stays machine-readable.
func loadConfig() (*config.Config, *config.Loader, *logging.DefaultLogger, error) {
	if logLevel != "" {
		logging.SetLevel(logLevel)
	} else {
		logging.SetLevel("warn")
	}
	logger := logging.NewLogger(os.Stderr, true)

	loader, err := config.NewLoader(cfgFile, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := loader.Config()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, loader, logger, nil
}

func openRegistry() (*switcher.Registry, error) {
	cfg, _, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return switcher.NewRegistry(newWindowSystem(),
		switcher.WithLogger(logger.WithComponent("registry")),
		switcher.WithIconSize(cfg.Icon.Size)), nil
}
