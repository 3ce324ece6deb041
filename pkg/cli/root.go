// Package cli defines the nutridive command tree.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/config"
)

type rootOptions struct {
	configPath string
	version    string
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	cmd := &cobra.Command{
		Use:           "nutridive",
		Short:         "Barcode product analysis service",
		Long:          "NutriDive fetches food products by barcode, has them assessed by a language model and caches one analysis per barcode.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "config file path")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newAnalyzeCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

// load reads .env when present, then the configuration, and builds the logger.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(o.configPath, o.version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsLocal() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
