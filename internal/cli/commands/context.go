// Package commands implements the sightline subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sightline-labs/sightline/internal/cli/output"
	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/dataset"
	"github.com/sightline-labs/sightline/internal/state"
)

type configKey struct{}

// WithConfig stores the loaded configuration in ctx; the root command
// calls this before any subcommand runs.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// getConfig retrieves the configuration from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

// newRenderer builds the command's output renderer.
func newRenderer(cmd *cobra.Command) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
}

// newLoader opens the CSV loader rooted at the configured data
// directory, verifying the directory exists first.
func newLoader(cmd *cobra.Command, cfg *config.Config) (*dataset.Loader, error) {
	if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("data directory does not exist: %s", cfg.DataDir)
	}
	return dataset.NewLoader(cfg.DataDir, config.GetLogger(cmd.Context()))
}

// openStore opens the state database, creating its directory on first
// use.
func openStore(cfg *config.Config) (*state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.OpenAndMigrate(cfg.StatePath)
}
