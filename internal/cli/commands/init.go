package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sightline-labs/sightline/internal/config"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new project",
		Long: `Write a starter sightline.yaml with one fully populated example page
and create the data directory. Edit the page to match your own data
file, then run 'sightline check' to verify it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing sightline.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	if _, err := os.Stat(config.ConfigFileName); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", config.ConfigFileName)
	}

	example := config.Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(config.ConfigFileName, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}
	if err := os.MkdirAll(example.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created %s\n", config.ConfigFileName)
	_, _ = fmt.Fprintf(out, "Created %s/\n", example.DataDir)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintf(out, "  1. Drop your CSV files into %s/\n", example.DataDir)
	_, _ = fmt.Fprintln(out, "  2. Edit the example page in sightline.yaml")
	_, _ = fmt.Fprintln(out, "  3. Run 'sightline check' to validate, then 'sightline serve'")
	return nil
}
