package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/upload"
)

// UploadOptions holds options for the upload command.
type UploadOptions struct {
	As       string
	Password string
}

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	opts := &UploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Install a data file into the data directory",
		Long: `Install a data file the same way the web upload form does: the
replaced file is backed up first and the new one lands atomically, so a
running server never reads a half-written file.

The configured upload password is required; pass it with --password or
the SIGHTLINE_UPLOAD_PASSWORD environment variable.`,
		Example: `  # Replace school_program.csv with a fresh export
  sightline upload ~/exports/latest.csv --as school_program.csv --password s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "Install under this name (default: the file's own name)")
	cmd.Flags().StringVar(&opts.Password, "password", os.Getenv("SIGHTLINE_UPLOAD_PASSWORD"), "Upload password")

	return cmd
}

func runUpload(cmd *cobra.Command, source string, opts *UploadOptions) error {
	cfg := getConfig(cmd)
	logger := config.GetLogger(cmd.Context())

	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer func() { _ = f.Close() }()

	name := opts.As
	if name == "" {
		name = filepath.Base(source)
	}

	installer := upload.NewInstaller(cfg.DataDir, cfg.Upload.Password, cfg.Upload.Keep, logger)
	res, err := installer.Install(name, f, opts.Password)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.RecordUpload(state.UploadRecord{
		FileName:   res.FileName,
		SizeBytes:  res.SizeBytes,
		BackupPath: res.BackupPath,
		Source:     "cli",
	}); err != nil {
		logger.Warn("failed to record upload", "file", res.FileName, "error", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Installed %s (%d bytes)\n", res.FileName, res.SizeBytes)
	if res.BackupPath != "" {
		_, _ = fmt.Fprintf(out, "Previous version backed up to %s\n", res.BackupPath)
	}
	return nil
}
