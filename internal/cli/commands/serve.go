package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
	"github.com/sightline-labs/sightline/internal/ui"
	"github.com/sightline-labs/sightline/internal/upload"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the web server hosting the configured dashboard pages.

Each page reads its data file on render, so replacing a file (via the
upload form, the upload command, or out of band) is picked up without a
restart. With --watch, open pages refresh themselves when a data file
changes on disk.`,
		Example: `  # Start on the configured port
  sightline serve

  # Start on a custom port without opening a browser
  sightline serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Refresh open pages when data files change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig(cmd)
	logger := config.GetLogger(cmd.Context())

	if len(cfg.Pages) == 0 {
		return fmt.Errorf("no pages configured; run 'sightline init' to scaffold a project")
	}

	// CLI flags override the config file.
	if opts.Port != 0 {
		cfg.Listen.Port = opts.Port
	}
	if cmd.Flags().Changed("watch") {
		cfg.Listen.Watch = opts.Watch
	}

	loader, err := newLoader(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = loader.Close() }()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	server := ui.NewServer(ui.Config{
		Config:    cfg,
		Renderer:  page.NewRenderer(loader, nil, logger),
		Store:     store,
		Installer: upload.NewInstaller(cfg.DataDir, cfg.Upload.Password, cfg.Upload.Keep, logger),
		Logger:    logger,
	})

	url := fmt.Sprintf("http://localhost:%d", cfg.Listen.Port)
	if !opts.NoBrowser {
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %d dashboards on %s\n", len(cfg.Pages), url)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
