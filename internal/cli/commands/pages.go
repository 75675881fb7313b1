package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/state"
)

// NewPagesCommand creates the pages command.
func NewPagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the configured dashboard pages",
		Long: `List every configured page with its data file, the row count of its
most recent render, and when its data was last updated (by upload or on
disk).`,
		RunE: runPages,
	}
}

func runPages(cmd *cobra.Command, _ []string) error {
	cfg := getConfig(cmd)
	r := newRenderer(cmd)

	if len(cfg.Pages) == 0 {
		r.Warning("No pages configured")
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	pageStats, err := store.PageStats()
	if err != nil {
		return err
	}
	statsByKey := make(map[string]state.PageStat, len(pageStats))
	for _, st := range pageStats {
		statsByKey[st.PageKey] = st
	}

	r.Header(fmt.Sprintf("Pages (%d total)", len(cfg.Pages)))

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Title", "Data file", "Rows", "Last updated"})

	for _, p := range cfg.Pages {
		rows := "-"
		if st, ok := statsByKey[p.Key]; ok {
			rows = fmt.Sprintf("%d", st.LastRows)
		}
		t.AppendRow(table.Row{p.Key, p.Title, p.DataFile, rows, lastUpdated(store, cfg, p)})
	}
	t.Render()
	return nil
}

// lastUpdated prefers the recorded upload time and falls back to the data
// file's mtime for files only ever replaced out of band.
func lastUpdated(store *state.Store, cfg *config.Config, p config.PageSpec) string {
	if up, err := store.LastUploadFor(p.DataFile); err == nil && up != nil {
		return up.UploadedAt.Local().Format("2006-01-02 15:04")
	}
	if info, err := os.Stat(filepath.Join(cfg.DataDir, p.DataFile)); err == nil {
		return info.ModTime().Format("2006-01-02 15:04")
	}
	return "-"
}
