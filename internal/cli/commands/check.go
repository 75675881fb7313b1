package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sightline-labs/sightline/internal/cli/output"
	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [page-key...]",
		Short: "Validate pages against their data files",
		Long: `Load each page's data file and verify that every column the page's
metrics and charts require is present. Without arguments all pages are
checked.

Exits non-zero when any page fails, so the command can gate deploys of
new data files.`,
		Example: `  # Check every configured page
  sightline check

  # Check one page
  sightline check school`,
		RunE: runCheck,
	}
}

type checkResult struct {
	page    config.PageSpec
	rows    int
	missing []string
	loadErr error
}

func (r checkResult) ok() bool {
	return r.loadErr == nil && len(r.missing) == 0
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd)
	r := newRenderer(cmd)

	specs, err := selectPages(cfg, args)
	if err != nil {
		return err
	}

	loader, err := newLoader(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = loader.Close() }()

	results := make([]checkResult, 0, len(specs))
	for _, spec := range specs {
		res := checkResult{page: spec}
		ds, err := loader.Load(cmd.Context(), spec.DataFile)
		if err != nil {
			res.loadErr = err
		} else {
			res.rows = ds.Len()
			res.missing = page.MissingColumns(ds, spec)
		}
		results = append(results, res)
	}

	renderCheckTable(r, results)

	failed := 0
	for _, res := range results {
		if !res.ok() {
			failed++
		}
	}
	if failed > 0 {
		r.Errorln(fmt.Sprintf("%d of %d pages failed validation", failed, len(results)))
		return fmt.Errorf("%d page(s) failed validation", failed)
	}
	r.Success(fmt.Sprintf("All %d pages validated", len(results)))
	return nil
}

func renderCheckTable(r *output.Renderer, results []checkResult) {
	styles := r.Styles()

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Page", "Data file", "Rows", "Status"})

	for _, res := range results {
		status := styles.Success.Render("OK")
		rows := fmt.Sprintf("%d", res.rows)
		switch {
		case res.loadErr != nil:
			status = styles.Error.Render(fmt.Sprintf("load failed: %v", res.loadErr))
			rows = "-"
		case len(res.missing) > 0:
			status = styles.Error.Render("missing: " + strings.Join(res.missing, ", "))
		}
		t.AppendRow(table.Row{res.page.Key, res.page.DataFile, rows, status})
	}
	t.Render()
}

// selectPages resolves page-key arguments against the configuration;
// no arguments selects every page.
func selectPages(cfg *config.Config, keys []string) ([]config.PageSpec, error) {
	if len(keys) == 0 {
		if len(cfg.Pages) == 0 {
			return nil, fmt.Errorf("no pages configured")
		}
		return cfg.Pages, nil
	}
	specs := make([]config.PageSpec, 0, len(keys))
	for _, key := range keys {
		spec, ok := cfg.Page(key)
		if !ok {
			return nil, fmt.Errorf("unknown page %q", key)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
