// Package common provides the shared page chrome and widgets the feature
// packages compose: the document layout, metric cards, filter chips,
// notices, and the Plotly chart mounts.
package common

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
)

// CDN-hosted runtime scripts. Figures are data-only JSON; Plotly draws
// them in the browser.
const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"
	plotlyScript   = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

// NavItem is one entry in the top navigation.
type NavItem struct {
	Title  string
	Icon   string
	Href   string
	Active bool
}

// Layout wraps body in the full HTML document: head, brand header, and
// navigation.
func Layout(brand config.BrandConfig, pageTitle string, nav []NavItem, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		if _, err := fmt.Fprintf(w,
			`<!doctype html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>%s - %s</title>`+
				`<script type="module" src="%s"></script>`+
				`<script src="%s" charset="utf-8"></script>`+
				`<style>%s</style>`+
				`</head><body><header class="topbar" style="border-color:%s">`+
				`<h1>%s</h1><nav>`,
			esc(pageTitle), esc(brand.Title),
			datastarScript, plotlyScript, baseCSS,
			esc(brand.Color), esc(brand.Title),
		); err != nil {
			return err
		}
		for _, item := range nav {
			class := "nav-link"
			if item.Active {
				class = "nav-link active"
			}
			if _, err := fmt.Fprintf(w, `<a class="%s" href="%s">%s %s</a>`,
				class, esc(item.Href), esc(item.Icon), esc(item.Title)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav></header><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Notice renders an informational banner.
func Notice(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="notice">%s</div>`, templ.EscapeString(text))
		return err
	})
}

// ErrorNotice renders a failure banner.
func ErrorNotice(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="notice error">%s</div>`, templ.EscapeString(text))
		return err
	})
}

// MetricCards renders the metric card row.
func MetricCards(metrics []page.MetricView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		if _, err := io.WriteString(w, `<div class="metric-row">`); err != nil {
			return err
		}
		for _, m := range metrics {
			color := m.Color
			if color == "" {
				color = "#64748b"
			}
			if _, err := fmt.Fprintf(w,
				`<div class="metric-card" style="border-left-color:%s">`+
					`<div class="metric-title">%s %s</div>`+
					`<div class="metric-value">%s</div>`,
				esc(color), esc(m.Icon), esc(m.Title), esc(m.Value)); err != nil {
				return err
			}
			if m.Help != "" {
				if _, err := fmt.Fprintf(w, `<div class="metric-help">%s</div>`, esc(m.Help)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</div>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Chips renders the active-filter chips.
func Chips(chips []page.Chip) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(chips) == 0 {
			return nil
		}
		esc := templ.EscapeString[string]
		if _, err := io.WriteString(w, `<div class="chip-row">`); err != nil {
			return err
		}
		for _, c := range chips {
			if _, err := fmt.Fprintf(w, `<span class="chip"><b>%s:</b> %s</span>`,
				esc(c.Label), esc(c.Value)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// FilterPanel renders the filter form. Submitting issues a GET back to
// action; date filters use <key>_from/<key>_to inputs, multi filters a
// multiple select named by their key.
func FilterPanel(action string, filters []page.FilterView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(filters) == 0 {
			return nil
		}
		esc := templ.EscapeString[string]
		if _, err := fmt.Fprintf(w,
			`<form class="filter-panel" method="get" action="%s">`+
				`<input type="hidden" name="apply" value="1">`, esc(action)); err != nil {
			return err
		}
		for _, f := range filters {
			if _, err := fmt.Fprintf(w, `<fieldset><legend>%s</legend>`, esc(f.Spec.Label)); err != nil {
				return err
			}
			switch f.Spec.Kind {
			case config.FilterDate:
				if err := dateInputs(w, f); err != nil {
					return err
				}
			case config.FilterMulti:
				if err := multiSelect(w, f); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</fieldset>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w,
			`<button type="submit">Apply</button> <a class="reset" href="%s?clear=1">Reset</a></form>`,
			esc(action))
		return err
	})
}

func dateInputs(w io.Writer, f page.FilterView) error {
	esc := templ.EscapeString[string]
	if f.MinDate.IsZero() {
		_, err := io.WriteString(w, `<span class="muted">No dates in data</span>`)
		return err
	}
	const day = "2006-01-02"
	_, err := fmt.Fprintf(w,
		`<input type="date" name="%[1]s_from" value="%[2]s" min="%[4]s" max="%[5]s"> to `+
			`<input type="date" name="%[1]s_to" value="%[3]s" min="%[4]s" max="%[5]s">`,
		esc(f.Spec.Key),
		f.FromDate.Format(day), f.ToDate.Format(day),
		f.MinDate.Format(day), f.MaxDate.Format(day))
	return err
}

func multiSelect(w io.Writer, f page.FilterView) error {
	esc := templ.EscapeString[string]
	if _, err := fmt.Fprintf(w, `<select name="%s" multiple size="%d">`,
		esc(f.Spec.Key), selectSize(len(f.Options))); err != nil {
		return err
	}
	for _, opt := range f.Options {
		selected := ""
		if opt.Selected {
			selected = " selected"
		}
		if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s (%d)</option>`,
			esc(opt.Value), selected, esc(opt.Value), opt.Count); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</select>`)
	return err
}

func selectSize(n int) int {
	if n < 2 {
		return 2
	}
	if n > 6 {
		return 6
	}
	return n
}

// ChartSections renders every chart section. Each figure gets a mount div
// and an inline script that hands the JSON to Plotly; the JSON is emitted
// by encoding/json with HTML escaping on, so it is safe inside a script
// element.
func ChartSections(pageKey string, sections []page.SectionView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		for si, sec := range sections {
			if _, err := fmt.Fprintf(w, `<section class="chart-section"><h2>%s</h2><div class="chart-grid">`,
				esc(sec.Title)); err != nil {
				return err
			}
			for ci, ch := range sec.Charts {
				id := fmt.Sprintf("chart-%s-%d-%d", esc(pageKey), si, ci)
				if ch.Notice != "" {
					if _, err := fmt.Fprintf(w, `<div class="chart-slot"><div class="notice">%s</div></div>`,
						esc(ch.Notice)); err != nil {
						return err
					}
					continue
				}
				if _, err := fmt.Fprintf(w,
					`<div class="chart-slot"><div class="chart" id="%[1]s"></div>`+
						`<script type="application/json" id="%[1]s-fig">%[2]s</script>`+
						`<script>(function(){var fig=JSON.parse(document.getElementById("%[1]s-fig").textContent);`+
						`Plotly.newPlot("%[1]s",fig.data,fig.layout,{displayModeBar:false,responsive:true});})();</script>`+
						`</div>`,
					id, ch.FigureJSON); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</div></section>`); err != nil {
				return err
			}
		}
		return nil
	})
}

const baseCSS = `
body{margin:0;font-family:system-ui,sans-serif;background:#f8fafc;color:#0f172a}
.topbar{display:flex;align-items:center;gap:2rem;padding:.75rem 1.5rem;background:#fff;border-bottom:3px solid}
.topbar h1{font-size:1.1rem;margin:0}
.nav-link{margin-right:1rem;text-decoration:none;color:#334155}
.nav-link.active{font-weight:600;color:#0f172a}
main{padding:1.5rem;max-width:1100px;margin:0 auto}
.notice{background:#fef9c3;border:1px solid #fde047;border-radius:6px;padding:.6rem 1rem;margin:.5rem 0}
.notice.error{background:#fee2e2;border-color:#fca5a5}
.metric-row{display:flex;flex-wrap:wrap;gap:1rem;margin:1rem 0}
.metric-card{background:#fff;border:1px solid #e2e8f0;border-left:4px solid;border-radius:8px;padding:.75rem 1.25rem;min-width:11rem}
.metric-title{font-size:.8rem;color:#64748b}
.metric-value{font-size:1.5rem;font-weight:700}
.metric-help{font-size:.75rem;color:#94a3b8}
.chip-row{margin:.5rem 0}
.chip{display:inline-block;background:#e0f2fe;border-radius:999px;padding:.15rem .75rem;margin-right:.5rem;font-size:.8rem}
.filter-panel{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:1rem;display:flex;flex-wrap:wrap;gap:1rem;align-items:flex-end}
.filter-panel fieldset{border:none;padding:0;margin:0}
.filter-panel legend{font-size:.8rem;color:#64748b;padding:0}
.chart-section h2{font-size:1rem;margin:1.5rem 0 .5rem}
.chart-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(420px,1fr));gap:1rem}
.chart-slot{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:.5rem}
.muted{color:#94a3b8}
table.listing{border-collapse:collapse;background:#fff;width:100%}
table.listing th,table.listing td{border:1px solid #e2e8f0;padding:.4rem .75rem;text-align:left;font-size:.85rem}
`
