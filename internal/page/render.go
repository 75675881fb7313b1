package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sightline-labs/sightline/internal/charts"
	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/dataset"
	"github.com/sightline-labs/sightline/internal/guard"
	"github.com/sightline-labs/sightline/internal/stats"
)

// dateLayout is the wire form of date filter selections.
const dateLayout = "2006-01-02"

// Renderer turns a page spec plus filter selections into a View.
type Renderer struct {
	loader  *dataset.Loader
	builder *charts.Builder
	logger  *slog.Logger
}

// NewRenderer creates a Renderer. A nil builder gets the default theme, a
// nil logger discards.
func NewRenderer(loader *dataset.Loader, builder *charts.Builder, logger *slog.Logger) *Renderer {
	if builder == nil {
		builder = charts.NewBuilder(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{loader: loader, builder: builder, logger: logger}
}

// Build loads the page's data file, applies the filter selections in spec
// order, and assembles the full view. Loading is the only failure mode;
// missing columns and empty subsets degrade to notices inside the view.
func (r *Renderer) Build(ctx context.Context, spec config.PageSpec, sel Selections) (*View, error) {
	ds, err := r.loader.Load(ctx, spec.DataFile)
	if err != nil {
		return nil, err
	}

	view := &View{Spec: spec, TotalRows: ds.Len()}
	if mod, err := r.loader.ModTime(spec.DataFile); err == nil {
		view.LastUpdated = mod
	}

	resolved := dataset.ResolveColumns(ds, spec.Candidates)
	physical := func(logical string) string {
		if p, ok := resolved[logical]; ok && p != "" {
			return p
		}
		return dataset.NormalizeName(logical)
	}

	if spec.DateKey != "" {
		dates := guard.ParseTimeSafe(guard.SafeSeries(ds, physical(spec.DateKey), ""))
		if min, ok := dates.Min(); ok {
			view.DataFrom = min
		}
		if max, ok := dates.Max(); ok {
			view.DataThrough = max
		}
	}

	current := r.applyFilters(view, ds, spec, sel, physical)
	view.FilteredRows = current.Len()

	// One gate for everything the metrics and charts depend on. Logical
	// names go in the notice so the message matches the page config.
	missing := MissingColumns(ds, spec)
	if len(missing) > 0 {
		view.Notice = fmt.Sprintf("This page cannot render: %v.",
			&guard.MissingColumnsError{Columns: missing})
		r.logger.Warn("page missing required columns",
			"page", spec.Key, "missing", strings.Join(missing, ","))
		return view, nil
	}

	r.buildMetrics(view, current, spec, physical)

	present := current
	if spec.PresentColumn != "" {
		pcol := physical(spec.PresentColumn)
		if guard.HasColumns(current, pcol) {
			s := guard.SafeSeries(current, pcol, "")
			want := strings.ToLower(strings.TrimSpace(spec.PresentValue))
			present = current.FilterRows(s.Norm().EqualMask(want))
		}
	}

	r.buildSections(view, current, present, spec, physical)
	return view, nil
}

// MissingColumns reports the page's required logical columns that have
// no physical column in ds. The presence check itself is guard.NeedColumns
// over the resolved physical names; the result is translated back to
// logical names so notices match the page config. The check command and
// the renderer share this gate.
func MissingColumns(ds *dataset.Dataset, spec config.PageSpec) []string {
	resolved := dataset.ResolveColumns(ds, spec.Candidates)
	logicals := spec.RequiredColumns()
	physicals := make([]string, len(logicals))
	for i, logical := range logicals {
		p, ok := resolved[logical]
		if !ok || p == "" {
			p = dataset.NormalizeName(logical)
		}
		physicals[i] = p
	}

	var missErr *guard.MissingColumnsError
	if !errors.As(guard.NeedColumns(ds, physicals...), &missErr) {
		return nil
	}
	absent := make(map[string]struct{}, len(missErr.Columns))
	for _, p := range missErr.Columns {
		absent[p] = struct{}{}
	}
	var missing []string
	for i, logical := range logicals {
		if _, ok := absent[physicals[i]]; ok {
			missing = append(missing, logical)
		}
	}
	return missing
}

// Filtered loads the page's data and applies the filter selections, for
// callers that want the raw rows (the CSV download) rather than a view.
func (r *Renderer) Filtered(ctx context.Context, spec config.PageSpec, sel Selections) (*dataset.Dataset, error) {
	ds, err := r.loader.Load(ctx, spec.DataFile)
	if err != nil {
		return nil, err
	}
	resolved := dataset.ResolveColumns(ds, spec.Candidates)
	physical := func(logical string) string {
		if p, ok := resolved[logical]; ok && p != "" {
			return p
		}
		return dataset.NormalizeName(logical)
	}
	scratch := &View{Spec: spec}
	return r.applyFilters(scratch, ds, spec, sel, physical), nil
}

// applyFilters narrows the dataset one filter at a time. Each filter's
// options are computed over the subset produced by the filters before it,
// so choices stay mutually consistent.
func (r *Renderer) applyFilters(view *View, ds *dataset.Dataset, spec config.PageSpec, sel Selections, physical func(string) string) *dataset.Dataset {
	current := ds
	for _, f := range spec.Filters {
		col := physical(f.Key)
		fv := FilterView{Spec: f}

		switch f.Kind {
		case config.FilterDate:
			if !guard.HasColumns(current, col) {
				view.Filters = append(view.Filters, fv)
				continue
			}
			times := guard.ParseTimeSafe(guard.SafeSeries(current, col, ""))
			min, okMin := times.Min()
			max, okMax := times.Max()
			if !okMin || !okMax {
				view.Filters = append(view.Filters, fv)
				continue
			}
			fv.MinDate, fv.MaxDate = min, max

			from, to := min, max
			if vals := sel[f.Key]; len(vals) == 2 {
				if t, err := time.Parse(dateLayout, vals[0]); err == nil && t.After(from) {
					from = t
				}
				if t, err := time.Parse(dateLayout, vals[1]); err == nil && t.Before(to) {
					to = t
				}
			}
			if to.Before(from) {
				from, to = min, max
			}
			fv.FromDate, fv.ToDate = from, to

			// Only filter when the range was narrowed, so rows with
			// unparseable dates stay visible by default.
			if from.After(min) || to.Before(max) {
				current = current.FilterRows(times.BetweenMask(from, to))
				view.Chips = append(view.Chips, Chip{
					Label: f.Label,
					Value: from.Format(dateLayout) + " to " + to.Format(dateLayout),
				})
			}

		case config.FilterMulti:
			if !guard.HasColumns(current, col) {
				view.Filters = append(view.Filters, fv)
				continue
			}
			s := guard.SafeSeries(current, col, "")
			selected := selectedIn(sel[f.Key], s)
			counts := s.ValueCounts()
			for _, v := range s.Unique() {
				fv.Options = append(fv.Options, FilterOption{
					Value:    v,
					Count:    counts[v],
					Selected: contains(selected, v),
				})
			}
			fv.Selected = selected

			if len(selected) > 0 {
				current = current.FilterRows(s.InMask(selected...))
				view.Chips = append(view.Chips, Chip{
					Label: f.Label,
					Value: strings.Join(selected, ", "),
				})
			}
		}
		view.Filters = append(view.Filters, fv)
	}
	return current
}

func (r *Renderer) buildMetrics(view *View, d *dataset.Dataset, spec config.PageSpec, physical func(string) string) {
	sexCol := physical("sex")
	for _, m := range spec.Metrics {
		s := guard.SafeSeries(d, physical(m.Column), "")
		n := stats.CountDone(s)

		value := fmt.Sprintf("%d", n)
		if m.BaseColumn != "" {
			base := stats.CountDone(guard.SafeSeries(d, physical(m.BaseColumn), ""))
			pct := 0.0
			if base > 0 {
				pct = float64(n) / float64(base) * 100
			}
			value = fmt.Sprintf("%d (%.1f%%)", n, pct)
		}

		help := ""
		if guard.HasColumns(d, sexCol) {
			sex := guard.SafeSeries(d, sexCol, "")
			mask := make([]bool, s.Len())
			for i := range mask {
				mask[i] = !s.IsNull(i) && stats.IsDone(s.Value(i))
			}
			bySex := stats.NormalizeSex(sex.Filter(mask)).ValueCounts()
			if bySex["Male"]+bySex["Female"] > 0 {
				help = fmt.Sprintf("M: %d | F: %d", bySex["Male"], bySex["Female"])
			}
		}

		view.Metrics = append(view.Metrics, MetricView{
			Title: m.Title,
			Value: value,
			Help:  help,
			Icon:  m.Icon,
			Color: m.Color,
		})
	}
}

func (r *Renderer) buildSections(view *View, current, present *dataset.Dataset, spec config.PageSpec, physical func(string) string) {
	for _, sec := range spec.Sections {
		sv := SectionView{Title: sec.Title}
		for _, ch := range sec.Charts {
			sv.Charts = append(sv.Charts, r.buildChart(current, present, ch, physical))
		}
		view.Sections = append(view.Sections, sv)
	}
}

func (r *Renderer) buildChart(current, present *dataset.Dataset, ch config.ChartSpec, physical func(string) string) ChartView {
	cv := ChartView{Title: ch.Title}
	col := physical(ch.Column)

	var fig charts.Figure
	switch ch.Kind {
	case config.ChartGrouped:
		sexCol := physical("sex")
		if !guard.HasColumns(present, sexCol) {
			cv.Notice = "No sex column available for this chart."
			return cv
		}
		fig = r.builder.GroupedByCategoryAndSex(present, col, sexCol, charts.GroupedOptions{Title: ch.Title})

	case config.ChartNewOld:
		sexCol := physical("sex")
		if !guard.HasColumns(present, sexCol) {
			cv.Notice = "No sex column available for this chart."
			return cv
		}
		fig = r.builder.GroupedNewOldBySex(present, col, sexCol, ch.Title)

	default:
		all := stats.CleanCategories(guard.SafeSeries(current, col, ""))
		sub := stats.CleanCategories(guard.SafeSeries(present, col, ""))
		table := stats.MakeCountTable(stats.CategoryCounts(all, sub, ch.Drop, ch.Exclude))
		if table.Empty() {
			cv.Notice = fmt.Sprintf("No %s data for the current filters.", strings.ToLower(ch.Title))
			return cv
		}
		if ch.Kind == config.ChartBar {
			fig = r.builder.Bar(table, ch.Title)
		} else {
			fig = r.builder.Pie(table, ch.Title)
		}
	}

	js, err := fig.JSON()
	if err != nil {
		r.logger.Error("failed to encode figure", "chart", ch.Title, "error", err)
		cv.Notice = "Chart could not be rendered."
		return cv
	}
	cv.FigureJSON = js
	return cv
}

// selectedIn keeps only the selections that are actual values of the
// column, in the column's sorted option order.
func selectedIn(vals []string, s *dataset.Series) []string {
	if len(vals) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		want[v] = struct{}{}
	}
	var out []string
	for _, v := range s.Unique() {
		if _, ok := want[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
