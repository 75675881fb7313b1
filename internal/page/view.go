// Package page assembles dashboard page views: it loads a page's dataset,
// resolves its logical columns, applies filter selections, and produces the
// metric cards and chart figures the UI renders. The same pipeline backs
// the web handlers and the CLI check command.
package page

import (
	"time"

	"github.com/sightline-labs/sightline/internal/config"
)

// Selections holds the caller's filter choices, keyed by filter key. Date
// filters use two values, [from, to], in ISO form; multi filters hold the
// chosen category values.
type Selections map[string][]string

// Clone returns a deep copy.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// View is everything one dashboard page render needs.
type View struct {
	Spec        config.PageSpec
	LastUpdated time.Time

	// DataFrom and DataThrough span the parseable dates of the page's
	// date-key column over the full dataset, before filtering. Zero when
	// the page has no date key or no cell parses.
	DataFrom    time.Time
	DataThrough time.Time

	TotalRows    int
	FilteredRows int

	// Notice is the page-level message shown instead of metrics and
	// sections when required columns are missing.
	Notice string

	Filters  []FilterView
	Chips    []Chip
	Metrics  []MetricView
	Sections []SectionView
}

// FilterView is one sidebar filter with its current state.
type FilterView struct {
	Spec config.FilterSpec

	// Date filters.
	MinDate, MaxDate time.Time
	FromDate, ToDate time.Time

	// Multi filters: every option with its count in the current subset,
	// and the selected values.
	Options  []FilterOption
	Selected []string
}

// FilterOption is one choosable category value.
type FilterOption struct {
	Value    string
	Count    int
	Selected bool
}

// Chip is one active-filter chip in the page header.
type Chip struct {
	Label string
	Value string
}

// MetricView is one rendered metric card.
type MetricView struct {
	Title string
	Value string
	Help  string
	Icon  string
	Color string
}

// SectionView groups rendered charts under a heading.
type SectionView struct {
	Title  string
	Charts []ChartView
}

// ChartView is one chart slot: either a figure to plot or a notice
// explaining why there is nothing to show.
type ChartView struct {
	Title      string
	FigureJSON string
	Notice     string
}
