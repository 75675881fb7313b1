// Package config provides Sightline's project configuration: where the
// data files live, how the server runs, and the declarative page
// definitions that drive every dashboard.
package config

// Config is the full application configuration.
type Config struct {
	// DataDir is the directory holding the page data files. Page data
	// files are always resolved relative to it; absolute per-file paths
	// are rejected at validation time.
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// StatePath is the SQLite database recording uploads and renders.
	StatePath string `koanf:"state_path" yaml:"state_path"`

	Listen  ListenConfig `koanf:"listen" yaml:"listen"`
	Upload  UploadConfig `koanf:"upload" yaml:"upload"`
	Brand   BrandConfig  `koanf:"brand" yaml:"brand"`
	Verbose bool         `koanf:"verbose" yaml:"verbose,omitempty"`

	Pages []PageSpec `koanf:"pages" yaml:"pages"`
}

// ListenConfig holds the web server settings.
type ListenConfig struct {
	Port          int    `koanf:"port" yaml:"port"`
	SessionSecret string `koanf:"session_secret" yaml:"session_secret,omitempty"`
	Watch         bool   `koanf:"watch" yaml:"watch"`
}

// UploadConfig gates the data upload endpoint.
type UploadConfig struct {
	// Password must be presented with every upload. Empty disables
	// uploading entirely.
	Password string `koanf:"password" yaml:"password,omitempty"`
	// Keep is how many timestamped backups of a replaced file to retain.
	Keep int `koanf:"keep" yaml:"keep"`
}

// BrandConfig holds presentation settings shared by all pages.
type BrandConfig struct {
	Title string   `koanf:"title" yaml:"title"`
	Color string   `koanf:"color" yaml:"color"`
	Theme []string `koanf:"theme" yaml:"theme,omitempty"`
}

// PageSpec declares one dashboard page: its data file, how logical column
// names resolve to physical ones, and which filters, metric cards, and
// chart sections to render.
type PageSpec struct {
	Key      string `koanf:"key" yaml:"key"`
	Title    string `koanf:"title" yaml:"title"`
	Subtitle string `koanf:"subtitle" yaml:"subtitle,omitempty"`
	Icon     string `koanf:"icon" yaml:"icon,omitempty"`
	DataFile string `koanf:"data_file" yaml:"data_file"`

	// DateKey names the logical date column. Its parseable cells are
	// coerced on load to report the page's data coverage span.
	DateKey string `koanf:"date_key" yaml:"date_key,omitempty"`

	// Candidates maps logical column names to physical candidates, first
	// match wins.
	Candidates map[string][]string `koanf:"candidates" yaml:"candidates,omitempty"`

	Filters  []FilterSpec  `koanf:"filters" yaml:"filters,omitempty"`
	Metrics  []MetricSpec  `koanf:"metrics" yaml:"metrics,omitempty"`
	Sections []SectionSpec `koanf:"sections" yaml:"sections,omitempty"`

	// PresentColumn and PresentValue narrow the dataset to examined
	// records for chart sections (e.g. screen_attend == present). Both
	// use logical names/normalized values; empty means no narrowing.
	PresentColumn string `koanf:"present_column" yaml:"present_column,omitempty"`
	PresentValue  string `koanf:"present_value" yaml:"present_value,omitempty"`
}

// Filter kinds.
const (
	FilterDate  = "date"
	FilterMulti = "multi"
)

// FilterSpec declares one sidebar filter over a logical column.
type FilterSpec struct {
	Key   string `koanf:"key" yaml:"key"`
	Label string `koanf:"label" yaml:"label"`
	Kind  string `koanf:"kind" yaml:"kind"`
}

// MetricSpec declares one metric card. Column is a logical name counted
// with the yes/y/true/1 rule; BaseColumn, when set, turns the value into
// "count (pct of base)".
type MetricSpec struct {
	Title      string `koanf:"title" yaml:"title"`
	Column     string `koanf:"column" yaml:"column"`
	BaseColumn string `koanf:"base_column" yaml:"base_column,omitempty"`
	Icon       string `koanf:"icon" yaml:"icon,omitempty"`
	Color      string `koanf:"color" yaml:"color,omitempty"`
}

// Chart kinds.
const (
	ChartPie     = "pie"
	ChartBar     = "bar"
	ChartGrouped = "grouped"
	ChartNewOld  = "new_old"
)

// ChartSpec declares one distribution chart over a logical column. Grouped
// and new_old charts additionally split by the page's "sex" logical column;
// new_old also normalizes the category to New/Old.
type ChartSpec struct {
	Title  string `koanf:"title" yaml:"title"`
	Column string `koanf:"column" yaml:"column"`
	Kind   string `koanf:"kind" yaml:"kind"`

	// Drop and Exclude remove categories before counting.
	Drop    []string `koanf:"drop" yaml:"drop,omitempty"`
	Exclude []string `koanf:"exclude" yaml:"exclude,omitempty"`
}

// SectionSpec groups charts under one heading.
type SectionSpec struct {
	Title  string      `koanf:"title" yaml:"title"`
	Charts []ChartSpec `koanf:"charts" yaml:"charts"`
}

// Page returns the page with the given key.
func (c *Config) Page(key string) (PageSpec, bool) {
	for _, p := range c.Pages {
		if p.Key == key {
			return p, true
		}
	}
	return PageSpec{}, false
}

// RequiredColumns collects the logical columns a page cannot render
// without: the metric columns and every chart column. Filters and optional
// extras are guarded at render time instead.
func (p PageSpec) RequiredColumns() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, m := range p.Metrics {
		add(m.Column)
		add(m.BaseColumn)
	}
	for _, sec := range p.Sections {
		for _, ch := range sec.Charts {
			add(ch.Column)
		}
	}
	add(p.PresentColumn)
	return out
}
