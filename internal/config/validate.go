package config

import (
	"fmt"
	"path/filepath"
	"regexp"
)

var pageKeyRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks structural invariants the rest of the application relies
// on: unique page keys, known filter and chart kinds, and data files kept
// relative to the data directory.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	seen := make(map[string]struct{}, len(c.Pages))
	for _, p := range c.Pages {
		if p.Key == "" {
			return fmt.Errorf("page %q: key is required", p.Title)
		}
		if !pageKeyRE.MatchString(p.Key) {
			return fmt.Errorf("page %q: key must be lowercase letters, digits, - or _", p.Key)
		}
		if _, dup := seen[p.Key]; dup {
			return fmt.Errorf("duplicate page key %q", p.Key)
		}
		seen[p.Key] = struct{}{}

		if p.DataFile == "" {
			return fmt.Errorf("page %q: data_file is required", p.Key)
		}
		if filepath.IsAbs(p.DataFile) {
			return fmt.Errorf("page %q: data_file must be relative to data_dir, got %q", p.Key, p.DataFile)
		}

		for _, f := range p.Filters {
			if f.Key == "" {
				return fmt.Errorf("page %q: filter with empty key", p.Key)
			}
			if f.Kind != FilterDate && f.Kind != FilterMulti {
				return fmt.Errorf("page %q: filter %q has unknown kind %q", p.Key, f.Key, f.Kind)
			}
		}

		for _, m := range p.Metrics {
			if m.Column == "" {
				return fmt.Errorf("page %q: metric %q needs a column", p.Key, m.Title)
			}
		}

		for _, sec := range p.Sections {
			for _, ch := range sec.Charts {
				if ch.Column == "" {
					return fmt.Errorf("page %q: chart %q needs a column", p.Key, ch.Title)
				}
				switch ch.Kind {
				case ChartPie, ChartBar, ChartGrouped, ChartNewOld, "":
				default:
					return fmt.Errorf("page %q: chart %q has unknown kind %q", p.Key, ch.Title, ch.Kind)
				}
			}
		}
	}
	return nil
}
