// Package guard shields page-rendering code from missing columns, bad date
// formats, and absent optional series. It is the single shared home for
// this logic; pages must not grow their own copies.
//
// Only NeedColumns can fail. The remaining helpers are total: they always
// return a usable value so rendering can proceed gracefully with partial
// data.
package guard

import (
	"fmt"
	"strings"
	"time"

	"github.com/sightline-labs/sightline/internal/dataset"
)

// MissingColumnsError reports the required columns absent from a dataset.
// Callers are expected to show a notice and skip the dependent section
// rather than fail the whole page.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// NeedColumns verifies that every name is a column of d. It returns a
// *MissingColumnsError naming exactly the absent columns, in the caller's
// order, or nil when all are present. It is the sole validation gate; call
// it before any operation that would otherwise fail obscurely.
func NeedColumns(d *dataset.Dataset, names ...string) error {
	var missing []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if d.HasColumn(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// HaveColumns returns the subset of names present in d, preserving the
// caller's order. It never fails; use it to branch rendering on optional
// columns.
func HaveColumns(d *dataset.Dataset, names ...string) []string {
	present := make([]string, 0, len(names))
	for _, name := range names {
		if d.HasColumn(name) {
			present = append(present, name)
		}
	}
	return present
}

// HasColumns reports whether every name is present in d.
func HasColumns(d *dataset.Dataset, names ...string) bool {
	return len(HaveColumns(d, names...)) == len(names)
}

// SafeSeries returns the named column when present, otherwise a column of
// def repeated to the dataset's row count. It never fails.
func SafeSeries(d *dataset.Dataset, name, def string) *dataset.Series {
	if s, ok := d.Column(name); ok {
		return s
	}
	return dataset.Repeat(def, d.Len())
}

// timeLayouts are tried in order when coercing cells to timestamps.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-01-2006",
	"01/02/2006",
	"2/1/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// nullTokens are cell values treated as already-missing before parsing.
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// ParseTimeSafe coerces a column of heterogeneous values to timestamps.
// Unparseable or missing cells become null entries; a single bad row never
// fails the call. The result always has the same length as the input.
func ParseTimeSafe(s *dataset.Series) *dataset.TimeSeries {
	n := s.Len()
	times := make([]time.Time, n)
	null := make([]bool, n)

	for i := 0; i < n; i++ {
		if s.IsNull(i) {
			null[i] = true
			continue
		}
		t, ok := parseTime(s.Value(i))
		if !ok {
			null[i] = true
			continue
		}
		times[i] = t
	}
	return dataset.NewTimeSeries(times, null)
}

func parseTime(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if _, missing := nullTokens[strings.ToLower(cell)]; missing {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
