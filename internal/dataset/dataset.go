// Package dataset provides the in-memory tabular model that drives
// dashboard pages: ordered named columns of string cells with null masks,
// loaded once per page render and passed through pure helpers.
package dataset

import (
	"fmt"
	"strings"
)

// Dataset is an ordered collection of uniquely named, equally sized columns.
// Helpers never mutate a dataset in place; filtering and column addition
// return new values.
type Dataset struct {
	names []string
	cols  map[string]*Series
	rows  int
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{cols: make(map[string]*Series)}
}

// AddColumn appends a named column. The first column fixes the row count;
// later columns must match it. Column names must be unique.
func (d *Dataset) AddColumn(name string, s *Series) error {
	if _, ok := d.cols[name]; ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(d.names) > 0 && s.Len() != d.rows {
		return fmt.Errorf("column %q has %d rows, dataset has %d", name, s.Len(), d.rows)
	}
	if len(d.names) == 0 {
		d.rows = s.Len()
	}
	d.names = append(d.names, name)
	d.cols[name] = s
	return nil
}

// Len returns the row count. A nil dataset has zero rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Columns returns the column names in insertion order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// HasColumn reports whether name is a column of the dataset.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.cols[name]
	return ok
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Series, bool) {
	if d == nil {
		return nil, false
	}
	s, ok := d.cols[name]
	return s, ok
}

// FilterRows returns a new dataset containing only the rows where mask is
// true. Column set and order are preserved.
func (d *Dataset) FilterRows(mask []bool) *Dataset {
	out := New()
	if d == nil {
		return out
	}
	for _, name := range d.names {
		_ = out.AddColumn(name, d.cols[name].Filter(mask))
	}
	return out
}

// Select returns a new dataset restricted to the named columns, in the
// requested order. Absent names are skipped.
func (d *Dataset) Select(names ...string) *Dataset {
	out := New()
	if d == nil {
		return out
	}
	for _, name := range names {
		if s, ok := d.cols[name]; ok {
			_ = out.AddColumn(name, s)
		}
	}
	return out
}

// WithColumn returns a copy of the dataset with the named column replaced or
// appended. The column must match the dataset's row count unless the dataset
// is empty.
func (d *Dataset) WithColumn(name string, s *Series) (*Dataset, error) {
	out := New()
	if d != nil {
		for _, n := range d.names {
			if n == name {
				continue
			}
			if err := out.AddColumn(n, d.cols[n]); err != nil {
				return nil, err
			}
		}
	}
	if err := out.AddColumn(name, s); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeName canonicalizes a column name the way the loader does:
// trimmed and lowercased. Callers resolving user-supplied names should
// normalize first.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveColumns maps each logical name to the first of its candidate
// physical columns present in the dataset. Logical names with no match map
// to the empty string, so callers can branch on presence without a second
// lookup.
func ResolveColumns(d *Dataset, candidates map[string][]string) map[string]string {
	resolved := make(map[string]string, len(candidates))
	for logical, cands := range candidates {
		resolved[logical] = ""
		for _, c := range cands {
			if d.HasColumn(NormalizeName(c)) {
				resolved[logical] = NormalizeName(c)
				break
			}
		}
	}
	return resolved
}
