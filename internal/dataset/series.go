package dataset

import (
	"sort"
	"strings"
	"time"
)

// Series is a single named-less column: string cells plus a null mask.
// All values arrive as text (the loader reads files with every column as
// varchar); coercion to dates or numbers happens downstream.
type Series struct {
	vals []string
	null []bool
}

// NewSeries creates a series where every cell is non-null.
func NewSeries(vals []string) *Series {
	return &Series{
		vals: append([]string(nil), vals...),
		null: make([]bool, len(vals)),
	}
}

// NewNullableSeries creates a series with an explicit null mask.
// The mask must be the same length as vals.
func NewNullableSeries(vals []string, null []bool) *Series {
	s := &Series{
		vals: append([]string(nil), vals...),
		null: append([]bool(nil), null...),
	}
	if len(s.null) != len(s.vals) {
		mask := make([]bool, len(s.vals))
		copy(mask, s.null)
		s.null = mask
	}
	return s
}

// Repeat creates a series of n copies of val.
func Repeat(val string, n int) *Series {
	if n < 0 {
		n = 0
	}
	vals := make([]string, n)
	for i := range vals {
		vals[i] = val
	}
	return &Series{vals: vals, null: make([]bool, n)}
}

// Len returns the number of cells, including nulls.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.vals)
}

// IsNull reports whether cell i is null.
func (s *Series) IsNull(i int) bool {
	return s == nil || i < 0 || i >= len(s.vals) || s.null[i]
}

// Value returns cell i, or "" when the cell is null or out of range.
func (s *Series) Value(i int) string {
	if s.IsNull(i) {
		return ""
	}
	return s.vals[i]
}

// NonNullCount returns the number of non-null cells.
func (s *Series) NonNullCount() int {
	n := 0
	for i := range s.vals {
		if !s.null[i] {
			n++
		}
	}
	return n
}

// Norm returns a copy with every cell trimmed and lowercased.
// Null cells stay null.
func (s *Series) Norm() *Series {
	if s == nil {
		return nil
	}
	out := &Series{
		vals: make([]string, len(s.vals)),
		null: append([]bool(nil), s.null...),
	}
	for i, v := range s.vals {
		if !s.null[i] {
			out.vals[i] = strings.ToLower(strings.TrimSpace(v))
		}
	}
	return out
}

// EqualMask returns a row mask selecting cells equal to v. Null cells are
// never selected.
func (s *Series) EqualMask(v string) []bool {
	mask := make([]bool, s.Len())
	for i := range mask {
		mask[i] = !s.IsNull(i) && s.vals[i] == v
	}
	return mask
}

// InMask returns a row mask selecting cells whose value is in set.
func (s *Series) InMask(set ...string) []bool {
	members := make(map[string]struct{}, len(set))
	for _, v := range set {
		members[v] = struct{}{}
	}
	mask := make([]bool, s.Len())
	for i := range mask {
		if s.IsNull(i) {
			continue
		}
		_, ok := members[s.vals[i]]
		mask[i] = ok
	}
	return mask
}

// Filter returns a new series containing only the cells where mask is true.
// A short mask selects nothing past its end.
func (s *Series) Filter(mask []bool) *Series {
	out := &Series{}
	if s == nil {
		return out
	}
	for i := range s.vals {
		if i < len(mask) && mask[i] {
			out.vals = append(out.vals, s.vals[i])
			out.null = append(out.null, s.null[i])
		}
	}
	return out
}

// Unique returns the sorted distinct non-null values.
func (s *Series) Unique() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for i, v := range s.vals {
		if s.null[i] {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ValueCounts returns the number of occurrences of each non-null value.
func (s *Series) ValueCounts() map[string]int {
	counts := make(map[string]int)
	if s == nil {
		return counts
	}
	for i, v := range s.vals {
		if !s.null[i] {
			counts[v]++
		}
	}
	return counts
}

// Map returns a copy with fn applied to every non-null cell. When fn reports
// ok=false the cell becomes null.
func (s *Series) Map(fn func(string) (string, bool)) *Series {
	if s == nil {
		return nil
	}
	out := &Series{
		vals: make([]string, len(s.vals)),
		null: append([]bool(nil), s.null...),
	}
	for i, v := range s.vals {
		if s.null[i] {
			continue
		}
		nv, ok := fn(v)
		if !ok {
			out.null[i] = true
			continue
		}
		out.vals[i] = nv
	}
	return out
}

// TimeSeries is a column of timestamps with a null mask, produced by the
// guard package's safe date coercion.
type TimeSeries struct {
	times []time.Time
	null  []bool
}

// NewTimeSeries creates a time series from parallel value and null slices.
func NewTimeSeries(times []time.Time, null []bool) *TimeSeries {
	ts := &TimeSeries{
		times: append([]time.Time(nil), times...),
		null:  append([]bool(nil), null...),
	}
	if len(ts.null) != len(ts.times) {
		mask := make([]bool, len(ts.times))
		copy(mask, ts.null)
		ts.null = mask
	}
	return ts
}

// Len returns the number of cells, including nulls.
func (t *TimeSeries) Len() int {
	if t == nil {
		return 0
	}
	return len(t.times)
}

// IsNull reports whether cell i is null.
func (t *TimeSeries) IsNull(i int) bool {
	return t == nil || i < 0 || i >= len(t.times) || t.null[i]
}

// Time returns cell i; the zero time when null or out of range.
func (t *TimeSeries) Time(i int) time.Time {
	if t.IsNull(i) {
		return time.Time{}
	}
	return t.times[i]
}

// Min returns the earliest non-null timestamp.
func (t *TimeSeries) Min() (time.Time, bool) {
	var min time.Time
	found := false
	for i := range t.times {
		if t.null[i] {
			continue
		}
		if !found || t.times[i].Before(min) {
			min = t.times[i]
			found = true
		}
	}
	return min, found
}

// Max returns the latest non-null timestamp.
func (t *TimeSeries) Max() (time.Time, bool) {
	var max time.Time
	found := false
	for i := range t.times {
		if t.null[i] {
			continue
		}
		if !found || t.times[i].After(max) {
			max = t.times[i]
			found = true
		}
	}
	return max, found
}

// BetweenMask returns a row mask selecting cells within [from, to],
// inclusive of both endpoints at day granularity. Null cells are excluded.
func (t *TimeSeries) BetweenMask(from, to time.Time) []bool {
	// Normalize to whole days so a filter on 2024-01-02 includes
	// timestamps later that day.
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)

	mask := make([]bool, t.Len())
	for i := range mask {
		if t.IsNull(i) {
			continue
		}
		v := t.times[i]
		mask[i] = !v.Before(start) && v.Before(end)
	}
	return mask
}
