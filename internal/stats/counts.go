// Package stats builds the small aggregate tables that back metric cards
// and distribution charts: category counts with percentages over a filtered
// dataset.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sightline-labs/sightline/internal/dataset"
)

// Count is one category with its occurrence count.
type Count struct {
	Category string
	N        int
}

// CountRow is one row of a CountTable.
type CountRow struct {
	Category   string
	Count      int
	Percentage float64
	Label      string
}

// CountTable is a category/count/percentage table ready for charting.
type CountTable struct {
	Rows []CountRow
}

// Empty reports whether the table has no rows.
func (t CountTable) Empty() bool { return len(t.Rows) == 0 }

// Total returns the sum of all counts.
func (t CountTable) Total() int {
	total := 0
	for _, r := range t.Rows {
		total += r.Count
	}
	return total
}

// MakeCountTable turns ordered counts into a table with one-decimal
// percentages. A zero total yields an empty table, so callers can render a
// "no data" notice instead of an empty chart.
func MakeCountTable(counts []Count) CountTable {
	total := 0
	for _, c := range counts {
		if c.N > 0 {
			total += c.N
		}
	}
	if total == 0 {
		return CountTable{}
	}

	rows := make([]CountRow, 0, len(counts))
	for _, c := range counts {
		n := c.N
		if n < 0 {
			n = 0
		}
		rows = append(rows, CountRow{
			Category:   c.Category,
			Count:      n,
			Percentage: round1(float64(n) / float64(total) * 100),
		})
	}
	return CountTable{Rows: rows}
}

// AddBarLabels returns a copy of the table with "123 (45.6%)" labels.
func AddBarLabels(t CountTable) CountTable {
	out := CountTable{Rows: make([]CountRow, len(t.Rows))}
	copy(out.Rows, t.Rows)
	for i := range out.Rows {
		out.Rows[i].Label = fmt.Sprintf("%d (%.1f%%)", out.Rows[i].Count, out.Rows[i].Percentage)
	}
	return out
}

// SortByCountDesc returns a copy sorted by count descending, category
// ascending on ties, freezing the bar ordering for charts.
func SortByCountDesc(t CountTable) CountTable {
	out := CountTable{Rows: make([]CountRow, len(t.Rows))}
	copy(out.Rows, t.Rows)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		if out.Rows[i].Count != out.Rows[j].Count {
			return out.Rows[i].Count > out.Rows[j].Count
		}
		return out.Rows[i].Category < out.Rows[j].Category
	})
	return out
}

// CategoryCounts counts a column over the present subset while preserving
// every category seen in the full series, zero-filled. Categories listed in
// drop or exclude are removed from both sides.
func CategoryCounts(all, present *dataset.Series, drop, exclude []string) []Count {
	if all.NonNullCount() == 0 || present.Len() == 0 {
		return nil
	}

	removed := make(map[string]struct{}, len(drop)+len(exclude))
	for _, v := range drop {
		removed[v] = struct{}{}
	}
	for _, v := range exclude {
		removed[v] = struct{}{}
	}

	presentCounts := present.ValueCounts()

	var out []Count
	for _, cat := range all.Unique() {
		if _, skip := removed[cat]; skip {
			continue
		}
		out = append(out, Count{Category: cat, N: presentCounts[cat]})
	}
	return out
}

// CleanCategories drops blanks and "nan" placeholder cells, returning the
// remaining values as a shorter series.
func CleanCategories(s *dataset.Series) *dataset.Series {
	trimmed := s.Map(func(v string) (string, bool) {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "nan") {
			return "", false
		}
		return v, true
	})

	mask := make([]bool, trimmed.Len())
	for i := range mask {
		mask[i] = !trimmed.IsNull(i)
	}
	return trimmed.Filter(mask)
}

// doneTokens are the affirmative cell values IsDone accepts.
var doneTokens = map[string]struct{}{
	"yes":  {},
	"y":    {},
	"true": {},
	"1":    {},
}

// IsDone interprets a free-text completion cell as a boolean.
func IsDone(cell string) bool {
	_, ok := doneTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// CountDone returns the number of cells IsDone accepts.
func CountDone(s *dataset.Series) int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) && IsDone(s.Value(i)) {
			n++
		}
	}
	return n
}

var sexAliases = map[string]string{
	"m":      "Male",
	"male":   "Male",
	"man":    "Male",
	"boy":    "Male",
	"f":      "Female",
	"female": "Female",
	"woman":  "Female",
	"girl":   "Female",
}

// NormalizeSex maps noisy sex entries to "Male"/"Female"; anything else
// becomes null.
func NormalizeSex(s *dataset.Series) *dataset.Series {
	return s.Map(func(v string) (string, bool) {
		canonical, ok := sexAliases[strings.ToLower(strings.TrimSpace(v))]
		return canonical, ok
	})
}

// NormalizeNewOld maps noisy new/old case entries to "New"/"Old", falling
// back to title case for anything else.
func NormalizeNewOld(s *dataset.Series) *dataset.Series {
	return s.Map(func(v string) (string, bool) {
		lower := strings.ToLower(strings.TrimSpace(v))
		switch {
		case strings.Contains(lower, "new"):
			return "New", true
		case strings.Contains(lower, "old"):
			return "Old", true
		case lower == "":
			return "", false
		default:
			return titleCase(lower), true
		}
	})
}

func titleCase(v string) string {
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
