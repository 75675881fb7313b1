// Package charts turns count tables and categorical columns into
// Plotly-compatible figures for the dashboard pages.
package charts

import (
	"fmt"
	"sort"

	"github.com/sightline-labs/sightline/internal/dataset"
	"github.com/sightline-labs/sightline/internal/stats"
)

// DefaultTheme is the five-color categorical palette.
var DefaultTheme = []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6"}

const transparent = "rgba(0,0,0,0)"

// minSlicePercentForLabel pulls tiny pie slices out so their outside label
// stays readable.
const minSlicePercentForLabel = 0.7

// Builder produces figures with a consistent color theme.
type Builder struct {
	theme []string
}

// NewBuilder creates a Builder; a nil or empty theme falls back to
// DefaultTheme.
func NewBuilder(theme []string) *Builder {
	if len(theme) == 0 {
		theme = DefaultTheme
	}
	return &Builder{theme: theme}
}

func (b *Builder) color(i int) string {
	return b.theme[i%len(b.theme)]
}

// Pie builds a pie chart from a count table with outside "N (p%)" labels.
func (b *Builder) Pie(t stats.CountTable, title string) Figure {
	labels := make([]string, 0, len(t.Rows))
	values := make([]int, 0, len(t.Rows))
	text := make([]string, 0, len(t.Rows))
	pull := make([]float64, 0, len(t.Rows))
	colors := make([]string, 0, len(t.Rows))

	for i, r := range t.Rows {
		labels = append(labels, r.Category)
		values = append(values, r.Count)
		text = append(text, fmt.Sprintf("%d (%.1f%%)", r.Count, r.Percentage))
		if r.Percentage < minSlicePercentForLabel {
			pull = append(pull, 0.02)
		} else {
			pull = append(pull, 0)
		}
		colors = append(colors, b.color(i))
	}

	return Figure{
		Data: []Trace{{
			Type:          "pie",
			Labels:        labels,
			Values:        values,
			Text:          text,
			TextInfo:      "text",
			TextPosition:  "outside",
			HoverTemplate: "<b>%{label}</b><br>Count: %{value}<br>Percent: %{percent}<extra></extra>",
			AutoMargin:    true,
			Pull:          pull,
			Marker:        &Marker{Colors: colors},
		}},
		Layout: Layout{
			Title:        title,
			ShowLegend:   boolPtr(true),
			Legend:       &Legend{Orientation: "h", Y: -0.12, X: 0.5, XAnchor: "center"},
			PaperBGColor: transparent,
			PlotBGColor:  transparent,
			Margin:       &Margin{T: 30, B: 60, L: 40, R: 40},
			Height:       420,
		},
	}
}

// Bar builds a horizontal bar chart, largest count first, with headroom on
// the value axis so outside labels are not clipped.
func (b *Builder) Bar(t stats.CountTable, title string) Figure {
	sorted := stats.AddBarLabels(stats.SortByCountDesc(t))

	x := make([]any, 0, len(sorted.Rows))
	y := make([]any, 0, len(sorted.Rows))
	text := make([]string, 0, len(sorted.Rows))
	categories := make([]string, 0, len(sorted.Rows))

	maxCount := 0
	for _, r := range sorted.Rows {
		x = append(x, r.Count)
		y = append(y, r.Category)
		text = append(text, r.Label)
		categories = append(categories, r.Category)
		if r.Count > maxCount {
			maxCount = r.Count
		}
	}

	return Figure{
		Data: []Trace{{
			Type:         "bar",
			Orientation:  "h",
			X:            x,
			Y:            y,
			Text:         text,
			TextPosition: "outside",
			CliponAxis:   boolPtr(false),
			Marker:       &Marker{Color: b.color(0)},
		}},
		Layout: Layout{
			Title:      title,
			ShowLegend: boolPtr(false),
			XAxis: &Axis{
				Range:      []float64{0, float64(maxCount + headroom(maxCount))},
				ShowGrid:   boolPtr(false),
				ZeroLine:   boolPtr(false),
				AutoMargin: true,
			},
			YAxis: &Axis{
				ShowGrid:      boolPtr(false),
				ZeroLine:      boolPtr(false),
				AutoMargin:    true,
				CategoryOrder: "array",
				// Reverse so the largest bar renders on top.
				CategoryArray: reverse(categories),
			},
			PaperBGColor: transparent,
			PlotBGColor:  transparent,
			Margin:       &Margin{T: 60, B: 60, L: 60, R: 60},
			Height:       420,
		},
	}
}

// GroupedOptions tunes GroupedByCategoryAndSex.
type GroupedOptions struct {
	Title string
	// Normalize rewrites the category column before grouping; nil means
	// trim + title case.
	Normalize func(*dataset.Series) *dataset.Series
	// CategoryOrder fixes the category axis order; nil means sorted.
	CategoryOrder []string
	Height        int
}

// sexOrder fixes the grouped legend/series ordering.
var sexOrder = []string{"Male", "Female"}

// GroupedByCategoryAndSex builds grouped vertical bars of a category column
// split by normalized sex. Rows where either side is null are dropped.
func (b *Builder) GroupedByCategoryAndSex(d *dataset.Dataset, categoryCol, sexCol string, opts GroupedOptions) Figure {
	height := opts.Height
	if height == 0 {
		height = 420
	}

	catSeries, okCat := d.Column(categoryCol)
	sexSeries, okSex := d.Column(sexCol)
	if !okCat || !okSex {
		return b.emptyGrouped(opts.Title, height)
	}

	if opts.Normalize != nil {
		catSeries = opts.Normalize(catSeries)
	} else {
		catSeries = defaultCategoryNormalize(catSeries)
	}
	sexNorm := stats.NormalizeSex(sexSeries)

	// Count (category, sex) pairs over rows where both are present.
	type key struct{ cat, sex string }
	counts := make(map[key]int)
	catSet := make(map[string]struct{})
	for i := 0; i < catSeries.Len(); i++ {
		if catSeries.IsNull(i) || sexNorm.IsNull(i) {
			continue
		}
		k := key{cat: catSeries.Value(i), sex: sexNorm.Value(i)}
		counts[k]++
		catSet[k.cat] = struct{}{}
	}
	if len(counts) == 0 {
		return b.emptyGrouped(opts.Title, height)
	}

	categories := opts.CategoryOrder
	if categories == nil {
		for cat := range catSet {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
	}

	maxCount := 0
	traces := make([]Trace, 0, len(sexOrder))
	for si, sex := range sexOrder {
		x := make([]any, 0, len(categories))
		y := make([]any, 0, len(categories))
		text := make([]string, 0, len(categories))
		for _, cat := range categories {
			n := counts[key{cat: cat, sex: sex}]
			x = append(x, cat)
			y = append(y, n)
			text = append(text, fmt.Sprintf("%d", n))
			if n > maxCount {
				maxCount = n
			}
		}
		traces = append(traces, Trace{
			Type:         "bar",
			Name:         sex,
			X:            x,
			Y:            y,
			Text:         text,
			TextPosition: "outside",
			CliponAxis:   boolPtr(false),
			Marker:       &Marker{Color: b.color(si)},
		})
	}

	return Figure{
		Data: traces,
		Layout: Layout{
			Title:       opts.Title,
			BarMode:     "group",
			BarGap:      0.2,
			BarGroupGap: 0.1,
			Legend:      &Legend{Orientation: "h", Y: -0.15, X: 0.5, XAnchor: "center"},
			XAxis: &Axis{
				ShowGrid:      boolPtr(false),
				ZeroLine:      boolPtr(false),
				CategoryOrder: "array",
				CategoryArray: categories,
			},
			YAxis: &Axis{
				Range:    []float64{0, float64(maxCount + headroom(maxCount))},
				ShowGrid: boolPtr(false),
				ZeroLine: boolPtr(false),
			},
			PaperBGColor: transparent,
			PlotBGColor:  transparent,
			Margin:       &Margin{T: 60, B: 60, L: 40, R: 60},
			Height:       height,
		},
	}
}

// GroupedNewOldBySex is the legacy new/old-by-sex chart with its category
// normalizer and fixed ordering baked in.
func (b *Builder) GroupedNewOldBySex(d *dataset.Dataset, newOldCol, sexCol, title string) Figure {
	return b.GroupedByCategoryAndSex(d, newOldCol, sexCol, GroupedOptions{
		Title:         title,
		Normalize:     stats.NormalizeNewOld,
		CategoryOrder: []string{"New", "Old"},
	})
}

func (b *Builder) emptyGrouped(title string, height int) Figure {
	return Figure{
		Data: []Trace{{Type: "bar"}},
		Layout: Layout{
			Title:        title,
			PaperBGColor: transparent,
			PlotBGColor:  transparent,
			Height:       height,
		},
	}
}

func defaultCategoryNormalize(s *dataset.Series) *dataset.Series {
	trimmed := s.Norm()
	return trimmed.Map(func(v string) (string, bool) {
		if v == "" {
			return "", false
		}
		return titleWords(v), true
	})
}

func titleWords(v string) string {
	out := []rune(v)
	upper := true
	for i, r := range out {
		if upper && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
		upper = r == ' ' || r == '-' || r == '_'
	}
	return string(out)
}

// headroom leaves room above the tallest bar for outside labels.
func headroom(max int) int {
	h := max / 5
	if h < 5 {
		h = 5
	}
	return h
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
