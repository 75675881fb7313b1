package charts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-labs/sightline/internal/dataset"
	"github.com/sightline-labs/sightline/internal/stats"
)

func TestPie(t *testing.T) {
	b := NewBuilder(nil)
	table := stats.MakeCountTable([]stats.Count{{Category: "Male", N: 3}, {Category: "Female", N: 1}})

	fig := b.Pie(table, "Gender Distribution")
	require.Len(t, fig.Data, 1)

	trace := fig.Data[0]
	assert.Equal(t, "pie", trace.Type)
	assert.Equal(t, []string{"Male", "Female"}, trace.Labels)
	assert.Equal(t, []int{3, 1}, trace.Values)
	assert.Equal(t, []string{"3 (75.0%)", "1 (25.0%)"}, trace.Text)
	assert.Equal(t, "outside", trace.TextPosition)
	require.NotNil(t, trace.Marker)
	assert.Equal(t, DefaultTheme[:2], trace.Marker.Colors)

	assert.Equal(t, "Gender Distribution", fig.Layout.Title)
	assert.Equal(t, transparent, fig.Layout.PaperBGColor)
}

func TestPiePullsTinySlices(t *testing.T) {
	b := NewBuilder(nil)
	table := stats.MakeCountTable([]stats.Count{{Category: "big", N: 999}, {Category: "tiny", N: 1}})

	fig := b.Pie(table, "")
	require.Len(t, fig.Data[0].Pull, 2)
	assert.Equal(t, 0.0, fig.Data[0].Pull[0])
	assert.Equal(t, 0.02, fig.Data[0].Pull[1])
}

func TestBar(t *testing.T) {
	b := NewBuilder(nil)
	table := stats.MakeCountTable([]stats.Count{{Category: "clinic", N: 1}, {Category: "camp", N: 4}})

	fig := b.Bar(table, "Referrals")
	require.Len(t, fig.Data, 1)

	trace := fig.Data[0]
	assert.Equal(t, "bar", trace.Type)
	assert.Equal(t, "h", trace.Orientation)
	// Sorted by count descending.
	assert.Equal(t, []any{4, 1}, trace.X)
	assert.Equal(t, []any{"camp", "clinic"}, trace.Y)
	assert.Equal(t, []string{"4 (80.0%)", "1 (20.0%)"}, trace.Text)

	// Headroom above the largest bar.
	require.NotNil(t, fig.Layout.XAxis)
	require.Len(t, fig.Layout.XAxis.Range, 2)
	assert.Equal(t, 0.0, fig.Layout.XAxis.Range[0])
	assert.Equal(t, 9.0, fig.Layout.XAxis.Range[1])
}

func groupedFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	d := dataset.New()
	require.NoError(t, d.AddColumn("status", dataset.NewSeries([]string{"new", "New case", "old", "old", "new"})))
	require.NoError(t, d.AddColumn("sex", dataset.NewSeries([]string{"m", "f", "m", "boy", "unknown"})))
	return d
}

func TestGroupedByCategoryAndSex(t *testing.T) {
	b := NewBuilder(nil)
	fig := b.GroupedNewOldBySex(groupedFixture(t), "status", "sex", "New/Old by Sex")

	require.Len(t, fig.Data, 2)
	male, female := fig.Data[0], fig.Data[1]
	assert.Equal(t, "Male", male.Name)
	assert.Equal(t, "Female", female.Name)

	// Category order fixed to New, Old; the unknown-sex row is dropped.
	assert.Equal(t, []any{"New", "Old"}, male.X)
	assert.Equal(t, []any{1, 2}, male.Y)
	assert.Equal(t, []any{1, 0}, female.Y)

	assert.Equal(t, "group", fig.Layout.BarMode)
	require.NotNil(t, fig.Layout.XAxis)
	assert.Equal(t, []string{"New", "Old"}, fig.Layout.XAxis.CategoryArray)
}

func TestGroupedMissingColumns(t *testing.T) {
	b := NewBuilder(nil)
	d := dataset.New()
	require.NoError(t, d.AddColumn("status", dataset.NewSeries([]string{"new"})))

	fig := b.GroupedByCategoryAndSex(d, "status", "sex", GroupedOptions{Title: "t"})
	require.Len(t, fig.Data, 1)
	assert.Empty(t, fig.Data[0].X)
}

func TestFigureJSON(t *testing.T) {
	b := NewBuilder([]string{"#111111"})
	table := stats.MakeCountTable([]stats.Count{{Category: "a", N: 1}})

	out, err := b.Pie(table, "T").JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "layout")
}

func TestDefaultCategoryNormalize(t *testing.T) {
	s := dataset.NewSeries([]string{" eye camp ", "FOLLOW-UP", ""})
	n := defaultCategoryNormalize(s)
	assert.Equal(t, "Eye Camp", n.Value(0))
	assert.Equal(t, "Follow-Up", n.Value(1))
	assert.True(t, n.IsNull(2))
}
