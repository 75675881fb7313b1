package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetAddColumn(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("a", NewSeries([]string{"1", "2"})))
	require.NoError(t, d.AddColumn("b", NewSeries([]string{"x", "y"})))

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"a", "b"}, d.Columns())

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := d.AddColumn("a", NewSeries([]string{"3", "4"}))
		assert.ErrorContains(t, err, "duplicate column")
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		err := d.AddColumn("c", NewSeries([]string{"only one"}))
		assert.ErrorContains(t, err, "rows")
	})
}

func TestDatasetNilSafety(t *testing.T) {
	var d *Dataset
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.HasColumn("a"))
	assert.Nil(t, d.Columns())

	_, ok := d.Column("a")
	assert.False(t, ok)

	assert.Equal(t, 0, d.FilterRows([]bool{true}).Len())
	assert.Equal(t, 0, d.Select("a").Len())
}

func TestDatasetFilterRows(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("name", NewSeries([]string{"amy", "ben", "cal"})))
	require.NoError(t, d.AddColumn("age", NewSeries([]string{"9", "10", "11"})))

	f := d.FilterRows([]bool{true, false, true})
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"name", "age"}, f.Columns())

	name, ok := f.Column("name")
	require.True(t, ok)
	assert.Equal(t, "amy", name.Value(0))
	assert.Equal(t, "cal", name.Value(1))

	// Original untouched.
	assert.Equal(t, 3, d.Len())
}

func TestDatasetSelect(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("a", NewSeries([]string{"1"})))
	require.NoError(t, d.AddColumn("b", NewSeries([]string{"2"})))
	require.NoError(t, d.AddColumn("c", NewSeries([]string{"3"})))

	s := d.Select("c", "missing", "a")
	assert.Equal(t, []string{"c", "a"}, s.Columns())
}

func TestDatasetWithColumn(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("a", NewSeries([]string{"1", "2"})))

	d2, err := d.WithColumn("b", NewSeries([]string{"x", "y"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, d2.Columns())
	assert.Equal(t, []string{"a"}, d.Columns())

	d3, err := d2.WithColumn("a", NewSeries([]string{"9", "8"}))
	require.NoError(t, err)
	a, ok := d3.Column("a")
	require.True(t, ok)
	assert.Equal(t, "9", a.Value(0))

	_, err = d.WithColumn("short", NewSeries([]string{"1"}))
	assert.Error(t, err)
}

func TestResolveColumns(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("screendate", NewSeries([]string{"2024-01-01"})))
	require.NoError(t, d.AddColumn("sex", NewSeries([]string{"m"})))

	resolved := ResolveColumns(d, map[string][]string{
		"date":   {"visitdate", "screendate", "date"},
		"sex":    {"sex"},
		"school": {"school", "schoolcode"},
	})

	assert.Equal(t, "screendate", resolved["date"])
	assert.Equal(t, "sex", resolved["sex"])
	assert.Equal(t, "", resolved["school"])
}

func TestResolveColumnsNormalizesCandidates(t *testing.T) {
	d := New()
	require.NoError(t, d.AddColumn("screen attend", NewSeries([]string{"present"})))

	resolved := ResolveColumns(d, map[string][]string{
		"attend": {" Screen Attend "},
	})
	assert.Equal(t, "screen attend", resolved["attend"])
}

func TestNormalizeNames(t *testing.T) {
	got := normalizeNames([]string{" Date ", "SEX", "sex", "", "sex"})
	assert.Equal(t, []string{"date", "sex", "sex_2", "column", "sex_3"}, got)
}
