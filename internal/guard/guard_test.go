package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-labs/sightline/internal/dataset"
)

func buildDataset(t *testing.T, cols map[string][]string, order ...string) *dataset.Dataset {
	t.Helper()
	d := dataset.New()
	for _, name := range order {
		require.NoError(t, d.AddColumn(name, dataset.NewSeries(cols[name])))
	}
	return d
}

func TestNeedColumns(t *testing.T) {
	d := buildDataset(t, map[string][]string{
		"a": {"1", "2"},
		"b": {"x", "y"},
	}, "a", "b")

	tests := []struct {
		name        string
		names       []string
		wantMissing []string
	}{
		{name: "all present", names: []string{"a", "b"}},
		{name: "empty requirement", names: nil},
		{name: "one absent", names: []string{"a", "c"}, wantMissing: []string{"c"}},
		{name: "all absent", names: []string{"c", "d"}, wantMissing: []string{"c", "d"}},
		{name: "duplicate absent reported once", names: []string{"c", "c"}, wantMissing: []string{"c"}},
		{name: "order preserved", names: []string{"z", "a", "c"}, wantMissing: []string{"z", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NeedColumns(d, tt.names...)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			var missing *MissingColumnsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.wantMissing, missing.Columns)
			for _, name := range tt.wantMissing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestNeedColumnsNilDataset(t *testing.T) {
	err := NeedColumns(nil, "a")
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"a"}, missing.Columns)
}

func TestHaveColumns(t *testing.T) {
	d := buildDataset(t, map[string][]string{
		"date": {"2024-01-01"},
		"sex":  {"m"},
		"age":  {"9"},
	}, "date", "sex", "age")

	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{name: "all present keeps caller order", names: []string{"age", "date"}, want: []string{"age", "date"}},
		{name: "subset of request", names: []string{"sex", "school", "date"}, want: []string{"sex", "date"}},
		{name: "none present", names: []string{"x", "y"}, want: []string{}},
		{name: "empty request", names: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaveColumns(d, tt.names...)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("nil dataset", func(t *testing.T) {
		assert.Empty(t, HaveColumns(nil, "a", "b"))
	})
}

func TestHasColumns(t *testing.T) {
	d := buildDataset(t, map[string][]string{"a": {"1"}, "b": {"2"}}, "a", "b")

	assert.True(t, HasColumns(d, "a", "b"))
	assert.True(t, HasColumns(d))
	assert.False(t, HasColumns(d, "a", "c"))
	assert.False(t, HasColumns(nil, "a"))
}

func TestSafeSeries(t *testing.T) {
	d := buildDataset(t, map[string][]string{
		"status": {"yes", "no", "yes"},
	}, "status")

	t.Run("present column returned as-is", func(t *testing.T) {
		s := SafeSeries(d, "status", "unknown")
		require.Equal(t, 3, s.Len())
		assert.Equal(t, "yes", s.Value(0))
		assert.Equal(t, "no", s.Value(1))
	})

	t.Run("absent column repeats default to row count", func(t *testing.T) {
		s := SafeSeries(d, "missing", "unknown")
		require.Equal(t, d.Len(), s.Len())
		for i := 0; i < s.Len(); i++ {
			assert.Equal(t, "unknown", s.Value(i))
			assert.False(t, s.IsNull(i))
		}
	})

	t.Run("nil dataset yields empty series", func(t *testing.T) {
		s := SafeSeries(nil, "anything", "x")
		assert.Equal(t, 0, s.Len())
	})
}

func TestParseTimeSafe(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		wantNull bool
		want     time.Time
	}{
		{name: "iso date", cell: "2024-01-01", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "iso datetime", cell: "2024-03-15 10:30:00", want: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{name: "dmy dashes", cell: "15-03-2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "whitespace trimmed", cell: "  2024-01-01  ", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", cell: "bad", wantNull: true},
		{name: "empty", cell: "", wantNull: true},
		{name: "nan token", cell: "NaN", wantNull: true},
		{name: "numeric junk", cell: "123456", wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := ParseTimeSafe(dataset.NewSeries([]string{tt.cell}))
			require.Equal(t, 1, ts.Len())
			if tt.wantNull {
				assert.True(t, ts.IsNull(0))
				return
			}
			require.False(t, ts.IsNull(0))
			assert.True(t, tt.want.Equal(ts.Time(0)), "got %v want %v", ts.Time(0), tt.want)
		})
	}
}

func TestParseTimeSafePreservesLength(t *testing.T) {
	// One valid date, one garbage cell, one null: three entries out.
	s := dataset.NewNullableSeries(
		[]string{"2024-01-01", "bad", ""},
		[]bool{false, false, true},
	)

	ts := ParseTimeSafe(s)
	require.Equal(t, s.Len(), ts.Len())
	assert.False(t, ts.IsNull(0))
	assert.True(t, ts.IsNull(1))
	assert.True(t, ts.IsNull(2))
}

func TestParseTimeSafeEmptyAndNil(t *testing.T) {
	assert.Equal(t, 0, ParseTimeSafe(dataset.NewSeries(nil)).Len())
	assert.Equal(t, 0, ParseTimeSafe(nil).Len())
}
