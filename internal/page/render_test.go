package page

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/dataset"
)

const schoolCSV = `ScreenDate,SchoolCode,SchoolType,Sex,ScreenAttend,Ref_Eye_Spec,PatientType
2024-01-01,A,primary,M,yes,no,new
2024-01-02,A,primary,F,yes,yes,old
2024-01-03,B,secondary,M,no,no,new
bad,B,secondary,F,yes,yes,old
`

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return newRendererWithCSV(t, schoolCSV)
}

func newRendererWithCSV(t *testing.T, csv string) *Renderer {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "school.csv"), []byte(csv), 0o644))

	loader, err := dataset.NewLoader(dir, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	return NewRenderer(loader, nil, nil)
}

func schoolSpec() config.PageSpec {
	return config.PageSpec{
		Key:      "school",
		Title:    "School Screening",
		DataFile: "school.csv",
		DateKey:  "date",
		Candidates: map[string][]string{
			"date":          {"screendate"},
			"school_type":   {"schooltype"},
			"sex":           {"sex"},
			"screen_attend": {"screenattend"},
			"referred":      {"ref_eye_spec"},
			"patient_type":  {"patienttype"},
		},
		Filters: []config.FilterSpec{
			{Key: "date", Label: "Date", Kind: config.FilterDate},
			{Key: "school_type", Label: "School Type", Kind: config.FilterMulti},
		},
		Metrics: []config.MetricSpec{
			{Title: "Screened", Column: "screen_attend"},
			{Title: "Referred", Column: "referred", BaseColumn: "screen_attend"},
		},
		PresentColumn: "screen_attend",
		PresentValue:  "yes",
		Sections: []config.SectionSpec{
			{
				Title: "Demographics",
				Charts: []config.ChartSpec{
					{Title: "Gender", Column: "sex", Kind: config.ChartPie},
					{Title: "School Type", Column: "school_type", Kind: config.ChartBar},
				},
			},
		},
	}
}

func TestBuildUnfiltered(t *testing.T) {
	r := newTestRenderer(t)

	view, err := r.Build(context.Background(), schoolSpec(), nil)
	require.NoError(t, err)

	assert.Empty(t, view.Notice)
	assert.Equal(t, 4, view.TotalRows)
	assert.Equal(t, 4, view.FilteredRows)
	assert.False(t, view.LastUpdated.IsZero())
	assert.Empty(t, view.Chips)

	// Data coverage comes from the date key over the full dataset; the
	// unparseable row contributes nothing.
	assert.Equal(t, "2024-01-01", view.DataFrom.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", view.DataThrough.Format("2006-01-02"))

	require.Len(t, view.Metrics, 2)
	assert.Equal(t, "3", view.Metrics[0].Value)
	// 2 referred of 3 screened.
	assert.Equal(t, "2 (66.7%)", view.Metrics[1].Value)
	assert.Equal(t, "M: 1 | F: 2", view.Metrics[0].Help)

	require.Len(t, view.Filters, 2)
	date := view.Filters[0]
	assert.Equal(t, "2024-01-01", date.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", date.MaxDate.Format("2006-01-02"))
	assert.Equal(t, date.MinDate, date.FromDate)
	assert.Equal(t, date.MaxDate, date.ToDate)

	multi := view.Filters[1]
	require.Len(t, multi.Options, 2)
	assert.Equal(t, FilterOption{Value: "primary", Count: 2}, multi.Options[0])
	assert.Equal(t, FilterOption{Value: "secondary", Count: 2}, multi.Options[1])

	require.Len(t, view.Sections, 1)
	require.Len(t, view.Sections[0].Charts, 2)
	for _, ch := range view.Sections[0].Charts {
		assert.Empty(t, ch.Notice)
		assert.Contains(t, ch.FigureJSON, `"data"`)
	}
}

func TestBuildDateFilter(t *testing.T) {
	r := newTestRenderer(t)

	view, err := r.Build(context.Background(), schoolSpec(), Selections{
		"date": {"2024-01-01", "2024-01-02"},
	})
	require.NoError(t, err)

	// The bad-date row is excluded along with the out-of-range one.
	assert.Equal(t, 2, view.FilteredRows)
	require.Len(t, view.Chips, 1)
	assert.Equal(t, "Date", view.Chips[0].Label)
	assert.Equal(t, "2024-01-01 to 2024-01-02", view.Chips[0].Value)
	assert.Equal(t, "2", view.Metrics[0].Value)

	// Filtering never narrows the coverage span.
	assert.Equal(t, "2024-01-03", view.DataThrough.Format("2006-01-02"))
}

func TestBuildMultiFilter(t *testing.T) {
	r := newTestRenderer(t)

	view, err := r.Build(context.Background(), schoolSpec(), Selections{
		"school_type": {"secondary", "not-an-option"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, view.FilteredRows)
	require.Len(t, view.Chips, 1)
	assert.Equal(t, "secondary", view.Chips[0].Value)

	multi := view.Filters[1]
	assert.Equal(t, []string{"secondary"}, multi.Selected)
	assert.True(t, multi.Options[1].Selected)
	assert.False(t, multi.Options[0].Selected)
}

func TestBuildInvertedDateRangeResets(t *testing.T) {
	r := newTestRenderer(t)

	view, err := r.Build(context.Background(), schoolSpec(), Selections{
		"date": {"2024-01-03", "2024-01-01"},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, view.FilteredRows)
	assert.Empty(t, view.Chips)
}

func TestBuildMissingRequiredColumns(t *testing.T) {
	r := newTestRenderer(t)
	spec := schoolSpec()
	spec.Metrics = append(spec.Metrics, config.MetricSpec{Title: "Surgeries", Column: "surgery_done"})

	view, err := r.Build(context.Background(), spec, nil)
	require.NoError(t, err)

	assert.Contains(t, view.Notice, "surgery_done")
	assert.Empty(t, view.Metrics)
	assert.Empty(t, view.Sections)
	// Filters still render so the user can see the page shell.
	assert.Len(t, view.Filters, 2)
}

func TestMissingColumnNoticeUsesLogicalNames(t *testing.T) {
	// No Ref_Eye_Spec column, so the "referred" metric cannot resolve.
	r := newRendererWithCSV(t, `ScreenDate,SchoolType,Sex,ScreenAttend
2024-01-01,primary,M,yes
`)

	view, err := r.Build(context.Background(), schoolSpec(), nil)
	require.NoError(t, err)

	assert.Contains(t, view.Notice, "missing required columns")
	assert.Contains(t, view.Notice, "referred")
	assert.NotContains(t, view.Notice, "ref_eye_spec")
}

func TestBuildNewOldChart(t *testing.T) {
	r := newTestRenderer(t)
	spec := schoolSpec()
	spec.Sections = []config.SectionSpec{
		{Title: "Patients", Charts: []config.ChartSpec{
			{Title: "New vs Old", Column: "patient_type", Kind: config.ChartNewOld},
		}},
	}

	view, err := r.Build(context.Background(), spec, nil)
	require.NoError(t, err)

	require.Len(t, view.Sections, 1)
	ch := view.Sections[0].Charts[0]
	assert.Empty(t, ch.Notice)
	assert.Contains(t, ch.FigureJSON, `"New"`)
	assert.Contains(t, ch.FigureJSON, `"Old"`)
	assert.Contains(t, ch.FigureJSON, `"Male"`)
	assert.Contains(t, ch.FigureJSON, `"Female"`)
}

func TestBuildChartCleansPlaceholderCells(t *testing.T) {
	r := newRendererWithCSV(t, `ScreenDate,SchoolType,Sex,ScreenAttend,Ref_Eye_Spec
2024-01-01,primary,M,yes,no
2024-01-02,nan,F,yes,yes
2024-01-03,,M,yes,no
`)

	view, err := r.Build(context.Background(), schoolSpec(), nil)
	require.NoError(t, err)

	// Blank and "nan" cells never become chart categories.
	schoolType := view.Sections[0].Charts[1]
	assert.Empty(t, schoolType.Notice)
	assert.Contains(t, schoolType.FigureJSON, "primary")
	assert.NotContains(t, schoolType.FigureJSON, "nan")
}

func TestFiltered(t *testing.T) {
	r := newTestRenderer(t)

	ds, err := r.Filtered(context.Background(), schoolSpec(), Selections{
		"school_type": {"primary"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.True(t, ds.HasColumn("screendate"))
}
