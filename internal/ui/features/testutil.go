package features

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/dataset"
	"github.com/sightline-labs/sightline/internal/page"
	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/testutil"
	"github.com/sightline-labs/sightline/internal/ui/notifier"
	"github.com/sightline-labs/sightline/internal/upload"
)

// TestCSV is the data file every fixture page reads.
const TestCSV = `ScreenDate,SchoolType,Sex,ScreenAttend,Ref_Eye_Spec
2024-01-01,primary,M,yes,no
2024-01-02,primary,F,yes,yes
2024-01-03,secondary,M,no,no
`

// TestFixture holds a complete handler test environment: a data
// directory with one CSV, a one-page config, and every service in Deps.
type TestFixture struct {
	Deps    Deps
	DataDir string
}

// SetupTestFixture builds a fixture rooted in t.TempDir. The upload
// password is "secret".
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "school.csv"), []byte(TestCSV), 0o644))

	cfg := &config.Config{
		DataDir:   dataDir,
		StatePath: filepath.Join(tmpDir, "state.db"),
		Upload:    config.UploadConfig{Password: "secret", Keep: 3},
		Brand:     config.BrandConfig{Title: "Sightline Test", Color: "#0ea5e9"},
		Pages: []config.PageSpec{
			{
				Key:      "school",
				Title:    "School Screening",
				Icon:     "🏫",
				DataFile: "school.csv",
				DateKey:  "date",
				Candidates: map[string][]string{
					"date":          {"screendate"},
					"school_type":   {"schooltype"},
					"sex":           {"sex"},
					"screen_attend": {"screenattend"},
					"referred":      {"ref_eye_spec"},
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
						},
					},
				},
			},
		},
	}
	cfg.ApplyDefaults()

	loader, err := dataset.NewLoader(dataDir, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	store, err := state.OpenAndMigrate(cfg.StatePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &TestFixture{
		DataDir: dataDir,
		Deps: Deps{
			Config:    cfg,
			Renderer:  page.NewRenderer(loader, nil, logger),
			Store:     store,
			Installer: upload.NewInstaller(dataDir, cfg.Upload.Password, cfg.Upload.Keep, logger),
			Sessions:  sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")),
			Notifier:  notifier.New(),
			Logger:    logger,
		},
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
