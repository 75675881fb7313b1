package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
data_dir: mydata
listen:
  port: 9000
pages:
  - key: school
    title: School Screening
    data_file: school.csv
`

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), minimalYAML)

	cfg, used, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "mydata", cfg.DataDir)
	assert.Equal(t, 9000, cfg.Listen.Port)
	require.Len(t, cfg.Pages, 1)
	assert.Equal(t, "school", cfg.Pages[0].Key)

	// Defaults fill what the file leaves out.
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
	assert.Equal(t, DefaultBrandColor, cfg.Brand.Color)
	assert.Equal(t, DefaultBackupKeep, cfg.Upload.Keep)
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, used, err := Load("", nil)
	require.NoError(t, err)

	// No config file in the test working directory tree is assumed; if one
	// is found the defaults below still hold for untouched keys.
	_ = used
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotZero(t, cfg.Listen.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, t.TempDir(), minimalYAML)
	t.Setenv("SIGHTLINE_LISTEN_PORT", "7777")

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Listen.Port)
}

func TestLoadFlagOverride(t *testing.T) {
	path := writeConfig(t, t.TempDir(), minimalYAML)
	t.Setenv("SIGHTLINE_LISTEN_PORT", "7777")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("listen.port", 0, "")
	require.NoError(t, flags.Set("listen.port", "8888"))

	cfg, _, err := Load(path, flags)
	require.NoError(t, err)
	// Flags beat environment beats file.
	assert.Equal(t, 8888, cfg.Listen.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Example()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "example is valid", mutate: func(*Config) {}},
		{
			name:    "duplicate page keys",
			mutate:  func(c *Config) { c.Pages = append(c.Pages, c.Pages[0]) },
			wantErr: "duplicate page key",
		},
		{
			name:    "empty page key",
			mutate:  func(c *Config) { c.Pages[0].Key = "" },
			wantErr: "key is required",
		},
		{
			name:    "uppercase page key",
			mutate:  func(c *Config) { c.Pages[0].Key = "School" },
			wantErr: "lowercase",
		},
		{
			name:    "absolute data file",
			mutate:  func(c *Config) { c.Pages[0].DataFile = string(filepath.Separator) + "tmp/x.csv" },
			wantErr: "must be relative",
		},
		{
			name:    "missing data file",
			mutate:  func(c *Config) { c.Pages[0].DataFile = "" },
			wantErr: "data_file is required",
		},
		{
			name:    "unknown filter kind",
			mutate:  func(c *Config) { c.Pages[0].Filters[0].Kind = "range" },
			wantErr: "unknown kind",
		},
		{
			name:    "unknown chart kind",
			mutate:  func(c *Config) { c.Pages[0].Sections[0].Charts[0].Kind = "scatter" },
			wantErr: "unknown kind",
		},
		{
			name:   "new-old chart kind",
			mutate: func(c *Config) { c.Pages[0].Sections[0].Charts[0].Kind = ChartNewOld },
		},
		{
			name:    "metric without column",
			mutate:  func(c *Config) { c.Pages[0].Metrics[0].Column = "" },
			wantErr: "needs a column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPageLookup(t *testing.T) {
	cfg := Example()

	p, ok := cfg.Page("school")
	require.True(t, ok)
	assert.Equal(t, "School Screening Program", p.Title)

	_, ok = cfg.Page("absent")
	assert.False(t, ok)
}

func TestRequiredColumns(t *testing.T) {
	p := PageSpec{
		Metrics: []MetricSpec{
			{Title: "a", Column: "screen_attend"},
			{Title: "b", Column: "referred", BaseColumn: "screen_attend"},
		},
		Sections: []SectionSpec{
			{Charts: []ChartSpec{{Column: "sex"}, {Column: "screen_attend"}}},
		},
		PresentColumn: "screen_attend",
	}

	assert.Equal(t, []string{"screen_attend", "referred", "sex"}, p.RequiredColumns())
}
