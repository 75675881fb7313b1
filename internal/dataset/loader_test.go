package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	l, err := NewLoader(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "screening.csv", "ScreenDate, Sex ,Status\n2024-01-01,m, present \n2024-01-02,f,absent\n")

	l := newTestLoader(t, dir)
	ds, err := l.Load(context.Background(), "screening.csv")
	require.NoError(t, err)

	// Headers lowercased and trimmed, cells trimmed.
	assert.Equal(t, []string{"screendate", "sex", "status"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())

	status, ok := ds.Column("status")
	require.True(t, ok)
	assert.Equal(t, "present", status.Value(0))
	assert.Equal(t, "absent", status.Value(1))
}

func TestLoaderMissingFile(t *testing.T) {
	l := newTestLoader(t, t.TempDir())
	_, err := l.Load(context.Background(), "nope.csv")
	assert.ErrorContains(t, err, "data file not found")
}

func TestLoaderResolve(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, dir)

	t.Run("relative path joins data dir", func(t *testing.T) {
		path, err := l.Resolve("sub/file.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "sub", "file.csv"), path)
	})

	t.Run("absolute path rejected", func(t *testing.T) {
		_, err := l.Resolve(string(filepath.Separator) + "etc/passwd")
		assert.ErrorContains(t, err, "relative")
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := l.Resolve("../outside.csv")
		assert.ErrorContains(t, err, "escapes")
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := l.Resolve("")
		assert.Error(t, err)
	})
}

func TestLoaderCacheInvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "a\n1\n")

	l := newTestLoader(t, dir)
	ctx := context.Background()

	first, err := l.Load(ctx, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	// Unchanged file comes back from cache (same value).
	again, err := l.Load(ctx, "data.csv")
	require.NoError(t, err)
	assert.Same(t, first, again)

	// Rewrite with a newer mtime forces a reload.
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n2\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	reloaded, err := l.Load(ctx, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
}

func TestLoaderNullCells(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "gaps.csv", "a,b\n1,\n,2\n")

	l := newTestLoader(t, dir)
	ds, err := l.Load(context.Background(), "gaps.csv")
	require.NoError(t, err)

	a, _ := ds.Column("a")
	b, _ := ds.Column("b")
	assert.False(t, a.IsNull(0))
	assert.True(t, a.IsNull(1))
	assert.True(t, b.IsNull(0))
	assert.False(t, b.IsNull(1))
}
