package filestore

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testArtifact(t *testing.T) domain.Artifact {
	t.Helper()
	a, err := domain.NewArtifact(time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC), domain.Payload{
		Times: []string{"2024-01-01 07:00:00"},
		Datasets: map[string]domain.Dataset{
			"2024-01-01 07:00:00": {
				Rain: []domain.RainPoint{{35, 139, 2.5}},
				Temp: []domain.TempPoint{{35, 139, 7}},
				Wind: []domain.WindPoint{{35, 139, 5, 53.1}},
			},
		},
	})
	require.NoError(t, err)
	return a
}

func TestStore_Load_WritesPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "weather_data.json")
	s, err := NewStore(path, nil, discardLogger())
	require.NoError(t, err)
	a := testArtifact(t)

	require.NoError(t, s.Load(context.Background(), a))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Data, data)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_Load_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"times":["old"]}`), 0o600))
	s, err := NewStore(path, nil, discardLogger())
	require.NoError(t, err)
	a := testArtifact(t)

	require.NoError(t, s.Load(context.Background(), a))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Data, data)
}

func TestStore_Load_CompressedSiblings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.json")
	s, err := NewStore(path, []string{"gzip", "zstd", "lz4"}, discardLogger())
	require.NoError(t, err)
	a := testArtifact(t)

	require.NoError(t, s.Load(context.Background(), a))

	open := func(name string) *os.File {
		f, err := os.Open(s.SiblingPath(name))
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() })
		return f
	}

	gz, err := gzip.NewReader(open("gzip"))
	require.NoError(t, err)
	got, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, a.Data, got, "gzip")

	zr, err := zstd.NewReader(open("zstd"))
	require.NoError(t, err)
	defer zr.Close()
	got, err = io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, a.Data, got, "zstd")

	got, err = io.ReadAll(lz4.NewReader(open("lz4")))
	require.NoError(t, err)
	assert.Equal(t, a.Data, got, "lz4")

	assert.Equal(t, path+".gz", s.SiblingPath("gzip"))
	assert.Equal(t, path+".zst", s.SiblingPath("zstd"))
	assert.Equal(t, path+".lz4", s.SiblingPath("lz4"))
}

func TestNewStore_UnknownCompression(t *testing.T) {
	_, err := NewStore("out.json", []string{"brotli"}, discardLogger())
	assert.ErrorContains(t, err, "brotli")
}

func TestStore_Load_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.json")
	s, err := NewStore(path, []string{"gzip"}, discardLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Load(ctx, testArtifact(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, s.SiblingPath("gzip"))
}

func TestStore_Load_CancelledKeepsPreviousPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weather_data.json")
	old := []byte(`{"times":["old"]}`)
	require.NoError(t, os.WriteFile(path, old, 0o600))
	s, err := NewStore(path, []string{"gzip", "zstd"}, discardLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Load(ctx, testArtifact(t))

	require.ErrorIs(t, err, context.Canceled)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, old, data)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_Load_SiblingFailureKeepsPreviousPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weather_data.json")
	old := []byte(`{"times":["old"]}`)
	require.NoError(t, os.WriteFile(path, old, 0o600))
	s, err := NewStore(path, []string{"gzip"}, discardLogger())
	require.NoError(t, err)
	// A directory in the sibling's place makes its rename fail.
	require.NoError(t, os.Mkdir(s.SiblingPath("gzip"), 0o755))

	err = s.Load(context.Background(), testArtifact(t))

	require.Error(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, old, data)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	grid := filepath.Join(dir, "latest_msm.bin")
	csv := filepath.Join(dir, "latest_output.csv")
	require.NoError(t, os.WriteFile(grid, bytes.Repeat([]byte{0x47}, 16), 0o600))

	s, err := NewStore(filepath.Join(dir, "weather_data.json"), nil, discardLogger())
	require.NoError(t, err)

	require.NoError(t, s.Remove(grid, csv))
	assert.NoFileExists(t, grid)
}
