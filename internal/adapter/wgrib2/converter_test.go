package wgrib2

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTool writes an executable shell script standing in for wgrib2.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "wgrib2")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestConverter_Convert_WritesCSV(t *testing.T) {
	// $1 = grid, $2 = -csv, $3 = output
	tool := fakeTool(t, `[ "$2" = "-csv" ] || exit 2
printf '"2024-01-01 06:00:00","2024-01-01 06:00:00","APCP","surface",139,35,2.5\n' > "$3"`)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	c := NewConverter(tool, discardLogger())

	require.NoError(t, c.Convert(context.Background(), filepath.Join(dir, "grid.bin"), csvPath))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "APCP")
}

func TestConverter_Convert_NonZeroExitWithOutputSucceeds(t *testing.T) {
	tool := fakeTool(t, `echo partial > "$3"; echo "warning: odd grid" >&2; exit 1`)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	c := NewConverter(tool, discardLogger())

	assert.NoError(t, c.Convert(context.Background(), "grid.bin", csvPath))
}

func TestConverter_Convert_NoOutput(t *testing.T) {
	tool := fakeTool(t, `exit 0`)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	c := NewConverter(tool, discardLogger())

	err := c.Convert(context.Background(), "grid.bin", csvPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConversion)
	assert.ErrorIs(t, err, domain.ErrInputMissing)
}

func TestConverter_Convert_RemovesStaleOutput(t *testing.T) {
	tool := fakeTool(t, `exit 1`)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("stale"), 0o600))
	c := NewConverter(tool, discardLogger())

	err := c.Convert(context.Background(), "grid.bin", csvPath)

	assert.ErrorIs(t, err, domain.ErrInputMissing)
	assert.NoFileExists(t, csvPath)
}

func TestConverter_Convert_MissingExecutable(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out.csv")
	c := NewConverter(filepath.Join(t.TempDir(), "no-such-wgrib2"), discardLogger())

	err := c.Convert(context.Background(), "grid.bin", csvPath)

	assert.ErrorIs(t, err, domain.ErrConversion)
}
