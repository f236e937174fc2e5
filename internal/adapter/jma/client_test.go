package jma

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrid = "GRIB2 payload"

var testCycle = time.Date(2024, time.January, 1, 3, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_URL(t *testing.T) {
	c := NewClient("http://archive.example/gpv", time.Second, discardLogger())

	assert.Equal(t,
		"http://archive.example/gpv/2024/01/01/Z__C_RJTD_20240101030000_MSM_GPV_Rjp_Lsurf_FH00-15_grib2.bin",
		c.URL(testCycle),
	)
}

func TestClient_Acquire_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gpv/2024/01/01/Z__C_RJTD_20240101030000_MSM_GPV_Rjp_Lsurf_FH00-15_grib2.bin", r.URL.Path)
		_, _ = io.WriteString(w, testGrid)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "latest_msm.bin")
	c := NewClient(srv.URL+"/gpv", 5*time.Second, discardLogger())

	require.NoError(t, c.Acquire(context.Background(), testCycle, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, testGrid, string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestClient_Acquire_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such cycle", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "latest_msm.bin")
	c := NewClient(srv.URL, 5*time.Second, discardLogger())

	err := c.Acquire(context.Background(), testCycle, dest)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAcquisition))
	assert.Contains(t, err.Error(), "status 404")
	assert.NoFileExists(t, dest)
}

func TestClient_Acquire_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, time.Second, discardLogger())
	err := c.Acquire(context.Background(), testCycle, filepath.Join(t.TempDir(), "grid.bin"))

	assert.ErrorIs(t, err, domain.ErrAcquisition)
}

func TestClient_Acquire_KeepsPreviousFileOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "latest_msm.bin")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o600))

	c := NewClient(srv.URL, time.Second, discardLogger())
	require.Error(t, c.Acquire(context.Background(), testCycle, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestClient_Acquire_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, testGrid)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, time.Second, discardLogger())
	err := c.Acquire(ctx, testCycle, filepath.Join(t.TempDir(), "grid.bin"))

	assert.ErrorIs(t, err, domain.ErrAcquisition)
	assert.ErrorIs(t, err, context.Canceled)
}
