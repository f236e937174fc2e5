package jma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
)

// Client downloads MSM GPV surface files from the RISH archive.
// It implements pipeline.Acquirer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an archive client. The timeout bounds a whole download.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// URL returns the archive URL of the cycle's grid file.
func (c *Client) URL(cycle time.Time) string {
	return c.baseURL + "/" + domain.SourcePath(cycle)
}

// Acquire downloads the grid file for cycle to dest. The file is written
// under a temporary name and renamed, so dest never holds a partial download.
// All failures wrap domain.ErrAcquisition.
func (c *Client) Acquire(ctx context.Context, cycle time.Time, dest string) error {
	u := c.URL(cycle)
	c.logger.Info("downloading grid file", "cycle", domain.CycleStamp(cycle), "url", u)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrAcquisition, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrAcquisition, u, resp.StatusCode, body)
	}

	n, err := writeFile(dest, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}

	c.logger.Info("download complete", "path", dest, "bytes", n, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func writeFile(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return n, fmt.Errorf("read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return n, fmt.Errorf("rename %s: %w", dest, err)
	}
	return n, nil
}
