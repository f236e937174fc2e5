// Package wgrib2 converts MSM GRIB2 grids to CSV with the wgrib2 tool and
// reads the resulting CSV into a domain.RecordTable.
package wgrib2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
)

// Converter runs `<cmd> <grid> -csv <csv>`. It implements pipeline.Converter.
type Converter struct {
	cmd    string
	logger *slog.Logger
}

// NewConverter creates a Converter for the given executable.
func NewConverter(cmd string, logger *slog.Logger) *Converter {
	return &Converter{cmd: cmd, logger: logger}
}

// Convert writes the CSV form of grid to csvPath. The tool's exit status is
// only logged: the conversion succeeded if csvPath exists afterwards. A stale
// csvPath is removed first so an old table is never mistaken for new output.
func (c *Converter) Convert(ctx context.Context, grid, csvPath string) error {
	if err := os.Remove(csvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove stale %s: %w", domain.ErrConversion, csvPath, err)
	}

	c.logger.Info("converting grid to csv", "grid", grid, "csv", csvPath, "cmd", c.cmd)
	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cmd, grid, "-csv", csvPath)
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrConversion, ctxErr)
	}
	if runErr != nil {
		c.logger.Warn("converter exited with error", "error", runErr, "stderr", strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(csvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w: %s was not produced", domain.ErrConversion, domain.ErrInputMissing, csvPath)
		}
		return fmt.Errorf("%w: stat %s: %w", domain.ErrConversion, csvPath, err)
	}

	c.logger.Info("conversion complete", "csv", csvPath, "bytes", info.Size(), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
