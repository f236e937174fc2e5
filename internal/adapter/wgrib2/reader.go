package wgrib2

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
)

// fieldCount is the width of a wgrib2 -csv row:
// issued, valid, variable, level, lon, lat, value.
const fieldCount = 7

// checkEvery is how many rows are read between context checks.
const checkEvery = 4096

// Reader loads the headerless CSV written by wgrib2 -csv into a RecordTable.
// It implements pipeline.Extractor.
type Reader struct {
	mode   domain.ParseMode
	logger *slog.Logger
}

// NewReader creates a Reader. An unknown mode is treated as strict.
func NewReader(mode domain.ParseMode, logger *slog.Logger) *Reader {
	if !mode.Valid() {
		mode = domain.ParseStrict
	}
	return &Reader{mode: mode, logger: logger}
}

// Extract reads the file at path. A missing file yields domain.ErrInputMissing.
func (r *Reader) Extract(ctx context.Context, path string) (domain.RecordTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RecordTable{}, fmt.Errorf("%w: %s", domain.ErrInputMissing, path)
		}
		return domain.RecordTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := r.Read(ctx, f)
	if err != nil {
		return domain.RecordTable{}, fmt.Errorf("read %s: %w", path, err)
	}

	r.logger.Info("record table loaded", "path", path, "rows", table.Len(), "rejected", table.Rejected, "mode", r.mode)
	return table, nil
}

// Read parses CSV rows from src in file order. Schema errors carry the
// physical line a row starts on, so quoted multi-line fields are counted.
func (r *Reader) Read(ctx context.Context, src io.Reader) (domain.RecordTable, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var table domain.RecordTable
	for n := 1; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return domain.RecordTable{}, err
			}
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var rec domain.Record
		if err == nil {
			line, _ := cr.FieldPos(0)
			rec, err = parseRecord(line, fields)
		} else {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return domain.RecordTable{}, err
			}
			err = &domain.SchemaError{Line: pe.Line, Reason: pe.Err.Error()}
		}
		if err != nil {
			if r.mode == domain.ParseStrict {
				return domain.RecordTable{}, err
			}
			r.logger.Debug("skipping malformed row", "error", err)
			table.Rejected++
			continue
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func parseRecord(line int, fields []string) (domain.Record, error) {
	if len(fields) != fieldCount {
		return domain.Record{}, &domain.SchemaError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)),
		}
	}

	lon, err := parseFloat(line, "lon", fields[4])
	if err != nil {
		return domain.Record{}, err
	}
	lat, err := parseFloat(line, "lat", fields[5])
	if err != nil {
		return domain.Record{}, err
	}
	value, err := parseFloat(line, "value", fields[6])
	if err != nil {
		return domain.Record{}, err
	}

	return domain.Record{
		TimeIssued: strings.TrimSpace(fields[0]),
		TimeValid:  strings.TrimSpace(fields[1]),
		Variable:   strings.TrimSpace(fields[2]),
		Level:      strings.TrimSpace(fields[3]),
		Lon:        lon,
		Lat:        lat,
		Value:      value,
	}, nil
}

func parseFloat(line int, column, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &domain.SchemaError{Line: line, Column: column, Reason: fmt.Sprintf("not a number: %q", s)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.SchemaError{Line: line, Column: column, Reason: fmt.Sprintf("not finite: %q", s)}
	}
	return v, nil
}
