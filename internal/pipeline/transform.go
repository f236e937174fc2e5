package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
)

// MapTransformer implements Transformer using the domain payload assembler.
type MapTransformer struct {
	opts   domain.Options
	logger *slog.Logger
}

// NewTransformer creates a MapTransformer. opts are validated at config load.
func NewTransformer(opts domain.Options, logger *slog.Logger) *MapTransformer {
	return &MapTransformer{
		opts:   opts,
		logger: logger,
	}
}

func (t *MapTransformer) Transform(ctx context.Context, table domain.RecordTable) (domain.Payload, domain.TransformStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payload{}, domain.TransformStats{}, err
	}

	payload, stats := domain.BuildPayload(table.Records, t.opts)

	for _, ts := range stats.MisalignedWind {
		t.logger.Warn("wind components misaligned, emitting empty wind list", "time", ts)
	}
	t.logger.Debug("payload assembled",
		"rows", stats.Rows,
		"unclassified", stats.Unclassified,
		"times", len(payload.Times),
		"rain_points", stats.Points[domain.DatasetRain],
		"temp_points", stats.Points[domain.DatasetTemp],
		"wind_points", stats.Points[domain.DatasetWind],
	)

	return payload, stats, nil
}
