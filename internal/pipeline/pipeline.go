package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/couchcryptid/msm-weather-map/internal/observability"
)

// Acquirer downloads the grid file of a forecast cycle to dest.
type Acquirer interface {
	Acquire(ctx context.Context, cycle time.Time, dest string) error
}

// Converter turns a binary grid file into the tabular CSV form.
type Converter interface {
	Convert(ctx context.Context, grid, csv string) error
}

// Extractor loads the record table from the tabular file at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (domain.RecordTable, error)
}

// Transformer reduces a record table to the map payload.
type Transformer interface {
	Transform(ctx context.Context, table domain.RecordTable) (domain.Payload, domain.TransformStats, error)
}

// Loader writes the serialized payload to its destination.
type Loader interface {
	Load(ctx context.Context, artifact domain.Artifact) error
}

// Publisher announces a written payload to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, artifact domain.Artifact) error
}

// Cleaner removes intermediate files. Missing files are not an error.
type Cleaner interface {
	Remove(paths ...string) error
}

// Stages groups the pipeline's collaborators. Publisher and Cleaner are optional.
type Stages struct {
	Acquirer    Acquirer
	Converter   Converter
	Extractor   Extractor
	Transformer Transformer
	Loader      Loader
	Publisher   Publisher
	Cleaner     Cleaner
}

// Settings controls which stages run and where intermediates live.
type Settings struct {
	GridPath        string
	CSVPath         string
	SkipAcquisition bool
	Cleanup         bool
	SourceLag       time.Duration
	SourceCycle     time.Duration
}

// Result describes a completed run.
type Result struct {
	Cycle      time.Time     `json:"cycle"`
	Times      int           `json:"times"`
	Rows       int           `json:"rows"`
	Rejected   int           `json:"rejected"`
	Bytes      int           `json:"bytes"`
	Digest     string        `json:"digest"`
	Published  bool          `json:"published"`
	Duration   time.Duration `json:"duration_ns"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Pipeline orchestrates one acquire-convert-extract-transform-load run.
type Pipeline struct {
	stages   Stages
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu   sync.Mutex
	last *Result
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		stages:   stages,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no payload has been produced yet")
	}
	return nil
}

// LastResult returns the most recent successful run, if any.
func (p *Pipeline) LastResult() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// RunOnce executes a full run for the current forecast cycle. A failure in
// any stage before the payload is written aborts the run and leaves the
// previous payload untouched. Publication failures are logged, not returned.
func (p *Pipeline) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	cycle := domain.CurrentCycle(p.settings.SourceLag, p.settings.SourceCycle)
	log := p.logger.With("cycle", domain.CycleStamp(cycle))
	log.Info("run started", "skip_acquisition", p.settings.SkipAcquisition)

	res, err := p.run(ctx, log, cycle)
	res.Duration = time.Since(start)
	p.metrics.RunDuration.Observe(res.Duration.Seconds())

	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		log.Error("run failed", "error", err, "duration", res.Duration.Round(time.Millisecond))
		return res, err
	}

	res.FinishedAt = time.Now().UTC()
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(res.FinishedAt.Unix()))
	p.mu.Lock()
	last := res
	p.last = &last
	p.mu.Unlock()
	p.ready.Store(true)

	log.Info("run complete",
		"times", res.Times,
		"rows", res.Rows,
		"bytes", res.Bytes,
		"digest", res.Digest,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, cycle time.Time) (Result, error) {
	res := Result{Cycle: cycle}

	if !p.settings.SkipAcquisition {
		if err := p.stages.Acquirer.Acquire(ctx, cycle, p.settings.GridPath); err != nil {
			return res, fmt.Errorf("acquire: %w", err)
		}
		if err := p.stages.Converter.Convert(ctx, p.settings.GridPath, p.settings.CSVPath); err != nil {
			return res, fmt.Errorf("convert: %w", err)
		}
	}

	table, err := p.stages.Extractor.Extract(ctx, p.settings.CSVPath)
	if err != nil {
		return res, fmt.Errorf("extract: %w", err)
	}
	res.Rows = table.Len()
	res.Rejected = table.Rejected
	p.metrics.RowsLoaded.Add(float64(table.Len()))
	p.metrics.RowsRejected.Add(float64(table.Rejected))

	payload, stats, err := p.stages.Transformer.Transform(ctx, table)
	if err != nil {
		return res, fmt.Errorf("transform: %w", err)
	}
	p.recordStats(stats, len(payload.Times))

	artifact, err := domain.NewArtifact(cycle, payload)
	if err != nil {
		return res, err
	}
	res.Times = artifact.Times
	res.Bytes = len(artifact.Data)
	res.Digest = artifact.DigestHex()

	if err := p.stages.Loader.Load(ctx, artifact); err != nil {
		return res, fmt.Errorf("load: %w", err)
	}

	if p.stages.Publisher != nil {
		if err := p.stages.Publisher.Publish(ctx, artifact); err != nil {
			p.metrics.PublishErrors.Inc()
			log.Warn("publish failed, payload was still written", "error", err)
		} else {
			res.Published = true
		}
	}

	p.cleanup(log)
	return res, nil
}

func (p *Pipeline) recordStats(stats domain.TransformStats, times int) {
	for class, n := range stats.Classified {
		p.metrics.RowsClassified.WithLabelValues(class.String()).Add(float64(n))
	}
	p.metrics.RowsClassified.WithLabelValues(domain.ClassNone.String()).Add(float64(stats.Unclassified))
	for dataset, n := range stats.Points {
		p.metrics.PointsEmitted.WithLabelValues(dataset).Add(float64(n))
	}
	p.metrics.WindAlignmentMismatches.Add(float64(len(stats.MisalignedWind)))
	p.metrics.TimelineLength.Set(float64(times))
}

// cleanup removes the grid and CSV files. When acquisition is skipped the CSV
// is operator input and is left alone.
func (p *Pipeline) cleanup(log *slog.Logger) {
	if !p.settings.Cleanup || p.settings.SkipAcquisition || p.stages.Cleaner == nil {
		return
	}
	if err := p.stages.Cleaner.Remove(p.settings.GridPath, p.settings.CSVPath); err != nil {
		log.Warn("cleanup failed", "error", err)
		return
	}
	log.Debug("intermediate files removed", "grid", p.settings.GridPath, "csv", p.settings.CSVPath)
}
