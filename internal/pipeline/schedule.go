package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner executes a single pipeline run.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// scheduleParser accepts standard five-field specs, six-field specs with a
// leading seconds field, and descriptors such as "@every 3h".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers runs on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	runner   Runner
	spec     string
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewScheduler validates spec. Nothing runs until Run is called.
func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE %q: %w", spec, err)
	}
	return &Scheduler{
		runner:   runner,
		spec:     spec,
		schedule: sched,
		logger:   logger,
	}, nil
}

// Run starts one run immediately, then follows the schedule until ctx is
// cancelled. It returns after any in-flight run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{logger: s.logger}
	c := cron.New(cron.WithParser(scheduleParser), cron.WithLogger(cl))

	job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		// Failures are logged and counted by the pipeline itself.
		_, _ = s.runner.RunOnce(ctx)
	}))
	c.Schedule(s.schedule, job)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()

	c.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)

	<-ctx.Done()
	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
