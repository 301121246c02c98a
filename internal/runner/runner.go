// Package runner executes pulls once or on a cron schedule.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one complete pull. Each call must build its own run state.
type Job func(ctx context.Context) error

// Runner triggers a Job. Overlapping scheduled runs are skipped rather than
// queued.
type Runner struct {
	job      Job
	schedule string
	logger   *logrus.Logger
	parser   cron.Parser

	mu      sync.Mutex
	lastErr error
	runs    int
}

// New creates a runner. An empty schedule runs the job once. Schedules use
// six fields with seconds first, e.g. "0 0 */2 * * *".
func New(job Job, schedule string, logger *logrus.Logger) (*Runner, error) {
	r := &Runner{
		job:      job,
		schedule: schedule,
		logger:   logger,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	if schedule != "" {
		if _, err := r.parser.Parse(schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
	}
	return r, nil
}

// Run executes the job once, or blocks running it on schedule until ctx is
// done. In schedule mode a failed run is logged and the next tick proceeds.
func (r *Runner) Run(ctx context.Context) error {
	if r.schedule == "" {
		return r.job(ctx)
	}

	c := cron.New(
		cron.WithParser(r.parser),
		cron.WithChain(
			cron.Recover(cronLogger{r.logger}),
			cron.SkipIfStillRunning(cronLogger{r.logger}),
		),
	)

	_, err := c.AddFunc(r.schedule, func() { r.runScheduled(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule pull: %w", err)
	}

	c.Start()
	next := c.Entries()[0].Next
	r.logger.WithFields(logrus.Fields{
		"schedule": r.schedule,
		"next_run": next,
	}).Info("Scheduler started")

	<-ctx.Done()
	r.logger.Info("Context canceled, waiting for running pull to stop")
	<-c.Stop().Done()
	return ctx.Err()
}

// Runs is the number of scheduled runs started so far.
func (r *Runner) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// LastError is the result of the most recent scheduled run.
func (r *Runner) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Runner) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	r.runs++
	run := r.runs
	r.mu.Unlock()

	log := r.logger.WithField("scheduled_run", run)
	log.Info("Scheduled pull starting")

	err := r.job(ctx)

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		log.WithError(err).Error("Scheduled pull failed")
		return
	}
	log.Info("Scheduled pull finished")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithField("source", "cron").Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithField("source", "cron").WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
