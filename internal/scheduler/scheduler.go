// Package scheduler runs periodic maintenance jobs on robfig/cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one periodic task.
type Job struct {
	Name string
	// Spec is a robfig/cron expression or descriptor such as "@hourly".
	Spec string
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Start registers jobs and starts the cron runner. Jobs with an empty Spec are
// skipped. Overlapping runs of the same job are skipped rather than queued.
// Callers stop the runner with Stop and wait on the returned context.
func Start(jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	for _, j := range jobs {
		if j.Spec == "" {
			slog.Info("scheduler: job disabled", "job", j.Name)
			continue
		}
		job := j
		wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(func() { runOnce(job) }))
		if _, err := c.AddJob(job.Spec, wrapped); err != nil {
			return nil, fmt.Errorf("scheduler: invalid spec %q for job %s: %w", job.Spec, job.Name, err)
		}
		slog.Info("scheduler: job added", "job", job.Name, "spec", job.Spec)
	}
	c.Start()
	return c, nil
}

func runOnce(j Job) {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		slog.Error("scheduler: job failed", "job", j.Name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("scheduler: job finished", "job", j.Name, "duration", time.Since(start))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
