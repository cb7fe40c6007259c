// Package scheduler runs a task on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on spec (standard 5-field cron or a
// descriptor such as "@every 1h") until ctx is done. Overlapping ticks are
// skipped while a previous run is still going. It returns once ctx is done and
// the running task, if any, has finished.
func Every(ctx context.Context, spec, name string, task Task, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("task", name))

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("task failed", zap.Error(err))
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(run))

	run()
	if ctx.Err() != nil {
		return nil
	}

	c.Start()
	log.Info("scheduled", zap.String("spec", spec))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
