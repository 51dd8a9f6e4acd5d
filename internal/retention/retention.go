// Package retention archives old events on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

type EventArchiver interface {
	ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type Job struct {
	archiver     EventArchiver
	archiveAfter time.Duration
	cron         *cron.Cron
}

// RunOnce archives every event older than the configured age.
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	archived, err := j.archiver.ArchiveOlderThan(ctx, j.archiveAfter)
	if err != nil {
		return 0, fmt.Errorf("archive events: %w", err)
	}
	return archived, nil
}

func (j *Job) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	archived, err := j.RunOnce(ctx)
	if err != nil {
		slog.Error("Event retention failed", "error", err)
		return
	}
	slog.Info("Event retention finished", "archived", archived)
}

func (j *Job) Start() {
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running archive pass.
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
}

func NewJob(archiver EventArchiver, schedule string, archiveAfter time.Duration) (*Job, error) {
	if archiveAfter <= 0 {
		return nil, fmt.Errorf("invalid archive age %s", archiveAfter)
	}
	j := &Job{
		archiver:     archiver,
		archiveAfter: archiveAfter,
		cron:         cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return j, nil
}
