package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
	"jan-server/services/assistant-api/pkg/observability/worker"
)

const (
	CleanupJobName = "cleanup_stale_uploads"
	CronJobTimeout = 10 * time.Minute // Timeout for each cron job execution
)

// StaleUploadCleaner removes uploads that never finished.
type StaleUploadCleaner interface {
	CleanupStaleUploads(ctx context.Context, updatedBefore time.Time) (int, error)
}

type Crontab struct {
	ctab       *crontab.Crontab
	cleaner    StaleUploadCleaner
	jobs       *worker.JobInstrumenter
	schedule   string
	staleAfter time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewCrontab(cfg *config.Config, cleaner StaleUploadCleaner, jobs *worker.JobInstrumenter, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:       crontab.New(),
		cleaner:    cleaner,
		jobs:       jobs,
		schedule:   cfg.CleanupSchedule(),
		staleAfter: cfg.CleanupStaleAfter,
		now:        time.Now,
		log:        log.With().Str("component", "crontab").Logger(),
	}
}

// Run sweeps stale uploads once, schedules the sweep and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	// execute once on server start
	c.CleanupStaleUploads(ctx)

	if err := c.ctab.AddJob(c.schedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.CleanupStaleUploads(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add stale upload cleanup job")
	}
	c.log.Info().Str("schedule", c.schedule).Msg("stale upload cleanup scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// CleanupStaleUploads deletes in progress uploads untouched for longer than the stale window.
func (c *Crontab) CleanupStaleUploads(ctx context.Context) {
	err := c.jobs.Run(ctx, CleanupJobName, func(ctx context.Context) error {
		removed, err := c.cleaner.CleanupStaleUploads(ctx, c.now().Add(-c.staleAfter))
		if err != nil {
			return err
		}
		metrics.RecordStaleUploadsRemoved(removed)
		if removed > 0 {
			c.log.Info().Int("removed", removed).Msg("removed stale uploads")
		}
		return nil
	})
	if err != nil {
		c.log.Error().Err(err).Msg("stale upload cleanup failed")
	}
}
