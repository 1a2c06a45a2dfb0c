// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPurgeSchedule runs the upload purge daily at 3:00 AM.
const DefaultPurgeSchedule = "0 3 * * *"

// Purger deletes stored uploads created before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	files     Purger
	retention time.Duration
	schedule  string
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that purges uploads older than retention.
func NewScheduler(files Purger, retention time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field format, no seconds.
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		files:     files,
		retention: retention,
		schedule:  DefaultPurgeSchedule,
		now:       time.Now,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.purgeExpiredUploads() }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Duration("retention", s.retention),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the purge immediately and returns how many files were removed.
func (s *Scheduler) RunNow() int {
	return s.purgeExpiredUploads()
}

func (s *Scheduler) purgeExpiredUploads() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	s.logger.Info("starting upload purge", slog.Time("cutoff", cutoff))

	removed, err := s.files.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("upload purge failed",
			slog.Int("files_removed", removed),
			slog.Any("error", err),
		)
		return removed
	}

	s.logger.Info("upload purge completed", slog.Int("files_removed", removed))
	return removed
}
