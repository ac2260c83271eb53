package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"intellect/internal/db"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily retention purge of the usage ledger. Rolling
// windows only ever look back one window, so purging rows past the retention
// cutoff never changes a gate decision.
type Scheduler struct {
	db        db.Service
	c         *cron.Cron
	retention time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler with the given ledger retention.
func New(dbService db.Service, retention time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		db:        dbService,
		c:         cron.New(),
		retention: retention,
		logger:    log.With("component", "scheduler"),
	}
}

// Start registers the daily purge job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.c.AddFunc("@daily", s.purgeUsage)
	if err != nil {
		return fmt.Errorf("failed to schedule daily usage purge: %w", err)
	}
	s.c.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.c.Stop()
	<-ctx.Done()
}

func (s *Scheduler) purgeUsage() {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.db.PurgeUsageBefore(cutoff)
	if err != nil {
		s.logger.Error("Failed to purge usage records", "error", err)
		return
	}
	s.logger.Info("Purged usage records past retention", "removed", removed, "cutoff", cutoff)
}
