// Package jobs runs periodic maintenance of derived data on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/telemetry"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

// Job names, also used as metric labels and CLI commands
const (
	ExperienceRecalc = "experience_recalc"
	TokenPurge       = "token_purge"
	OrphanPurge      = "orphan_purge"
	RatingRefresh    = "rating_refresh"
)

// ExperienceRecalculator refreshes whole experience of trainers
type ExperienceRecalculator interface {
	RecalculateOngoing(ctx context.Context) (int, error)
}

// TokenPurger drops expired refresh tokens
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// OrphanPurger drops content nobody can reach
type OrphanPurger interface {
	PurgeOrphans(ctx context.Context) (int64, error)
}

// RatingRefresher recomputes user ratings from reviews
type RatingRefresher interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// Tasks are the operations the scheduler runs
type Tasks struct {
	Experience ExperienceRecalculator
	Tokens     TokenPurger
	Orphans    OrphanPurger
	Ratings    RatingRefresher
}

// Scheduler wraps a cron runner with the maintenance jobs registered
type Scheduler struct {
	cron   *cron.Cron
	tasks  Tasks
	logger *slog.Logger
}

// NewScheduler registers every job with its schedule from cfg
func NewScheduler(cfg config.JobsConfig, tasks Tasks, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		tasks:  tasks,
		logger: logger.With("component", "jobs"),
	}

	schedule := map[string]string{
		ExperienceRecalc: cfg.ExperienceSpec,
		TokenPurge:       cfg.TokenPurgeSpec,
		OrphanPurge:      cfg.OrphanPurgeSpec,
		RatingRefresh:    cfg.RatingRefreshSpec,
	}
	for name, spec := range schedule {
		name := name
		if _, err := s.cron.AddFunc(spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
		}
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out")
	}
}

// Run executes one job by name and records its outcome
func (s *Scheduler) Run(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	affected, err := s.run(ctx, name)
	telemetry.RecordJobRun(name, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "job failed", "job", name, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "job finished", "job", name, "affected", affected, "duration", time.Since(start))
	return nil
}

func (s *Scheduler) run(ctx context.Context, name string) (int64, error) {
	switch name {
	case ExperienceRecalc:
		n, err := s.tasks.Experience.RecalculateOngoing(ctx)
		return int64(n), err
	case TokenPurge:
		return s.tasks.Tokens.PurgeExpired(ctx)
	case OrphanPurge:
		return s.tasks.Orphans.PurgeOrphans(ctx)
	case RatingRefresh:
		n, err := s.tasks.Ratings.RecalculateAll(ctx)
		return int64(n), err
	default:
		return 0, fmt.Errorf("unknown job %q", name)
	}
}
