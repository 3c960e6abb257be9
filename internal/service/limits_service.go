package service

import (
	"context"
	"errors"

	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"golang.org/x/sync/errgroup"
)

// LimitsService resolves per-user content limits and current usage
type LimitsService struct {
	limitsRepo domain.LimitsRepository
	exercises  domain.LifecycleRepository
	workouts   domain.LifecycleRepository
	plans      domain.LifecycleRepository
	defaults   config.LimitsConfig
}

func NewLimitsService(
	limitsRepo domain.LimitsRepository,
	exercises, workouts, plans domain.LifecycleRepository,
	defaults config.LimitsConfig,
) *LimitsService {
	return &LimitsService{
		limitsRepo: limitsRepo,
		exercises:  exercises,
		workouts:   workouts,
		plans:      plans,
		defaults:   defaults,
	}
}

// LimitsReport is the response of GET /limits/me
type LimitsReport struct {
	Limits domain.FitnessLimits `json:"limits"`
	Usage  domain.FitnessUsage  `json:"usage"`
}

// Limits returns the user's override or the configured defaults
func (s *LimitsService) Limits(ctx context.Context, userID string) (domain.FitnessLimits, error) {
	limits, err := s.limitsRepo.Get(ctx, userID)
	if err == nil {
		return *limits, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.FitnessLimits{}, err
	}
	return domain.FitnessLimits{
		UserID:    userID,
		Workouts:  s.defaults.Workouts,
		Exercises: s.defaults.Exercises,
		Plans:     s.defaults.Plans,
	}, nil
}

// Usage counts the content the user owns
func (s *LimitsService) Usage(ctx context.Context, userID string) (domain.FitnessUsage, error) {
	var usage domain.FitnessUsage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		usage.Exercises, err = s.exercises.CountByCreator(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		usage.Workouts, err = s.workouts.CountByCreator(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		usage.Plans, err = s.plans.CountByCreator(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.FitnessUsage{}, err
	}
	return usage, nil
}

func (s *LimitsService) Report(ctx context.Context, userID string) (*LimitsReport, error) {
	limits, err := s.Limits(ctx, userID)
	if err != nil {
		return nil, err
	}
	usage, err := s.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LimitsReport{Limits: limits, Usage: usage}, nil
}

// Check fails with domain.ErrLimitReached when adding the given amounts
// would exceed the user's limits
func (s *LimitsService) Check(ctx context.Context, userID string, exercises, workouts, plans int) error {
	report, err := s.Report(ctx, userID)
	if err != nil {
		return err
	}
	return report.Limits.Allow(report.Usage, exercises, workouts, plans)
}

// Set stores an override for a user
func (s *LimitsService) Set(ctx context.Context, limits domain.FitnessLimits) error {
	if limits.Workouts <= 0 || limits.Exercises <= 0 || limits.Plans <= 0 {
		return domain.NewValidationError("", "Limits must be positive.")
	}
	return s.limitsRepo.Upsert(ctx, &limits)
}
