package domain

import (
	"context"
	"errors"
	"fmt"
)

var ErrLimitReached = errors.New("content limit reached")

// FitnessLimits caps how much content one user may own
type FitnessLimits struct {
	UserID    string `bson:"_id" json:"-"`
	Workouts  int    `bson:"workouts" json:"workouts"`
	Exercises int    `bson:"exercises" json:"exercises"`
	Plans     int    `bson:"weekly_plans" json:"weekly_plans"`
}

// FitnessUsage counts what a user currently owns
type FitnessUsage struct {
	Workouts  int64 `json:"workouts"`
	Exercises int64 `json:"exercises"`
	Plans     int64 `json:"weekly_plans"`
}

// Allow checks that adding the given amounts stays within the limits
func (l FitnessLimits) Allow(usage FitnessUsage, exercises, workouts, plans int) error {
	if exercises > 0 && usage.Exercises+int64(exercises) > int64(l.Exercises) {
		return fmt.Errorf("%w: at most %d exercises", ErrLimitReached, l.Exercises)
	}
	if workouts > 0 && usage.Workouts+int64(workouts) > int64(l.Workouts) {
		return fmt.Errorf("%w: at most %d workouts", ErrLimitReached, l.Workouts)
	}
	if plans > 0 && usage.Plans+int64(plans) > int64(l.Plans) {
		return fmt.Errorf("%w: at most %d weekly plans", ErrLimitReached, l.Plans)
	}
	return nil
}

// LimitsRepository stores per-user overrides of the default limits
type LimitsRepository interface {
	// Get returns ErrNotFound when the user has no override
	Get(ctx context.Context, userID string) (*FitnessLimits, error)
	Upsert(ctx context.Context, limits *FitnessLimits) error
	Delete(ctx context.Context, userID string) error
}
