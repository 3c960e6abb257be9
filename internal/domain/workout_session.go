package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionNotFound    = errors.New("workout session not found")
	ErrSessionOverlap     = errors.New("trainer already has a session at this time")
	ErrTrainerUnavailable = errors.New("trainer is not available at this time")
)

// WorkoutSession is a booked training between a trainer and a client
type WorkoutSession struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TrainerID string    `json:"trainer_id" bson:"trainer_id"`
	ClientID  string    `json:"client_id" bson:"client_id"`
	Start     time.Time `json:"start" bson:"start"`
	Duration  int       `json:"duration" bson:"duration"` // minutes
	End       time.Time `json:"end" bson:"end"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Finish returns the end of the session
func (s *WorkoutSession) Finish() time.Time {
	return s.Start.Add(time.Duration(s.Duration) * time.Minute)
}

// Overlaps reports whether the two sessions share any time
func (s *WorkoutSession) Overlaps(other *WorkoutSession) bool {
	return s.Start.Before(other.Finish()) && other.Start.Before(s.Finish())
}

type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *WorkoutSession) error
	GetByID(ctx context.Context, id string) (*WorkoutSession, error)
	// ListByTrainer returns sessions of a trainer overlapping [from, to)
	ListByTrainer(ctx context.Context, trainerID string, from, to time.Time) ([]*WorkoutSession, error)
	ListByClient(ctx context.Context, clientID string, from, to time.Time) ([]*WorkoutSession, error)
	Update(ctx context.Context, session *WorkoutSession) error
	Delete(ctx context.Context, id string) error
	DeleteByTrainer(ctx context.Context, trainerID string) error
	DeleteByClient(ctx context.Context, clientID string) error
}

// CheckBookable validates a session against the trainer's schedule rules.
// Times are compared in the location of session.Start.
func CheckBookable(trainer *Trainer, session *WorkoutSession) error {
	v := &ValidationError{}
	if !trainer.IsActive {
		return fmt.Errorf("%w: trainer is not active", ErrTrainerUnavailable)
	}
	if session.Duration < trainer.MinimumWorkoutDuration {
		v.Add("duration", fmt.Sprintf("Duration must be at least %d minutes.", trainer.MinimumWorkoutDuration))
	}
	if step := trainer.WorkoutDurationDividedByValue; step > 0 && session.Duration%step != 0 {
		v.Add("duration", fmt.Sprintf("Duration must be a multiple of %d minutes.", step))
	}
	if v.HasErrors() {
		return v
	}

	start := session.Start
	finish := session.Finish()
	if !truncateDay(start).Equal(truncateDay(finish.Add(-time.Nanosecond))) {
		return fmt.Errorf("%w: session must end on the same day", ErrTrainerUnavailable)
	}
	if trainer.IsWeekend(WeekdayOf(start)) {
		return fmt.Errorf("%w: %s is a day off", ErrTrainerUnavailable, WeekdayOf(start))
	}
	if trainer.OnHoliday(start) {
		return fmt.Errorf("%w: trainer is on holiday", ErrTrainerUnavailable)
	}

	from := start.Hour()*60 + start.Minute()
	to := from + session.Duration
	if trainer.WorkHours != nil {
		open, closing, err := trainer.WorkHours.Bounds()
		if err == nil && (from < open || to > closing) {
			return fmt.Errorf("%w: outside work hours %s-%s", ErrTrainerUnavailable, trainer.WorkHours.Start, trainer.WorkHours.End)
		}
	}
	for _, b := range trainer.Breaks {
		bs, be, err := b.Bounds()
		if err != nil {
			continue
		}
		if from < be && bs < to {
			return fmt.Errorf("%w: overlaps a break %s-%s", ErrTrainerUnavailable, b.Start, b.End)
		}
	}
	return nil
}
