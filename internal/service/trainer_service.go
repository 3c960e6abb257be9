package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// TrainerService manages trainer profiles, schedules and search
type TrainerService struct {
	trainerRepo domain.TrainerRepository
	userRepo    domain.UserRepository
	media       domain.MediaStorage
}

func NewTrainerService(trainerRepo domain.TrainerRepository, userRepo domain.UserRepository, media domain.MediaStorage) *TrainerService {
	return &TrainerService{
		trainerRepo: trainerRepo,
		userRepo:    userRepo,
		media:       media,
	}
}

// TrainerProfile is a trainer with the public fields of its owner
type TrainerProfile struct {
	*domain.TrainerWithUser
	AvatarURL string  `json:"avatar"`
	Rating    float64 `json:"rating"`
	Score     float64 `json:"score,omitempty"`
}

func (s *TrainerService) profile(t *domain.TrainerWithUser, rating float64, score float64) *TrainerProfile {
	p := &TrainerProfile{TrainerWithUser: t, Rating: rating, Score: score}
	if t.Avatar != "" {
		p.AvatarURL = s.media.URL(t.Avatar)
	}
	return p
}

// Get returns a trainer profile visible to viewerID
func (s *TrainerService) Get(ctx context.Context, viewerID, trainerID string) (*TrainerProfile, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.VisibleTo(viewerID) {
		return nil, domain.ErrTrainerNotVisible
	}
	user, err := s.userRepo.GetByID(ctx, trainer.UserID)
	if err != nil {
		return nil, err
	}
	return s.profile(&domain.TrainerWithUser{
		Trainer:   *trainer,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}, user.Rating.Rating, 0), nil
}

// Mine returns the caller's own trainer profile
func (s *TrainerService) Mine(ctx context.Context, userID string) (*domain.Trainer, error) {
	return s.trainerRepo.GetByUserID(ctx, userID)
}

// ProfileInput is a partial trainer profile update. Nil fields are left alone.
type ProfileInput struct {
	Description                   *string
	Address                       *string
	IsPublic                      *bool
	IsMale                        *bool
	PricePerHour                  *float64
	MinimumWorkoutDuration        *int
	WorkoutDurationDividedByValue *int
}

func (s *TrainerService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.Trainer, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := &domain.ValidationError{}
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > domain.MaxTrainerDescription {
			v.Add("description", fmt.Sprintf("Ensure this field has no more than %d characters.", domain.MaxTrainerDescription))
		}
		trainer.Description = strings.TrimSpace(*in.Description)
	}
	if in.Address != nil {
		trainer.Address = strings.TrimSpace(*in.Address)
	}
	if in.IsPublic != nil {
		trainer.IsPublic = *in.IsPublic
	}
	if in.IsMale != nil {
		trainer.IsMale = *in.IsMale
	}
	if in.PricePerHour != nil {
		if *in.PricePerHour < 0 {
			v.Add("price_per_hour", "Ensure this value is greater than or equal to 0.")
		}
		trainer.PricePerHour = *in.PricePerHour
	}
	if in.MinimumWorkoutDuration != nil {
		if *in.MinimumWorkoutDuration <= 0 {
			v.Add("minimum_workout_duration", "Ensure this value is greater than 0.")
		}
		trainer.MinimumWorkoutDuration = *in.MinimumWorkoutDuration
	}
	if in.WorkoutDurationDividedByValue != nil {
		if *in.WorkoutDurationDividedByValue <= 0 {
			v.Add("workout_duration_divided_by_value", "Ensure this value is greater than 0.")
		}
		trainer.WorkoutDurationDividedByValue = *in.WorkoutDurationDividedByValue
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, err
	}
	return trainer, nil
}

// WorkHours is the schedule block of a trainer
type WorkHours struct {
	TrainerID string            `json:"trainer_id"`
	WorkHours *domain.TimeRange `json:"work_hours"`
	Weekends  []domain.Weekday  `json:"weekends"`
	Breaks    []domain.Break    `json:"breaks"`
	Holidays  []domain.Holiday  `json:"holidays"`
}

// GetWorkHours returns the schedule of a visible trainer
func (s *TrainerService) GetWorkHours(ctx context.Context, viewerID, trainerID string) (*WorkHours, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.VisibleTo(viewerID) {
		return nil, domain.ErrTrainerNotVisible
	}
	return &WorkHours{
		TrainerID: trainer.ID,
		WorkHours: trainer.WorkHours,
		Weekends:  trainer.Weekends,
		Breaks:    trainer.Breaks,
		Holidays:  trainer.Holidays,
	}, nil
}

func (s *TrainerService) SetWorkHours(ctx context.Context, userID string, hours domain.TimeRange) (*domain.Trainer, error) {
	if _, _, err := hours.Bounds(); err != nil {
		return nil, domain.NewValidationError("work_hours", err.Error())
	}
	return s.mutate(ctx, userID, func(t *domain.Trainer) error {
		t.WorkHours = &hours
		return nil
	})
}

// SetWeekends replaces the days off; duplicates are dropped
func (s *TrainerService) SetWeekends(ctx context.Context, userID string, days []domain.Weekday) (*domain.Trainer, error) {
	seen := make(map[domain.Weekday]bool, len(days))
	weekends := make([]domain.Weekday, 0, len(days))
	for _, d := range days {
		if !d.Valid() {
			return nil, domain.NewValidationError("weekends", "Week day must be between 0 and 6.")
		}
		if !seen[d] {
			seen[d] = true
			weekends = append(weekends, d)
		}
	}
	sort.Slice(weekends, func(i, j int) bool { return weekends[i] < weekends[j] })

	return s.mutate(ctx, userID, func(t *domain.Trainer) error {
		t.Weekends = weekends
		return nil
	})
}

func (s *TrainerService) AddBreak(ctx context.Context, userID string, r domain.TimeRange) (*domain.Break, error) {
	if _, _, err := r.Bounds(); err != nil {
		return nil, domain.NewValidationError("break", err.Error())
	}
	b := domain.Break{ID: newID(), TimeRange: r}
	_, err := s.mutate(ctx, userID, func(t *domain.Trainer) error {
		t.Breaks = append(t.Breaks, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *TrainerService) RemoveBreak(ctx context.Context, userID, breakID string) error {
	_, err := s.mutate(ctx, userID, func(t *domain.Trainer) error {
		for i, b := range t.Breaks {
			if b.ID == breakID {
				t.Breaks = append(t.Breaks[:i], t.Breaks[i+1:]...)
				return nil
			}
		}
		return domain.ErrBreakNotFound
	})
	return err
}

func (s *TrainerService) AddHoliday(ctx context.Context, userID string, h domain.Holiday) (*domain.Holiday, error) {
	if h.StartDate.IsZero() || h.EndDate.IsZero() {
		return nil, domain.NewValidationError("holiday", "Both start_date and end_date are required.")
	}
	if h.EndDate.Before(h.StartDate) {
		return nil, domain.NewValidationError("holiday", "start_date must not be after end_date.")
	}
	h.ID = newID()
	_, err := s.mutate(ctx, userID, func(t *domain.Trainer) error {
		t.Holidays = append(t.Holidays, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *TrainerService) RemoveHoliday(ctx context.Context, userID, holidayID string) error {
	_, err := s.mutate(ctx, userID, func(t *domain.Trainer) error {
		for i, h := range t.Holidays {
			if h.ID == holidayID {
				t.Holidays = append(t.Holidays[:i], t.Holidays[i+1:]...)
				return nil
			}
		}
		return domain.ErrHolidayNotFound
	})
	return err
}

func (s *TrainerService) mutate(ctx context.Context, userID string, fn func(*domain.Trainer) error) (*domain.Trainer, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(trainer); err != nil {
		return nil, err
	}
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, err
	}
	return trainer, nil
}

// SearchInput is a trainer search request
type SearchInput struct {
	Query  string
	Filter domain.TrainerFilter
}

// Search filters trainers in the store and ranks them by trigram similarity
func (s *TrainerService) Search(ctx context.Context, in SearchInput) ([]*TrainerProfile, error) {
	f := in.Filter
	if f.MinPricePerHour != nil && f.MaxPricePerHour != nil && *f.MinPricePerHour > *f.MaxPricePerHour {
		return nil, domain.NewValidationError("min_price_per_hour", "Must not be greater than max_price_per_hour.")
	}

	candidates, err := s.trainerRepo.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	ranked := domain.RankTrainers(in.Query, candidates)
	out := make([]*TrainerProfile, 0, len(ranked))
	ratings := s.ratings(ctx, ranked)
	for _, r := range ranked {
		out = append(out, s.profile(r.TrainerWithUser, ratings[r.UserID], r.Score))
	}
	return out, nil
}

func (s *TrainerService) ratings(ctx context.Context, ranked []*domain.ScoredTrainer) map[string]float64 {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.UserID)
	}
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Rating.Rating
	}
	return out
}
