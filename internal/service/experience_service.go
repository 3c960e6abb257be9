package service

import (
	"context"
	"strings"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// ExperienceService manages trainer experiences and keeps the trainer's
// whole experience in sync
type ExperienceService struct {
	experienceRepo domain.ExperienceRepository
	trainerRepo    domain.TrainerRepository
	now            func() time.Time
}

func NewExperienceService(experienceRepo domain.ExperienceRepository, trainerRepo domain.TrainerRepository) *ExperienceService {
	return &ExperienceService{
		experienceRepo: experienceRepo,
		trainerRepo:    trainerRepo,
		now:            time.Now,
	}
}

// ExperienceInput is the editable part of an experience
type ExperienceInput struct {
	CompanyName string
	Position    string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
}

func (in ExperienceInput) validate() error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(in.CompanyName) == "" {
		v.Add("company_name", "This field is required.")
	}
	if strings.TrimSpace(in.Position) == "" {
		v.Add("position", "This field is required.")
	}
	if in.StartDate.IsZero() {
		v.Add("start_date", "This field is required.")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		v.Add("end_date", "end_date must not be before start_date.")
	}
	return v.OrNil()
}

// ListForTrainer returns the experiences of a visible trainer
func (s *ExperienceService) ListForTrainer(ctx context.Context, viewerID, trainerID string) ([]*domain.Experience, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.VisibleTo(viewerID) {
		return nil, domain.ErrTrainerNotVisible
	}
	return s.experienceRepo.ListByTrainer(ctx, trainer.ID)
}

func (s *ExperienceService) Get(ctx context.Context, id string) (*domain.Experience, error) {
	return s.experienceRepo.GetByID(ctx, id)
}

func (s *ExperienceService) Create(ctx context.Context, userID string, in ExperienceInput) (*domain.Experience, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	exp := &domain.Experience{
		TrainerID:   trainer.ID,
		CompanyName: strings.TrimSpace(in.CompanyName),
		Position:    strings.TrimSpace(in.Position),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if err := s.experienceRepo.Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, s.Recalculate(ctx, trainer.ID)
}

func (s *ExperienceService) Update(ctx context.Context, userID, id string, in ExperienceInput) (*domain.Experience, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	exp, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	exp.CompanyName = strings.TrimSpace(in.CompanyName)
	exp.Position = strings.TrimSpace(in.Position)
	exp.Description = in.Description
	exp.StartDate = in.StartDate
	exp.EndDate = in.EndDate
	if err := s.experienceRepo.Update(ctx, exp); err != nil {
		return nil, err
	}
	return exp, s.Recalculate(ctx, exp.TrainerID)
}

func (s *ExperienceService) Delete(ctx context.Context, userID, id string) error {
	exp, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.experienceRepo.Delete(ctx, exp.ID); err != nil {
		return err
	}
	return s.Recalculate(ctx, exp.TrainerID)
}

func (s *ExperienceService) owned(ctx context.Context, userID, id string) (*domain.Experience, error) {
	exp, err := s.experienceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exp.TrainerID != trainer.ID {
		return nil, domain.ErrForbidden
	}
	return exp, nil
}

// Recalculate stores the trainer's whole experience in years
func (s *ExperienceService) Recalculate(ctx context.Context, trainerID string) error {
	exps, err := s.experienceRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	return s.trainerRepo.UpdateWholeExperience(ctx, trainerID, domain.WholeExperience(exps, s.now()))
}

// RecalculateOngoing refreshes trainers whose experience grows every day
// and returns how many were updated
func (s *ExperienceService) RecalculateOngoing(ctx context.Context) (int, error) {
	ids, err := s.experienceRepo.TrainersWithOngoing(ctx)
	if err != nil {
		return 0, err
	}
	return s.recalculateMany(ctx, ids)
}

// RecalculateAll refreshes every trainer that has experiences
func (s *ExperienceService) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := s.experienceRepo.ListTrainerIDs(ctx)
	if err != nil {
		return 0, err
	}
	return s.recalculateMany(ctx, ids)
}

func (s *ExperienceService) recalculateMany(ctx context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if err := s.Recalculate(ctx, id); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
