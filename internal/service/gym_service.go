package service

import (
	"context"
	"strings"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// GymService manages the gyms a trainer works at
type GymService struct {
	gymRepo     domain.GymRepository
	trainerRepo domain.TrainerRepository
}

func NewGymService(gymRepo domain.GymRepository, trainerRepo domain.TrainerRepository) *GymService {
	return &GymService{gymRepo: gymRepo, trainerRepo: trainerRepo}
}

// GymInput is the editable part of a gym
type GymInput struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

func (in GymInput) validate() error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "This field is required.")
	}
	if strings.TrimSpace(in.Address) == "" {
		v.Add("address", "This field is required.")
	}
	if in.Latitude == nil {
		v.Add("latitude", "This field is required.")
	} else if *in.Latitude < -90 || *in.Latitude > 90 {
		v.Add("latitude", "Ensure this value is between -90 and 90.")
	}
	if in.Longitude == nil {
		v.Add("longitude", "This field is required.")
	} else if *in.Longitude < -180 || *in.Longitude > 180 {
		v.Add("longitude", "Ensure this value is between -180 and 180.")
	}
	return v.OrNil()
}

func (s *GymService) ListForTrainer(ctx context.Context, viewerID, trainerID string) ([]*domain.Gym, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.VisibleTo(viewerID) {
		return nil, domain.ErrTrainerNotVisible
	}
	return s.gymRepo.ListByTrainer(ctx, trainer.ID)
}

func (s *GymService) Get(ctx context.Context, id string) (*domain.Gym, error) {
	return s.gymRepo.GetByID(ctx, id)
}

func (s *GymService) Create(ctx context.Context, userID string, in GymInput) (*domain.Gym, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	gym := &domain.Gym{
		TrainerID: trainer.ID,
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
	}
	if err := s.gymRepo.Create(ctx, gym); err != nil {
		return nil, err
	}
	return gym, nil
}

func (s *GymService) Update(ctx context.Context, userID, id string, in GymInput) (*domain.Gym, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	gym, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	gym.Name = strings.TrimSpace(in.Name)
	gym.Address = strings.TrimSpace(in.Address)
	gym.Latitude = *in.Latitude
	gym.Longitude = *in.Longitude
	if err := s.gymRepo.Update(ctx, gym); err != nil {
		return nil, err
	}
	return gym, nil
}

func (s *GymService) Delete(ctx context.Context, userID, id string) error {
	gym, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.gymRepo.Delete(ctx, gym.ID)
}

func (s *GymService) owned(ctx context.Context, userID, id string) (*domain.Gym, error) {
	gym, err := s.gymRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if gym.TrainerID != trainer.ID {
		return nil, domain.ErrForbidden
	}
	return gym, nil
}
