package service

import (
	"context"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// ClientService manages the trainers a client works with
type ClientService struct {
	clientRepo  domain.ClientRepository
	linkRepo    domain.TrainerOfClientRepository
	trainerRepo domain.TrainerRepository
	userRepo    domain.UserRepository
}

func NewClientService(
	clientRepo domain.ClientRepository,
	linkRepo domain.TrainerOfClientRepository,
	trainerRepo domain.TrainerRepository,
	userRepo domain.UserRepository,
) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		linkRepo:    linkRepo,
		trainerRepo: trainerRepo,
		userRepo:    userRepo,
	}
}

// ListTrainers returns the caller's trainer links, favourites first
func (s *ClientService) ListTrainers(ctx context.Context, userID string) ([]*domain.TrainerOfClient, error) {
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.linkRepo.ListByClient(ctx, client.ID)
}

// AddTrainer links the caller to an active trainer
func (s *ClientService) AddTrainer(ctx context.Context, userID, trainerID string, favourite, foundByLink bool) (*domain.TrainerOfClient, error) {
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.IsActive {
		return nil, domain.ErrTrainerNotFound
	}
	if trainer.UserID == userID {
		return nil, domain.NewValidationError("trainer_id", "You can not add yourself as a trainer.")
	}

	link := &domain.TrainerOfClient{
		ClientID:    client.ID,
		TrainerID:   trainer.ID,
		Favourite:   favourite,
		FoundByLink: foundByLink,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// SetFavourite flags one of the caller's links
func (s *ClientService) SetFavourite(ctx context.Context, userID, linkID string, favourite bool) (*domain.TrainerOfClient, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}
	if err := s.linkRepo.SetFavourite(ctx, link.ID, favourite); err != nil {
		return nil, err
	}
	link.Favourite = favourite
	return link, nil
}

func (s *ClientService) RemoveTrainer(ctx context.Context, userID, linkID string) error {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return err
	}
	return s.linkRepo.Delete(ctx, link.ID)
}

func (s *ClientService) ownedLink(ctx context.Context, userID, linkID string) (*domain.TrainerOfClient, error) {
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.ClientID != client.ID {
		return nil, domain.ErrTrainerLinkMissing
	}
	return link, nil
}

// ClientOfTrainer is a client as seen by their trainer
type ClientOfTrainer struct {
	LinkID    string `json:"id"`
	ClientID  string `json:"client_id"`
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ListClients returns the clients linked to the caller's trainer profile
func (s *ClientService) ListClients(ctx context.Context, userID string) ([]*ClientOfTrainer, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	links, err := s.linkRepo.ListByTrainer(ctx, trainer.ID)
	if err != nil {
		return nil, err
	}

	out := make([]*ClientOfTrainer, 0, len(links))
	for _, link := range links {
		client, err := s.clientRepo.GetByID(ctx, link.ClientID)
		if err != nil {
			continue
		}
		c := &ClientOfTrainer{LinkID: link.ID, ClientID: client.ID, UserID: client.UserID}
		if user, err := s.userRepo.GetByID(ctx, client.UserID); err == nil {
			c.FirstName = user.FirstName
			c.LastName = user.LastName
		}
		out = append(out, c)
	}
	return out, nil
}
