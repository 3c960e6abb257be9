package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// SessionService books workout sessions between trainers and their clients
type SessionService struct {
	sessionRepo domain.WorkoutSessionRepository
	trainerRepo domain.TrainerRepository
	clientRepo  domain.ClientRepository
	linkRepo    domain.TrainerOfClientRepository
}

func NewSessionService(
	sessionRepo domain.WorkoutSessionRepository,
	trainerRepo domain.TrainerRepository,
	clientRepo domain.ClientRepository,
	linkRepo domain.TrainerOfClientRepository,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		trainerRepo: trainerRepo,
		clientRepo:  clientRepo,
		linkRepo:    linkRepo,
	}
}

// SessionInput describes a booking. Clients give TrainerID, trainers give
// ClientID; the other side is the caller.
type SessionInput struct {
	TrainerID string
	ClientID  string
	Start     time.Time
	Duration  int
}

// participant holds the profiles of the caller
type participant struct {
	client  *domain.Client
	trainer *domain.Trainer
}

func (s *SessionService) participant(ctx context.Context, userID string) (*participant, error) {
	p := &participant{}
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
		return nil, err
	}
	p.client = client
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrTrainerNotFound) {
		return nil, err
	}
	p.trainer = trainer
	return p, nil
}

func (p *participant) takesPart(session *domain.WorkoutSession) bool {
	return (p.client != nil && p.client.ID == session.ClientID) ||
		(p.trainer != nil && p.trainer.ID == session.TrainerID)
}

// List returns the caller's sessions as client or trainer inside [from, to)
func (s *SessionService) List(ctx context.Context, userID string, from, to time.Time) ([]*domain.WorkoutSession, error) {
	p, err := s.participant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*domain.WorkoutSession
	if p.client != nil {
		sessions, err := s.sessionRepo.ListByClient(ctx, p.client.ID, from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, sessions...)
	}
	if p.trainer != nil && p.trainer.IsActive {
		sessions, err := s.sessionRepo.ListByTrainer(ctx, p.trainer.ID, from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, sessions...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if out == nil {
		out = []*domain.WorkoutSession{}
	}
	return out, nil
}

func (s *SessionService) Get(ctx context.Context, userID, id string) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.participant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.takesPart(session) {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

func (s *SessionService) Create(ctx context.Context, userID string, in SessionInput) (*domain.WorkoutSession, error) {
	p, err := s.participant(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := &domain.WorkoutSession{Start: in.Start, Duration: in.Duration}
	switch {
	case in.TrainerID != "" && p.client != nil:
		session.TrainerID = in.TrainerID
		session.ClientID = p.client.ID
	case in.ClientID != "" && p.trainer != nil && p.trainer.IsActive:
		session.TrainerID = p.trainer.ID
		session.ClientID = in.ClientID
	default:
		return nil, domain.NewValidationError("", "Either trainer_id or client_id is required.")
	}

	if err := s.check(ctx, session); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Reschedule moves a session; both participants may do it
func (s *SessionService) Reschedule(ctx context.Context, userID, id string, start time.Time, duration int) (*domain.WorkoutSession, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	session.Start = start
	session.Duration = duration
	if err := s.check(ctx, session); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Cancel(ctx context.Context, userID, id string) error {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.sessionRepo.Delete(ctx, session.ID)
}

// check applies the booking rules: link, trainer schedule, no overlap
func (s *SessionService) check(ctx context.Context, session *domain.WorkoutSession) error {
	if session.Start.IsZero() {
		return domain.NewValidationError("start", "This field is required.")
	}
	trainer, err := s.trainerRepo.GetByID(ctx, session.TrainerID)
	if err != nil {
		return err
	}
	if _, err := s.linkRepo.Get(ctx, session.ClientID, trainer.ID); err != nil {
		return err
	}
	if err := domain.CheckBookable(trainer, session); err != nil {
		return err
	}

	busy, err := s.sessionRepo.ListByTrainer(ctx, trainer.ID, session.Start, session.Finish())
	if err != nil {
		return err
	}
	for _, other := range busy {
		if other.ID != session.ID && other.Overlaps(session) {
			return domain.ErrSessionOverlap
		}
	}
	return nil
}
