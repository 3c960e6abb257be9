package service

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/stretchr/testify/require"
)

// records is an in-memory collection with generated ids
type records[T any] struct {
	prefix   string
	seq      int
	items    []*T
	idOf     func(*T) *string
	notFound error
}

func (r *records[T]) create(item *T) {
	r.seq++
	*r.idOf(item) = fmt.Sprintf("%s-%d", r.prefix, r.seq)
	cp := *item
	r.items = append(r.items, &cp)
}

func (r *records[T]) get(id string) (*T, error) {
	for _, item := range r.items {
		if *r.idOf(item) == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, r.notFound
}

func (r *records[T]) update(item *T) error {
	for i, o := range r.items {
		if *r.idOf(o) == *r.idOf(item) {
			cp := *item
			r.items[i] = &cp
			return nil
		}
	}
	return r.notFound
}

func (r *records[T]) delete(id string) error {
	n := len(r.items)
	r.deleteWhere(func(item *T) bool { return *r.idOf(item) == id })
	if len(r.items) == n {
		return r.notFound
	}
	return nil
}

func (r *records[T]) deleteWhere(match func(*T) bool) {
	r.items = slices.DeleteFunc(r.items, match)
}

func (r *records[T]) filter(keep func(*T) bool) []*T {
	out := []*T{}
	for _, item := range r.items {
		if keep(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out
}

type fakeExperiences struct {
	records[domain.Experience]
}

func newFakeExperiences() *fakeExperiences {
	return &fakeExperiences{records[domain.Experience]{
		prefix:   "experience",
		idOf:     func(e *domain.Experience) *string { return &e.ID },
		notFound: domain.ErrExperienceNotFound,
	}}
}

func (f *fakeExperiences) Create(_ context.Context, exp *domain.Experience) error {
	f.create(exp)
	return nil
}

func (f *fakeExperiences) GetByID(_ context.Context, id string) (*domain.Experience, error) {
	return f.get(id)
}

func (f *fakeExperiences) ListByTrainer(_ context.Context, trainerID string) ([]*domain.Experience, error) {
	return f.filter(func(e *domain.Experience) bool { return e.TrainerID == trainerID }), nil
}

func (f *fakeExperiences) trainerIDs(keep func(*domain.Experience) bool) []string {
	var ids []string
	for _, e := range f.filter(keep) {
		if !slices.Contains(ids, e.TrainerID) {
			ids = append(ids, e.TrainerID)
		}
	}
	return ids
}

func (f *fakeExperiences) TrainersWithOngoing(context.Context) ([]string, error) {
	return f.trainerIDs(func(e *domain.Experience) bool { return e.EndDate == nil }), nil
}

func (f *fakeExperiences) ListTrainerIDs(context.Context) ([]string, error) {
	return f.trainerIDs(func(*domain.Experience) bool { return true }), nil
}

func (f *fakeExperiences) Update(_ context.Context, exp *domain.Experience) error {
	return f.update(exp)
}

func (f *fakeExperiences) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeExperiences) DeleteByTrainer(_ context.Context, trainerID string) error {
	f.deleteWhere(func(e *domain.Experience) bool { return e.TrainerID == trainerID })
	return nil
}

type fakeGyms struct {
	records[domain.Gym]
}

func newFakeGyms() *fakeGyms {
	return &fakeGyms{records[domain.Gym]{
		prefix:   "gym",
		idOf:     func(g *domain.Gym) *string { return &g.ID },
		notFound: domain.ErrGymNotFound,
	}}
}

func (f *fakeGyms) Create(_ context.Context, gym *domain.Gym) error {
	f.create(gym)
	return nil
}

func (f *fakeGyms) GetByID(_ context.Context, id string) (*domain.Gym, error) { return f.get(id) }

func (f *fakeGyms) ListByTrainer(_ context.Context, trainerID string) ([]*domain.Gym, error) {
	return f.filter(func(g *domain.Gym) bool { return g.TrainerID == trainerID }), nil
}

func (f *fakeGyms) Update(_ context.Context, gym *domain.Gym) error { return f.update(gym) }

func (f *fakeGyms) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeGyms) DeleteByTrainer(_ context.Context, trainerID string) error {
	f.deleteWhere(func(g *domain.Gym) bool { return g.TrainerID == trainerID })
	return nil
}

type fakeLinks struct {
	records[domain.TrainerOfClient]
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{records[domain.TrainerOfClient]{
		prefix:   "link",
		idOf:     func(l *domain.TrainerOfClient) *string { return &l.ID },
		notFound: domain.ErrTrainerLinkMissing,
	}}
}

func (f *fakeLinks) Create(_ context.Context, link *domain.TrainerOfClient) error {
	if _, err := f.Get(context.Background(), link.ClientID, link.TrainerID); err == nil {
		return domain.ErrTrainerLinkExists
	}
	f.create(link)
	return nil
}

func (f *fakeLinks) GetByID(_ context.Context, id string) (*domain.TrainerOfClient, error) {
	return f.get(id)
}

func (f *fakeLinks) Get(_ context.Context, clientID, trainerID string) (*domain.TrainerOfClient, error) {
	hits := f.filter(func(l *domain.TrainerOfClient) bool { return l.ClientID == clientID && l.TrainerID == trainerID })
	if len(hits) == 0 {
		return nil, domain.ErrTrainerLinkMissing
	}
	return hits[0], nil
}

func (f *fakeLinks) ListByClient(_ context.Context, clientID string) ([]*domain.TrainerOfClient, error) {
	out := f.filter(func(l *domain.TrainerOfClient) bool { return l.ClientID == clientID })
	slices.SortStableFunc(out, func(a, b *domain.TrainerOfClient) int {
		switch {
		case a.Favourite == b.Favourite:
			return 0
		case a.Favourite:
			return -1
		default:
			return 1
		}
	})
	return out, nil
}

func (f *fakeLinks) ListByTrainer(_ context.Context, trainerID string) ([]*domain.TrainerOfClient, error) {
	return f.filter(func(l *domain.TrainerOfClient) bool { return l.TrainerID == trainerID }), nil
}

func (f *fakeLinks) SetFavourite(_ context.Context, id string, favourite bool) error {
	l, err := f.get(id)
	if err != nil {
		return err
	}
	l.Favourite = favourite
	return f.update(l)
}

func (f *fakeLinks) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeLinks) DeleteByClient(_ context.Context, clientID string) error {
	f.deleteWhere(func(l *domain.TrainerOfClient) bool { return l.ClientID == clientID })
	return nil
}

func (f *fakeLinks) DeleteByTrainer(_ context.Context, trainerID string) error {
	f.deleteWhere(func(l *domain.TrainerOfClient) bool { return l.TrainerID == trainerID })
	return nil
}

type fakeSessions struct {
	records[domain.WorkoutSession]
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{records[domain.WorkoutSession]{
		prefix:   "session",
		idOf:     func(s *domain.WorkoutSession) *string { return &s.ID },
		notFound: domain.ErrSessionNotFound,
	}}
}

func (f *fakeSessions) Create(_ context.Context, session *domain.WorkoutSession) error {
	session.End = session.Finish()
	f.create(session)
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (*domain.WorkoutSession, error) {
	return f.get(id)
}

func (f *fakeSessions) between(from, to time.Time, keep func(*domain.WorkoutSession) bool) []*domain.WorkoutSession {
	return f.filter(func(s *domain.WorkoutSession) bool {
		return keep(s) && s.Start.Before(to) && from.Before(s.Finish())
	})
}

func (f *fakeSessions) ListByTrainer(_ context.Context, trainerID string, from, to time.Time) ([]*domain.WorkoutSession, error) {
	return f.between(from, to, func(s *domain.WorkoutSession) bool { return s.TrainerID == trainerID }), nil
}

func (f *fakeSessions) ListByClient(_ context.Context, clientID string, from, to time.Time) ([]*domain.WorkoutSession, error) {
	return f.between(from, to, func(s *domain.WorkoutSession) bool { return s.ClientID == clientID }), nil
}

func (f *fakeSessions) Update(_ context.Context, session *domain.WorkoutSession) error {
	session.End = session.Finish()
	return f.update(session)
}

func (f *fakeSessions) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeSessions) DeleteByTrainer(_ context.Context, trainerID string) error {
	f.deleteWhere(func(s *domain.WorkoutSession) bool { return s.TrainerID == trainerID })
	return nil
}

func (f *fakeSessions) DeleteByClient(_ context.Context, clientID string) error {
	f.deleteWhere(func(s *domain.WorkoutSession) bool { return s.ClientID == clientID })
	return nil
}

// trainerFixture wires the trainer side services over in-memory stores
type trainerFixture struct {
	users       *fakeUsers
	clients     *fakeClients
	trainers    *fakeTrainers
	experiences *fakeExperiences
	gyms        *fakeGyms
	links       *fakeLinks
	sessions    *fakeSessions
	media       *fakeMedia

	experienceSvc *ExperienceService
	sessionSvc    *SessionService
	trainerSvc    *TrainerService
	gymSvc        *GymService
	clientSvc     *ClientService
}

func newTrainerFixture() *trainerFixture {
	f := &trainerFixture{
		users:       newFakeUsers(),
		clients:     &fakeClients{},
		trainers:    &fakeTrainers{},
		experiences: newFakeExperiences(),
		gyms:        newFakeGyms(),
		links:       newFakeLinks(),
		sessions:    newFakeSessions(),
		media:       newFakeMedia(),
	}
	f.experienceSvc = NewExperienceService(f.experiences, f.trainers)
	f.sessionSvc = NewSessionService(f.sessions, f.trainers, f.clients, f.links)
	f.trainerSvc = NewTrainerService(f.trainers, f.users, f.media)
	f.gymSvc = NewGymService(f.gyms, f.trainers)
	f.clientSvc = NewClientService(f.clients, f.links, f.trainers, f.users)
	return f
}

// member registers a user with client and trainer profiles the way sign up does
type member struct {
	user    *domain.User
	client  *domain.Client
	trainer *domain.Trainer
}

func (f *trainerFixture) member(t *testing.T, isTrainer bool) *member {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		IsActive:  true,
		IsTrainer: isTrainer,
	}
	require.NoError(t, f.users.Create(ctx, user))
	client := &domain.Client{UserID: user.ID}
	require.NoError(t, f.clients.Create(ctx, client))
	trainer := domain.NewTrainerProfile(user)
	require.NoError(t, f.trainers.Create(ctx, trainer))
	return &member{user: user, client: client, trainer: trainer}
}

func (f *trainerFixture) link(t *testing.T, client, trainer *member) {
	t.Helper()
	require.NoError(t, f.links.Create(context.Background(), &domain.TrainerOfClient{
		ClientID:  client.client.ID,
		TrainerID: trainer.trainer.ID,
	}))
}
