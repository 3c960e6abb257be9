package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/mansoorceksport/trackhub/internal/domain"
)

// In-memory repositories for service tests. Interfaces are embedded so a
// fake only implements what the service under test calls.

type fakeUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*domain.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if u, err := f.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByFirebaseUID(_ context.Context, uid string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == uid })
}

func (f *fakeUsers) modify(id string, fn func(*domain.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	return f.modify(user.ID, func(u *domain.User) { *u = *user })
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, userID, key string) error {
	return f.modify(userID, func(u *domain.User) { u.Avatar = key })
}

func (f *fakeUsers) UpdateRating(_ context.Context, userID string, rating domain.UserRating) error {
	return f.modify(userID, func(u *domain.User) { u.Rating = rating })
}

func (f *fakeUsers) SetVerified(_ context.Context, userID string) error {
	return f.modify(userID, func(u *domain.User) { u.IsVerified = true })
}

func (f *fakeUsers) ListIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeReviews struct {
	seq     int
	reviews []*domain.Review
}

func (f *fakeReviews) Create(_ context.Context, review *domain.Review) error {
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.ForUserID == review.ForUserID {
			return domain.ErrReviewExists
		}
	}
	f.seq++
	review.ID = fmt.Sprintf("review-%d", f.seq)
	review.Date = time.Now()
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	for _, r := range f.reviews {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (f *fakeReviews) GetByAuthorAndTarget(_ context.Context, userID, forUserID string) (*domain.Review, error) {
	for _, r := range f.reviews {
		if r.UserID == userID && r.ForUserID == forUserID {
			return r, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (f *fakeReviews) filter(keep func(*domain.Review) bool) []*domain.Review {
	var out []*domain.Review
	for _, r := range f.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeReviews) ListForUser(_ context.Context, forUserID string) ([]*domain.Review, error) {
	return f.filter(func(r *domain.Review) bool { return r.ForUserID == forUserID }), nil
}

func (f *fakeReviews) ListByAuthor(_ context.Context, userID string) ([]*domain.Review, error) {
	return f.filter(func(r *domain.Review) bool { return r.UserID == userID }), nil
}

func (f *fakeReviews) Update(_ context.Context, review *domain.Review) error {
	for i, r := range f.reviews {
		if r.ID == review.ID {
			f.reviews[i] = review
			return nil
		}
	}
	return domain.ErrReviewNotFound
}

func (f *fakeReviews) Delete(_ context.Context, id string) error {
	f.reviews = f.filter(func(r *domain.Review) bool { return r.ID != id })
	return nil
}

func (f *fakeReviews) DeleteByUser(_ context.Context, userID string) error {
	f.reviews = f.filter(func(r *domain.Review) bool { return r.UserID != userID && r.ForUserID != userID })
	return nil
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{tokens: make(map[string]*domain.RefreshToken)}
}

func (f *fakeRefreshTokens) Create(_ context.Context, token *domain.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.TokenHash] = token
	return nil
}

func (f *fakeRefreshTokens) FindByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[hash]
	if !ok {
		return nil, domain.ErrInvalidRefreshToken
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRefreshTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}

func (f *fakeRefreshTokens) RevokeAllByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeRefreshTokens) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, h)
		}
	}
	return nil
}

func (f *fakeRefreshTokens) DeleteExpired(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for h, t := range f.tokens {
		if !time.Now().Before(t.ExpiresAt) {
			delete(f.tokens, h)
			n++
		}
	}
	return n, nil
}

type fakeClients struct {
	domain.ClientRepository
	created []*domain.Client
}

func (f *fakeClients) Create(_ context.Context, client *domain.Client) error {
	client.ID = "client-" + client.UserID
	f.created = append(f.created, client)
	return nil
}

func (f *fakeClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	for _, c := range f.created {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (f *fakeClients) GetByUserID(_ context.Context, userID string) (*domain.Client, error) {
	for _, c := range f.created {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

type fakeTrainers struct {
	domain.TrainerRepository
	created []*domain.Trainer
}

func (f *fakeTrainers) Create(_ context.Context, trainer *domain.Trainer) error {
	trainer.ID = "trainer-" + trainer.UserID
	f.created = append(f.created, trainer)
	return nil
}

func (f *fakeTrainers) find(match func(*domain.Trainer) bool) (*domain.Trainer, error) {
	for _, t := range f.created {
		if match(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTrainerNotFound
}

func (f *fakeTrainers) GetByID(_ context.Context, id string) (*domain.Trainer, error) {
	return f.find(func(t *domain.Trainer) bool { return t.ID == id })
}

func (f *fakeTrainers) GetByUserID(_ context.Context, userID string) (*domain.Trainer, error) {
	return f.find(func(t *domain.Trainer) bool { return t.UserID == userID })
}

func (f *fakeTrainers) Update(_ context.Context, trainer *domain.Trainer) error {
	for i, t := range f.created {
		if t.ID == trainer.ID {
			cp := *trainer
			f.created[i] = &cp
			return nil
		}
	}
	return domain.ErrTrainerNotFound
}

func (f *fakeTrainers) UpdateWholeExperience(_ context.Context, trainerID string, years float64) error {
	for _, t := range f.created {
		if t.ID == trainerID {
			t.WholeExperience = years
			return nil
		}
	}
	return domain.ErrTrainerNotFound
}

// Search applies the price filter only; names stay empty
func (f *fakeTrainers) Search(_ context.Context, filter domain.TrainerFilter) ([]*domain.TrainerWithUser, error) {
	var out []*domain.TrainerWithUser
	for _, t := range f.created {
		if !t.IsActive || !t.IsPublic {
			continue
		}
		if filter.MinPricePerHour != nil && t.PricePerHour < *filter.MinPricePerHour {
			continue
		}
		if filter.MaxPricePerHour != nil && t.PricePerHour > *filter.MaxPricePerHour {
			continue
		}
		out = append(out, &domain.TrainerWithUser{Trainer: *t})
	}
	return out, nil
}

type fakeCounter struct {
	domain.LifecycleRepository
	counts map[string]int64
}

func (f *fakeCounter) CountByCreator(_ context.Context, userID string) (int64, error) {
	return f.counts[userID], nil
}

type fakeLimits struct {
	limits map[string]*domain.FitnessLimits
}

func (f *fakeLimits) Get(_ context.Context, userID string) (*domain.FitnessLimits, error) {
	l, ok := f.limits[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (f *fakeLimits) Upsert(_ context.Context, limits *domain.FitnessLimits) error {
	f.limits[limits.UserID] = limits
	return nil
}

func (f *fakeLimits) Delete(_ context.Context, userID string) error {
	delete(f.limits, userID)
	return nil
}

type fakeMedia struct {
	objects map[string][]byte
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (f *fakeMedia) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.objects[key] = data
	return key, nil
}

func (f *fakeMedia) Copy(_ context.Context, srcKey, dstKey string) error {
	f.objects[dstKey] = f.objects[srcKey]
	return nil
}

func (f *fakeMedia) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeMedia) URL(key string) string {
	return "https://media.test/" + key
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeEvents) Publish(_ context.Context, events ...domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{keys: make(map[string]bool)}
}

func (f *fakeCache) Get(context.Context, string, interface{}) error {
	return domain.ErrCacheMiss
}

func (f *fakeCache) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = true
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.keys, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.keys {
		if strings.HasPrefix(k, prefix) {
			delete(f.keys, k)
		}
	}
	return nil
}

func (f *fakeCache) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

type fakeFirebase struct {
	tokens map[string]*auth.Token
}

func (f *fakeFirebase) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f.tokens[idToken]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("invalid id token")
}
