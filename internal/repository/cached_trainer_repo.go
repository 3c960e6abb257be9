package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// CachedTrainerRepository wraps a trainer repository with Redis caching.
// Profiles are cached by id and by owner; search candidates per filter.
type CachedTrainerRepository struct {
	repo  domain.TrainerRepository
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewCachedTrainerRepository creates a new cached trainer repository
func NewCachedTrainerRepository(repo domain.TrainerRepository, cache domain.CacheRepository, ttl time.Duration) *CachedTrainerRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedTrainerRepository{repo: repo, cache: cache, ttl: ttl}
}

func (r *CachedTrainerRepository) GetByID(ctx context.Context, id string) (*domain.Trainer, error) {
	key := trainerByIDKeyPrefix + id

	var trainer domain.Trainer
	if err := r.cache.Get(ctx, key, &trainer); err == nil {
		return &trainer, nil
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

func (r *CachedTrainerRepository) GetByUserID(ctx context.Context, userID string) (*domain.Trainer, error) {
	key := trainerByUserKeyPrefix + userID

	var trainer domain.Trainer
	if err := r.cache.Get(ctx, key, &trainer); err == nil {
		return &trainer, nil
	}

	result, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// Search caches the unranked candidates for each distinct filter
func (r *CachedTrainerRepository) Search(ctx context.Context, filter domain.TrainerFilter) ([]*domain.TrainerWithUser, error) {
	key := domain.TrainerSearchCachePrefix + searchFilterKey(filter)

	var cached []*domain.TrainerWithUser
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	result, err := r.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

func (r *CachedTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) error {
	if err := r.repo.Create(ctx, trainer); err != nil {
		return err
	}
	r.invalidate(ctx, trainer.ID, trainer.UserID)
	return nil
}

func (r *CachedTrainerRepository) Update(ctx context.Context, trainer *domain.Trainer) error {
	if err := r.repo.Update(ctx, trainer); err != nil {
		return err
	}
	r.invalidate(ctx, trainer.ID, trainer.UserID)
	return nil
}

func (r *CachedTrainerRepository) SetActive(ctx context.Context, userID string, active bool) error {
	if err := r.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	trainer, _ := r.repo.GetByUserID(ctx, userID)
	if trainer != nil {
		r.invalidate(ctx, trainer.ID, userID)
	} else {
		r.invalidate(ctx, "", userID)
	}
	return nil
}

func (r *CachedTrainerRepository) UpdateWholeExperience(ctx context.Context, trainerID string, years float64) error {
	if err := r.repo.UpdateWholeExperience(ctx, trainerID, years); err != nil {
		return err
	}
	trainer, _ := r.repo.GetByID(ctx, trainerID)
	if trainer != nil {
		r.invalidate(ctx, trainerID, trainer.UserID)
	} else {
		r.invalidate(ctx, trainerID, "")
	}
	return nil
}

func (r *CachedTrainerRepository) DeleteByUserID(ctx context.Context, userID string) error {
	trainer, _ := r.repo.GetByUserID(ctx, userID)

	if err := r.repo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	if trainer != nil {
		r.invalidate(ctx, trainer.ID, userID)
	} else {
		r.invalidate(ctx, "", userID)
	}
	return nil
}

func (r *CachedTrainerRepository) invalidate(ctx context.Context, trainerID, userID string) {
	var keys []string
	if trainerID != "" {
		keys = append(keys, trainerByIDKeyPrefix+trainerID)
	}
	if userID != "" {
		keys = append(keys, trainerByUserKeyPrefix+userID)
	}
	_ = r.cache.Delete(ctx, keys...)
	_ = r.cache.DeleteByPattern(ctx, domain.TrainerSearchCachePrefix+"*")
}

// searchFilterKey renders a filter as a stable key segment
func searchFilterKey(f domain.TrainerFilter) string {
	parts := []string{
		optFloat(f.MinPricePerHour),
		optFloat(f.MaxPricePerHour),
		optFloat(f.MinExperience),
		"",
		strings.ToLower(strings.TrimSpace(f.Address)),
	}
	if f.IsMale != nil {
		parts[3] = strconv.FormatBool(*f.IsMale)
	}
	return strings.Join(parts, "|")
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
