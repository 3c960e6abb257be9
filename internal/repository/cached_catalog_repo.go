package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// CachedCatalogRepository caches the category and equipment lists, which
// only change when the catalog is seeded
type CachedCatalogRepository struct {
	domain.CatalogRepository
	cache domain.CacheRepository
	ttl   time.Duration
}

func NewCachedCatalogRepository(repo domain.CatalogRepository, cache domain.CacheRepository, ttl time.Duration) *CachedCatalogRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedCatalogRepository{CatalogRepository: repo, cache: cache, ttl: ttl}
}

func (r *CachedCatalogRepository) ListCategories(ctx context.Context) ([]*domain.ExerciseCategory, error) {
	var cached []*domain.ExerciseCategory
	if err := r.cache.Get(ctx, catalogCategoriesKey, &cached); err == nil {
		return cached, nil
	}

	result, err := r.CatalogRepository.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, catalogCategoriesKey, result, r.ttl)
	return result, nil
}

func (r *CachedCatalogRepository) ListEquipment(ctx context.Context) ([]*domain.GymEquipment, error) {
	var cached []*domain.GymEquipment
	if err := r.cache.Get(ctx, catalogEquipmentKey, &cached); err == nil {
		return cached, nil
	}

	result, err := r.CatalogRepository.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, catalogEquipmentKey, result, r.ttl)
	return result, nil
}

func (r *CachedCatalogRepository) EnsureCategories(ctx context.Context, names []string) (int, error) {
	n, err := r.CatalogRepository.EnsureCategories(ctx, names)
	if err == nil && n > 0 {
		_ = r.cache.Delete(ctx, catalogCategoriesKey)
	}
	return n, err
}

func (r *CachedCatalogRepository) EnsureEquipment(ctx context.Context, names []string) (int, error) {
	n, err := r.CatalogRepository.EnsureEquipment(ctx, names)
	if err == nil && n > 0 {
		_ = r.cache.Delete(ctx, catalogEquipmentKey)
	}
	return n, err
}
