package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ExerciseService manages exercises and the exercise catalog
type ExerciseService struct {
	contentBase
	exercises   domain.ExerciseRepository
	workouts    domain.WorkoutRepository
	catalog     domain.CatalogRepository
	media       domain.MediaStorage
	previewKind domain.MediaKind
	videoKind   domain.MediaKind
}

func NewExerciseService(deps ContentDeps) *ExerciseService {
	return &ExerciseService{
		contentBase: newContentBase(domain.KindExercise, deps),
		exercises:   deps.Exercises,
		workouts:    deps.Workouts,
		catalog:     deps.Catalog,
		media:       deps.Media,
		previewKind: domain.ImageMedia("exercises/previews", deps.MaxImageMB),
		videoKind:   domain.VideoMedia("exercises/videos", deps.MaxVideoMB),
	}
}

// ExerciseView is an exercise with media links and catalog stats
type ExerciseView struct {
	*domain.Exercise
	PreviewURL  string `json:"preview"`
	VideoURL    string `json:"video"`
	Subscribers *int64 `json:"subscribers,omitempty"`
}

func (s *ExerciseService) view(e *domain.Exercise) *ExerciseView {
	v := &ExerciseView{Exercise: e}
	if e.Preview != "" {
		v.PreviewURL = s.media.URL(e.Preview)
	}
	if e.Video != "" {
		v.VideoURL = s.media.URL(e.Video)
	}
	return v
}

func (s *ExerciseService) views(items []*domain.Exercise) []*ExerciseView {
	out := make([]*ExerciseView, 0, len(items))
	for _, e := range items {
		out = append(out, s.view(e))
	}
	return out
}

// ExerciseInput is the editable part of an exercise
type ExerciseInput struct {
	Name             string
	Description      string
	Instructions     []string
	IsMeasuredInReps bool
	CategoryIDs      []string
	GymEquipmentIDs  []string
}

func (in ExerciseInput) apply(e *domain.Exercise) bool {
	before := *e
	e.Name = strings.TrimSpace(in.Name)
	e.Description = in.Description
	e.Instructions = nonNil(in.Instructions)
	e.IsMeasuredInReps = in.IsMeasuredInReps
	e.CategoryIDs = dedupe(in.CategoryIDs)
	e.GymEquipmentIDs = dedupe(in.GymEquipmentIDs)
	return before.Name != e.Name ||
		before.Description != e.Description ||
		!slices.Equal(before.Instructions, e.Instructions) ||
		before.IsMeasuredInReps != e.IsMeasuredInReps ||
		!slices.Equal(before.CategoryIDs, e.CategoryIDs) ||
		!slices.Equal(before.GymEquipmentIDs, e.GymEquipmentIDs)
}

// validate checks field limits and catalog references
func (s *ExerciseService) validate(ctx context.Context, e *domain.Exercise) error {
	v := e.Validate()
	n, err := s.catalog.CountCategories(ctx, e.CategoryIDs)
	if err != nil {
		return err
	}
	if n != len(e.CategoryIDs) {
		v.Add("category", domain.ErrCategoryNotFound.Error())
	}
	n, err = s.catalog.CountEquipment(ctx, e.GymEquipmentIDs)
	if err != nil {
		return err
	}
	if n != len(e.GymEquipmentIDs) {
		v.Add("gym_equipment", domain.ErrEquipmentNotFound.Error())
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	if _, err := s.exercises.FindDuplicate(ctx, e); err == nil {
		return domain.NewValidationError("", domain.ErrDuplicateExercise.Error())
	} else if !errors.Is(err, domain.ErrExerciseNotFound) {
		return err
	}
	return nil
}

func (s *ExerciseService) List(ctx context.Context, q domain.ExerciseQuery) ([]*ExerciseView, error) {
	items, err := s.exercises.ListVisible(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.views(items), nil
}

func (s *ExerciseService) Get(ctx context.Context, userID, id string) (*ExerciseView, error) {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&e.Lineage, userID); err != nil {
		return nil, err
	}
	return s.view(e), nil
}

func (s *ExerciseService) Create(ctx context.Context, userID string, in ExerciseInput) (*ExerciseView, error) {
	e := &domain.Exercise{Lineage: domain.NewLineage(userID, s.now())}
	in.apply(e)
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, 1, 0, 0); err != nil {
		return nil, err
	}
	if err := s.exercises.Create(ctx, e); err != nil {
		return nil, err
	}
	s.emit(ctx, "created", "", e.ID, userID, nil)
	return s.view(e), nil
}

func (s *ExerciseService) Update(ctx context.Context, userID, id string, in ExerciseInput) (*ExerciseView, error) {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	changed := in.apply(e)
	if !changed {
		return s.view(e), nil
	}
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}
	s.touch(&e.Lineage, changed)
	if err := s.exercises.Update(ctx, e); err != nil {
		return nil, err
	}
	s.emit(ctx, "updated", "", e.ID, userID, nil)
	return s.view(e), nil
}

// Delete removes the exercise, its media and every reference to it from the
// owner's workouts
func (s *ExerciseService) Delete(ctx context.Context, userID, id string) error {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, e)
}

func (s *ExerciseService) remove(ctx context.Context, e *domain.Exercise) error {
	if err := s.workouts.PullExercise(ctx, e.CreatedBy, e.ID); err != nil {
		return err
	}
	if err := s.exercises.Delete(ctx, e.ID); err != nil {
		return err
	}
	for _, key := range []string{e.Preview, e.Video} {
		if err := s.media.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "exercise media not deleted", "key", key, "error", err)
		}
	}
	s.emit(ctx, "deleted", "", e.ID, e.CreatedBy, nil)
	return nil
}

func (s *ExerciseService) owned(ctx context.Context, userID, id string) (*domain.Exercise, error) {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mustOwn(&e.Lineage, userID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExerciseService) ListArchived(ctx context.Context, userID string) ([]*ExerciseView, error) {
	items, err := s.exercises.ListArchived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(items), nil
}

// ToggleArchived flips the archive flag and returns the new state
func (s *ExerciseService) ToggleArchived(ctx context.Context, userID, id string) (bool, error) {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.toggleArchived(ctx, s.exercises, e.ID, &e.Lineage, userID)
}

func (s *ExerciseService) Share(ctx context.Context, userID, id string, userIDs []string) error {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	targets, err := s.shareTargets(ctx, userID, userIDs)
	if err != nil {
		return err
	}
	if err := s.exercises.AddSharedWith(ctx, []string{e.ID}, targets); err != nil {
		return err
	}
	s.emit(ctx, "shared", "", e.ID, userID, nil)
	return nil
}

func (s *ExerciseService) Unshare(ctx context.Context, userID, id, targetID string) error {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unshare(ctx, s.exercises, e.ID, &e.Lineage, userID, targetID)
}

// Originality counts the exercise itself
func (s *ExerciseService) Originality(ctx context.Context, userID, id string) (*OriginalityReport, error) {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&e.Lineage, userID); err != nil {
		return nil, err
	}
	return newOriginalityReport(domain.ExerciseOriginality(e)), nil
}

func (s *ExerciseService) Publish(ctx context.Context, userID, id string) error {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := checkPublishable(&e.Lineage, domain.ExerciseOriginality(e)); err != nil {
		return err
	}
	if err := s.exercises.SetPublished(ctx, []string{e.ID}, true); err != nil {
		return err
	}
	s.emit(ctx, "published", domain.EventContentPublished, e.ID, userID, nil)
	return nil
}

func (s *ExerciseService) Unpublish(ctx context.Context, userID, id string) error {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unpublish(ctx, s.exercises, e.ID, &e.Lineage, userID)
}

// ListPublished returns the catalog with subscriber counts
func (s *ExerciseService) ListPublished(ctx context.Context) ([]*ExerciseView, error) {
	items, err := s.exercises.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, e := range items {
		ids = append(ids, e.ID)
	}
	counts, err := s.exercises.CountClones(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := s.views(items)
	for _, v := range out {
		n := counts[v.ID]
		v.Subscribers = &n
	}
	return out, nil
}

// Subscribe clones the exercise and its media for the caller
func (s *ExerciseService) Subscribe(ctx context.Context, userID, id string) (*ExerciseView, error) {
	src, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubscribable(&src.Lineage, userID); err != nil {
		return nil, err
	}
	if _, err := s.exercises.FindClone(ctx, src.ID, userID); err == nil {
		return nil, domain.ErrAlreadySubscribed
	} else if !errors.Is(err, domain.ErrExerciseNotFound) {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, 1, 0, 0); err != nil {
		return nil, err
	}

	// Public exercises are usable without cloning, but an explicit
	// subscription still produces an own copy.
	c := newCloner(userID, s.now(), s.exercises, s.workouts, s.media)
	clone, err := c.cloneExercise(ctx, src)
	if err != nil {
		s.discard(ctx, c)
		return nil, err
	}
	s.emit(ctx, "subscribed", domain.EventContentSubscribed, src.ID, userID, map[string]any{"clone_id": clone.ID})
	return s.view(clone), nil
}

// Unsubscribe deletes the caller's clone of the exercise
func (s *ExerciseService) Unsubscribe(ctx context.Context, userID, id string) error {
	clone, err := s.exercises.FindClone(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrExerciseNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	return s.remove(ctx, clone)
}

// UploadPreview replaces the exercise preview image
func (s *ExerciseService) UploadPreview(ctx context.Context, userID, id string, data []byte, contentType string) (*ExerciseView, error) {
	return s.upload(ctx, userID, id, s.previewKind, data, contentType, func(e *domain.Exercise) *string { return &e.Preview })
}

// UploadVideo replaces the exercise demonstration video
func (s *ExerciseService) UploadVideo(ctx context.Context, userID, id string, data []byte, contentType string) (*ExerciseView, error) {
	return s.upload(ctx, userID, id, s.videoKind, data, contentType, func(e *domain.Exercise) *string { return &e.Video })
}

func (s *ExerciseService) upload(ctx context.Context, userID, id string, kind domain.MediaKind, data []byte, contentType string, field func(*domain.Exercise) *string) (*ExerciseView, error) {
	ext, err := kind.Check(contentType, int64(len(data)))
	if err != nil {
		return nil, err
	}
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	key, err := s.media.Upload(ctx, kind.Key(e.ID+"_"+newID(), ext), data, contentType)
	if err != nil {
		return nil, err
	}
	slot := field(e)
	old := *slot
	*slot = key
	s.touch(&e.Lineage, true)
	if err := s.exercises.Update(ctx, e); err != nil {
		_ = s.media.Delete(ctx, key)
		return nil, err
	}
	if old != "" {
		if err := s.media.Delete(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "old exercise media not deleted", "key", old, "error", err)
		}
	}
	return s.view(e), nil
}

// CreationData is what a client needs to build the exercise form
type CreationData struct {
	Categories   []*domain.ExerciseCategory `json:"categories"`
	GymEquipment []*domain.GymEquipment     `json:"gym_equipment"`
}

func (s *ExerciseService) CreationData(ctx context.Context) (*CreationData, error) {
	var data CreationData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Categories, err = s.catalog.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.GymEquipment, err = s.catalog.ListEquipment(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, eq := range data.GymEquipment {
		if eq.Image != "" {
			eq.Image = s.media.URL(eq.Image)
		}
	}
	return &data, nil
}

// SeedCatalog inserts the default categories and equipment that are missing
func (s *ExerciseService) SeedCatalog(ctx context.Context) (int, int, error) {
	categories, err := s.catalog.EnsureCategories(ctx, domain.DefaultCategories)
	if err != nil {
		return 0, 0, err
	}
	equipment, err := s.catalog.EnsureEquipment(ctx, domain.DefaultEquipment)
	if err != nil {
		return categories, 0, err
	}
	return categories, equipment, nil
}

// PurgeOrphans removes exercises nobody can reach any more together with
// their media
func (s *ExerciseService) PurgeOrphans(ctx context.Context) (int64, error) {
	return purgeOrphanExercises(ctx, s.exercises, s.media, s.logger)
}

func purgeOrphanExercises(ctx context.Context, repo domain.ExerciseRepository, media domain.MediaStorage, logger *slog.Logger) (int64, error) {
	orphans, err := repo.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range orphans {
		for _, key := range []string{e.Preview, e.Video} {
			if key == "" {
				continue
			}
			if err := media.Delete(ctx, key); err != nil {
				logger.WarnContext(ctx, "orphan exercise media not deleted", "exercise_id", e.ID, "key", key, "error", err)
			}
		}
	}
	return int64(len(orphans)), nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
