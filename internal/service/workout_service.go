package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// WorkoutService manages workouts built from exercises
type WorkoutService struct {
	contentBase
	exercises domain.ExerciseRepository
	workouts  domain.WorkoutRepository
	plans     domain.PlanRepository
	media     domain.MediaStorage
}

func NewWorkoutService(deps ContentDeps) *WorkoutService {
	return &WorkoutService{
		contentBase: newContentBase(domain.KindWorkout, deps),
		exercises:   deps.Exercises,
		workouts:    deps.Workouts,
		plans:       deps.Plans,
		media:       deps.Media,
	}
}

// WorkoutView is a workout with catalog stats
type WorkoutView struct {
	*domain.Workout
	Subscribers *int64 `json:"subscribers,omitempty"`
}

func workoutViews(items []*domain.Workout) []*WorkoutView {
	out := make([]*WorkoutView, 0, len(items))
	for _, w := range items {
		out = append(out, &WorkoutView{Workout: w})
	}
	return out
}

// WorkoutExerciseInput is one requested entry of a workout
type WorkoutExerciseInput struct {
	ID               string
	ExerciseID       string
	Sets             int
	Value            int
	RestTimeAfterSet int
}

// WorkoutInput is the editable part of a workout
type WorkoutInput struct {
	Name                        string
	Description                 string
	Exercises                   []WorkoutExerciseInput
	RestBetweenWorkoutExercises int
}

// apply copies the input into w, keeping entry ids that are resent, and
// reports whether anything changed
func (in WorkoutInput) apply(w *domain.Workout) bool {
	before := *w
	w.Name = strings.TrimSpace(in.Name)
	w.Description = in.Description
	w.RestBetweenWorkoutExercises = in.RestBetweenWorkoutExercises

	known := make(map[string]bool, len(w.Exercises))
	for _, e := range w.Exercises {
		known[e.ID] = true
	}
	entries := make([]domain.WorkoutExercise, 0, len(in.Exercises))
	for _, e := range in.Exercises {
		id := e.ID
		if id == "" || !known[id] {
			id = newID()
		}
		entries = append(entries, domain.WorkoutExercise{
			ID:               id,
			ExerciseID:       e.ExerciseID,
			Sets:             e.Sets,
			Value:            e.Value,
			RestTimeAfterSet: e.RestTimeAfterSet,
		})
	}
	w.Exercises = entries

	changed := before.Name != w.Name ||
		before.Description != w.Description ||
		before.RestBetweenWorkoutExercises != w.RestBetweenWorkoutExercises ||
		!slices.EqualFunc(before.Exercises, w.Exercises, sameEntry)
	if !changed {
		*w = before
	}
	return changed
}

// sameEntry compares workout entries ignoring their ids
func sameEntry(a, b domain.WorkoutExercise) bool {
	a.ID, b.ID = "", ""
	return a == b
}

// validate checks limits and that every exercise may be used by the owner
func (s *WorkoutService) validate(ctx context.Context, w *domain.Workout) error {
	if err := w.Validate().OrNil(); err != nil {
		return err
	}
	exercises, err := s.exercises.GetByIDs(ctx, w.ExerciseIDs())
	if err != nil {
		return err
	}
	for _, id := range w.ExerciseIDs() {
		e, ok := exercises[id]
		if !ok {
			return domain.NewValidationError("exercises", domain.ErrExerciseNotFound.Error()+": "+id)
		}
		if !e.CanUse(w.CreatedBy) {
			return domain.NewValidationError("exercises", domain.ErrExerciseNotUsable.Error())
		}
	}
	return nil
}

func (s *WorkoutService) List(ctx context.Context, q domain.WorkoutQuery) ([]*WorkoutView, error) {
	items, err := s.workouts.ListVisible(ctx, q)
	if err != nil {
		return nil, err
	}
	return workoutViews(items), nil
}

func (s *WorkoutService) Get(ctx context.Context, userID, id string) (*WorkoutView, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&w.Lineage, userID); err != nil {
		return nil, err
	}
	return &WorkoutView{Workout: w}, nil
}

func (s *WorkoutService) Create(ctx context.Context, userID string, in WorkoutInput) (*WorkoutView, error) {
	w := &domain.Workout{Lineage: domain.NewLineage(userID, s.now())}
	in.apply(w)
	if err := s.validate(ctx, w); err != nil {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, 0, 1, 0); err != nil {
		return nil, err
	}
	if err := s.workouts.Create(ctx, w); err != nil {
		return nil, err
	}
	s.emit(ctx, "created", "", w.ID, userID, nil)
	return &WorkoutView{Workout: w}, nil
}

func (s *WorkoutService) Update(ctx context.Context, userID, id string, in WorkoutInput) (*WorkoutView, error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !in.apply(w) {
		return &WorkoutView{Workout: w}, nil
	}
	if err := s.validate(ctx, w); err != nil {
		return nil, err
	}
	s.touch(&w.Lineage, true)
	if err := s.workouts.Update(ctx, w); err != nil {
		return nil, err
	}
	s.emit(ctx, "updated", "", w.ID, userID, nil)
	return &WorkoutView{Workout: w}, nil
}

// Delete removes the workout and every reference to it from the owner's plans
func (s *WorkoutService) Delete(ctx context.Context, userID, id string) error {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, w)
}

func (s *WorkoutService) remove(ctx context.Context, w *domain.Workout) error {
	if err := s.plans.PullWorkout(ctx, w.CreatedBy, w.ID); err != nil {
		return err
	}
	if err := s.workouts.Delete(ctx, w.ID); err != nil {
		return err
	}
	s.emit(ctx, "deleted", "", w.ID, w.CreatedBy, nil)
	return nil
}

func (s *WorkoutService) owned(ctx context.Context, userID, id string) (*domain.Workout, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mustOwn(&w.Lineage, userID); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkoutService) ListArchived(ctx context.Context, userID string) ([]*WorkoutView, error) {
	items, err := s.workouts.ListArchived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return workoutViews(items), nil
}

func (s *WorkoutService) ToggleArchived(ctx context.Context, userID, id string) (bool, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.toggleArchived(ctx, s.workouts, w.ID, &w.Lineage, userID)
}

// ownedExercises loads the exercises of the workouts and lists the ids of
// those created by ownerID
func ownedExercises(ctx context.Context, repo domain.ExerciseRepository, ownerID string, workouts ...*domain.Workout) ([]string, map[string]*domain.Exercise, error) {
	var ids []string
	for _, w := range workouts {
		ids = append(ids, w.ExerciseIDs()...)
	}
	ids = dedupe(ids)
	exercises, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	owned := make([]string, 0, len(exercises))
	for _, id := range ids {
		if e, ok := exercises[id]; ok && e.IsOwnedBy(ownerID) {
			owned = append(owned, id)
		}
	}
	return owned, exercises, nil
}

// Share shares the workout and the owner's exercises in it
func (s *WorkoutService) Share(ctx context.Context, userID, id string, userIDs []string) error {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	targets, err := s.shareTargets(ctx, userID, userIDs)
	if err != nil {
		return err
	}
	exerciseIDs, _, err := ownedExercises(ctx, s.exercises, userID, w)
	if err != nil {
		return err
	}
	if err := s.exercises.AddSharedWith(ctx, exerciseIDs, targets); err != nil {
		return err
	}
	if err := s.workouts.AddSharedWith(ctx, []string{w.ID}, targets); err != nil {
		return err
	}
	s.emit(ctx, "shared", "", w.ID, userID, nil)
	return nil
}

func (s *WorkoutService) Unshare(ctx context.Context, userID, id, targetID string) error {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unshare(ctx, s.workouts, w.ID, &w.Lineage, userID, targetID)
}

func (s *WorkoutService) Originality(ctx context.Context, userID, id string) (*OriginalityReport, error) {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&w.Lineage, userID); err != nil {
		return nil, err
	}
	exercises, err := s.exercises.GetByIDs(ctx, w.ExerciseIDs())
	if err != nil {
		return nil, err
	}
	return newOriginalityReport(domain.WorkoutOriginality(w, exercises)), nil
}

// Publish puts the workout and the owner's exercises in it in the catalog
func (s *WorkoutService) Publish(ctx context.Context, userID, id string) error {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	exerciseIDs, exercises, err := ownedExercises(ctx, s.exercises, userID, w)
	if err != nil {
		return err
	}
	if err := checkPublishable(&w.Lineage, domain.WorkoutOriginality(w, exercises)); err != nil {
		return err
	}
	if err := s.exercises.SetPublished(ctx, exerciseIDs, true); err != nil {
		return err
	}
	if err := s.workouts.SetPublished(ctx, []string{w.ID}, true); err != nil {
		return err
	}
	s.emit(ctx, "published", domain.EventContentPublished, w.ID, userID, map[string]any{"exercises": len(exerciseIDs)})
	return nil
}

func (s *WorkoutService) Unpublish(ctx context.Context, userID, id string) error {
	w, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unpublish(ctx, s.workouts, w.ID, &w.Lineage, userID)
}

func (s *WorkoutService) ListPublished(ctx context.Context) ([]*WorkoutView, error) {
	items, err := s.workouts.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, w := range items {
		ids = append(ids, w.ID)
	}
	counts, err := s.workouts.CountClones(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := workoutViews(items)
	for _, v := range out {
		n := counts[v.ID]
		v.Subscribers = &n
	}
	return out, nil
}

// Subscribe deep clones the workout for the caller. Exercises of other
// users are cloned once; limits are checked before anything is written.
func (s *WorkoutService) Subscribe(ctx context.Context, userID, id string) (*WorkoutView, error) {
	src, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubscribable(&src.Lineage, userID); err != nil {
		return nil, err
	}
	if _, err := s.workouts.FindClone(ctx, src.ID, userID); err == nil {
		return nil, domain.ErrAlreadySubscribed
	} else if !errors.Is(err, domain.ErrWorkoutNotFound) {
		return nil, err
	}

	c := newCloner(userID, s.now(), s.exercises, s.workouts, s.media)
	clone := func(c *cloner) error {
		_, err := c.workout(ctx, src, true)
		return err
	}
	newExercises, newWorkouts, err := dryRunCounts(c, clone)
	if err != nil {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, newExercises, newWorkouts, 0); err != nil {
		return nil, err
	}

	cloneID, err := c.workout(ctx, src, true)
	if err != nil {
		s.discard(ctx, c)
		return nil, err
	}
	w, err := s.workouts.GetByID(ctx, cloneID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, "subscribed", domain.EventContentSubscribed, src.ID, userID, map[string]any{
		"clone_id":  cloneID,
		"exercises": c.newExercises,
	})
	return &WorkoutView{Workout: w}, nil
}

// Unsubscribe deletes the caller's clone of the workout. Cloned exercises
// stay with the caller.
func (s *WorkoutService) Unsubscribe(ctx context.Context, userID, id string) error {
	clone, err := s.workouts.FindClone(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkoutNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	return s.remove(ctx, clone)
}
