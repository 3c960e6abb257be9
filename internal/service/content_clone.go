package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// cloner deep copies content for a subscriber. Items the subscriber may
// already use (own or public) are referenced as they are; anything else is
// cloned once and reused for every further reference. In dry run nothing is
// written and the counters report what a real run would create.
type cloner struct {
	userID    string
	now       time.Time
	dryRun    bool
	exercises domain.ExerciseRepository
	workouts  domain.WorkoutRepository
	media     domain.MediaStorage

	exerciseMemo map[string]string
	workoutMemo  map[string]string

	newExercises int
	newWorkouts  int

	// written in this run, removed by rollback
	createdExercises []string
	createdWorkouts  []string
	copiedMedia      []string
}

func newCloner(userID string, now time.Time, exercises domain.ExerciseRepository, workouts domain.WorkoutRepository, media domain.MediaStorage) *cloner {
	return &cloner{
		userID:       userID,
		now:          now,
		exercises:    exercises,
		workouts:     workouts,
		media:        media,
		exerciseMemo: make(map[string]string),
		workoutMemo:  make(map[string]string),
	}
}

// dryRunCounts reports how many exercises and workouts fn would create
func dryRunCounts(c *cloner, fn func(*cloner) error) (int, int, error) {
	dry := *c
	dry.dryRun = true
	dry.exerciseMemo = make(map[string]string)
	dry.workoutMemo = make(map[string]string)
	if err := fn(&dry); err != nil {
		return 0, 0, err
	}
	return dry.newExercises, dry.newWorkouts, nil
}

// copyMedia duplicates an object under a fresh key in the same folder
func (c *cloner) copyMedia(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	dst := path.Join(path.Dir(key), newID()+path.Ext(key))
	if err := c.media.Copy(ctx, key, dst); err != nil {
		return "", fmt.Errorf("failed to copy media %s: %w", key, err)
	}
	c.copiedMedia = append(c.copiedMedia, dst)
	return dst, nil
}

// rollback deletes everything this run created. It keeps going past
// failures and returns them joined.
func (c *cloner) rollback(ctx context.Context) error {
	var errs []error
	for _, id := range c.createdWorkouts {
		if err := c.workouts.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrWorkoutNotFound) {
			errs = append(errs, err)
		}
	}
	for _, id := range c.createdExercises {
		if err := c.exercises.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrExerciseNotFound) {
			errs = append(errs, err)
		}
	}
	for _, key := range c.copiedMedia {
		if err := c.media.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	c.createdWorkouts, c.createdExercises, c.copiedMedia = nil, nil, nil
	return errors.Join(errs...)
}

// exercise returns the id the subscriber should reference for src
func (c *cloner) exercise(ctx context.Context, src *domain.Exercise) (string, error) {
	if src.CanUse(c.userID) {
		return src.ID, nil
	}
	if id, ok := c.exerciseMemo[src.ID]; ok {
		return id, nil
	}
	existing, err := c.exercises.FindClone(ctx, src.ID, c.userID)
	if err == nil {
		c.exerciseMemo[src.ID] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrExerciseNotFound) {
		return "", err
	}

	c.newExercises++
	if c.dryRun {
		c.exerciseMemo[src.ID] = "dry-run:" + src.ID
		return c.exerciseMemo[src.ID], nil
	}
	clone, err := c.cloneExercise(ctx, src)
	if err != nil {
		return "", err
	}
	c.exerciseMemo[src.ID] = clone.ID
	return clone.ID, nil
}

// cloneExercise stores a copy of src and its media for the subscriber
func (c *cloner) cloneExercise(ctx context.Context, src *domain.Exercise) (*domain.Exercise, error) {
	clone := &domain.Exercise{
		Name:             src.Name,
		Description:      src.Description,
		Instructions:     append([]string{}, src.Instructions...),
		IsMeasuredInReps: src.IsMeasuredInReps,
		CategoryIDs:      append([]string{}, src.CategoryIDs...),
		GymEquipmentIDs:  append([]string{}, src.GymEquipmentIDs...),
		Lineage:          domain.CloneLineage(src.ID, c.userID, c.now),
	}
	var err error
	if clone.Preview, err = c.copyMedia(ctx, src.Preview); err != nil {
		return nil, err
	}
	if clone.Video, err = c.copyMedia(ctx, src.Video); err != nil {
		return nil, err
	}
	if err := c.exercises.Create(ctx, clone); err != nil {
		return nil, err
	}
	c.createdExercises = append(c.createdExercises, clone.ID)
	return clone, nil
}

// workout returns the id the subscriber should reference for src. When
// force is set src is cloned even if an earlier clone exists.
func (c *cloner) workout(ctx context.Context, src *domain.Workout, force bool) (string, error) {
	if !force && src.IsOwnedBy(c.userID) {
		return src.ID, nil
	}
	if id, ok := c.workoutMemo[src.ID]; ok {
		return id, nil
	}
	if !force {
		existing, err := c.workouts.FindClone(ctx, src.ID, c.userID)
		if err == nil {
			c.workoutMemo[src.ID] = existing.ID
			return existing.ID, nil
		}
		if !errors.Is(err, domain.ErrWorkoutNotFound) {
			return "", err
		}
	}

	exercises, err := c.exercises.GetByIDs(ctx, src.ExerciseIDs())
	if err != nil {
		return "", err
	}
	entries := make([]domain.WorkoutExercise, 0, len(src.Exercises))
	for _, e := range src.Exercises {
		ex, ok := exercises[e.ExerciseID]
		if !ok {
			continue
		}
		id, err := c.exercise(ctx, ex)
		if err != nil {
			return "", err
		}
		entries = append(entries, domain.WorkoutExercise{
			ID:               newID(),
			ExerciseID:       id,
			Sets:             e.Sets,
			Value:            e.Value,
			RestTimeAfterSet: e.RestTimeAfterSet,
		})
	}

	c.newWorkouts++
	if c.dryRun {
		c.workoutMemo[src.ID] = "dry-run:" + src.ID
		return c.workoutMemo[src.ID], nil
	}

	clone := &domain.Workout{
		Name:                        src.Name,
		Description:                 src.Description,
		Exercises:                   entries,
		RestBetweenWorkoutExercises: src.RestBetweenWorkoutExercises,
		Lineage:                     domain.CloneLineage(src.ID, c.userID, c.now),
	}
	if err := c.workouts.Create(ctx, clone); err != nil {
		return "", err
	}
	c.createdWorkouts = append(c.createdWorkouts, clone.ID)
	c.workoutMemo[src.ID] = clone.ID
	return clone.ID, nil
}

// plan builds the subscriber's copy of src; the caller stores it
func (c *cloner) plan(ctx context.Context, src *domain.WeeklyFitnessPlan) (*domain.WeeklyFitnessPlan, error) {
	workouts, err := c.workouts.GetByIDs(ctx, src.WorkoutIDs())
	if err != nil {
		return nil, err
	}
	entries := make([]domain.PlanWorkout, 0, len(src.Workouts))
	for _, pw := range src.Workouts {
		w, ok := workouts[pw.WorkoutID]
		if !ok {
			continue
		}
		id, err := c.workout(ctx, w, false)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.PlanWorkout{ID: newID(), WorkoutID: id, WeekDay: pw.WeekDay})
	}
	return &domain.WeeklyFitnessPlan{
		Name:        src.Name,
		Description: src.Description,
		Workouts:    entries,
		Lineage:     domain.CloneLineage(src.ID, c.userID, c.now),
	}, nil
}
