package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContentLimits = config.LimitsConfig{Workouts: 5, Exercises: 10, Plans: 2}

func (f *contentFixture) user(t *testing.T) string {
	t.Helper()
	u := &domain.User{Email: gofakeit.Email(), FirstName: gofakeit.FirstName(), IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func (f *contentFixture) exercise(t *testing.T, ownerID string, edit func(*domain.Exercise)) *domain.Exercise {
	t.Helper()
	e := &domain.Exercise{
		Name:        gofakeit.HipsterWord(),
		CategoryIDs: []string{"legs"},
		Lineage:     domain.NewLineage(ownerID, time.Now()),
	}
	if edit != nil {
		edit(e)
	}
	for _, key := range []string{e.Preview, e.Video} {
		if key != "" {
			f.media.objects[key] = []byte(key)
		}
	}
	require.NoError(t, f.exercises.Create(context.Background(), e))
	return e
}

func (f *contentFixture) workout(t *testing.T, ownerID string, edit func(*domain.Workout), exercises ...*domain.Exercise) *domain.Workout {
	t.Helper()
	w := &domain.Workout{Name: gofakeit.HipsterWord(), Lineage: domain.NewLineage(ownerID, time.Now())}
	for _, e := range exercises {
		w.Exercises = append(w.Exercises, domain.WorkoutExercise{ID: newID(), ExerciseID: e.ID, Sets: 3, Value: 10, RestTimeAfterSet: 60})
	}
	if edit != nil {
		edit(w)
	}
	require.NoError(t, f.workouts.Create(context.Background(), w))
	return w
}

func (f *contentFixture) plan(t *testing.T, ownerID string, edit func(*domain.WeeklyFitnessPlan), workouts ...*domain.Workout) *domain.WeeklyFitnessPlan {
	t.Helper()
	p := &domain.WeeklyFitnessPlan{Name: gofakeit.HipsterWord(), Lineage: domain.NewLineage(ownerID, time.Now())}
	for i, w := range workouts {
		p.Workouts = append(p.Workouts, domain.PlanWorkout{ID: newID(), WorkoutID: w.ID, WeekDay: domain.Weekday(i % 7)})
	}
	if edit != nil {
		edit(p)
	}
	require.NoError(t, f.plans.Create(context.Background(), p))
	return p
}

func published(l *domain.Lineage) { l.IsPublished = true }

func TestWorkoutService_PublishCascade(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, carol := f.user(t), f.user(t)

	own := f.exercise(t, alice, nil)
	public := f.exercise(t, carol, func(e *domain.Exercise) { e.IsPublic = true })
	w := f.workout(t, alice, nil, own, public)

	assert.ErrorIs(t, f.workoutSvc.Publish(ctx, carol, w.ID), domain.ErrForbidden)
	require.NoError(t, f.workoutSvc.Publish(ctx, alice, w.ID))

	got, _ := f.workouts.get(w.ID)
	assert.True(t, got.IsPublished)
	ownAfter, _ := f.exercises.get(own.ID)
	assert.True(t, ownAfter.IsPublished, "own exercises are published with the workout")
	publicAfter, _ := f.exercises.get(public.ID)
	assert.False(t, publicAfter.IsPublished, "other users' exercises are left alone")
	assert.Contains(t, f.events.types(), domain.EventContentPublished)

	t.Run("archived workouts stay out of the catalog", func(t *testing.T) {
		archived := f.workout(t, alice, func(w *domain.Workout) { w.IsArchived = true }, own)
		assert.ErrorIs(t, f.workoutSvc.Publish(ctx, alice, archived.ID), domain.ErrContentArchived)
	})

	t.Run("borrowed workouts are not original enough", func(t *testing.T) {
		borrowed := f.exercise(t, alice, func(e *domain.Exercise) { e.OriginalID = "elsewhere" })
		clone := f.workout(t, alice, func(w *domain.Workout) { w.OriginalID = public.ID }, borrowed)
		assert.ErrorIs(t, f.workoutSvc.Publish(ctx, alice, clone.ID), domain.ErrNotOriginalEnough)
	})

	t.Run("archiving withdraws it", func(t *testing.T) {
		archived, err := f.workoutSvc.ToggleArchived(ctx, alice, w.ID)
		require.NoError(t, err)
		assert.True(t, archived)
		got, _ := f.workouts.get(w.ID)
		assert.False(t, got.IsPublished)
	})
}

func TestWorkoutService_ShareCascade(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob, carol := f.user(t), f.user(t), f.user(t)

	own := f.exercise(t, alice, nil)
	public := f.exercise(t, carol, func(e *domain.Exercise) { e.IsPublic = true })
	w := f.workout(t, alice, nil, own, public)

	tests := []struct {
		name    string
		userIDs []string
		wantErr bool
	}{
		{"only the owner", []string{alice, ""}, true},
		{"unknown user", []string{bob, "user-404"}, true},
		{"bob", []string{bob, bob, alice}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.workoutSvc.Share(ctx, alice, w.ID, tt.userIDs)
			if tt.wantErr {
				_, ok := domain.IsValidation(err)
				assert.True(t, ok, "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}

	got, _ := f.workouts.get(w.ID)
	assert.Equal(t, []string{bob}, got.SharedWith)
	ownAfter, _ := f.exercises.get(own.ID)
	assert.Equal(t, []string{bob}, ownAfter.SharedWith)
	publicAfter, _ := f.exercises.get(public.ID)
	assert.Empty(t, publicAfter.SharedWith)

	view, err := f.workoutSvc.Get(ctx, bob, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, view.ID)

	require.NoError(t, f.workoutSvc.Unshare(ctx, alice, w.ID, bob))
	assert.ErrorIs(t, f.workoutSvc.Unshare(ctx, alice, w.ID, bob), domain.ErrNotFound)
	_, err = f.workoutSvc.Get(ctx, bob, w.ID)
	assert.ErrorIs(t, err, domain.ErrContentNotVisible)

	ownAfter, _ = f.exercises.get(own.ID)
	assert.Equal(t, []string{bob}, ownAfter.SharedWith, "unshare only touches the workout")
}

func TestWorkoutService_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob, carol := f.user(t), f.user(t), f.user(t)

	own := f.exercise(t, alice, func(e *domain.Exercise) { e.Preview = "exercises/previews/squat.png" })
	public := f.exercise(t, carol, func(e *domain.Exercise) { e.IsPublic = true })
	src := f.workout(t, alice, func(w *domain.Workout) { published(&w.Lineage) }, own, own, public)
	private := f.workout(t, alice, nil, own)

	clone, err := f.workoutSvc.Subscribe(ctx, bob, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, clone.OriginalID)
	assert.Equal(t, bob, clone.CreatedBy)
	require.Len(t, clone.Exercises, 3)

	cloned := f.exercises.ownedBy(bob)
	require.Len(t, cloned, 1, "an exercise used twice is cloned once")
	assert.Equal(t, own.ID, cloned[0].OriginalID)
	assert.Equal(t, cloned[0].ID, clone.Exercises[0].ExerciseID)
	assert.Equal(t, cloned[0].ID, clone.Exercises[1].ExerciseID)
	assert.Equal(t, public.ID, clone.Exercises[2].ExerciseID, "public exercises are referenced as they are")

	assert.NotEqual(t, own.Preview, cloned[0].Preview)
	assert.Contains(t, f.media.objects, cloned[0].Preview)
	assert.Len(t, f.media.objects, 2)
	assert.Contains(t, f.events.types(), domain.EventContentSubscribed)

	tests := []struct {
		name   string
		userID string
		id     string
		want   error
	}{
		{"again", bob, src.ID, domain.ErrAlreadySubscribed},
		{"own content", alice, src.ID, domain.ErrOwnContent},
		{"not visible", carol, private.ID, domain.ErrContentNotVisible},
		{"missing", bob, "workout-404", domain.ErrWorkoutNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.workoutSvc.Subscribe(ctx, tt.userID, tt.id)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	catalog, err := f.workoutSvc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, int64(1), *catalog[0].Subscribers)
}

func TestWorkoutService_SubscribeChecksLimitsFirst(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	own := f.exercise(t, alice, func(e *domain.Exercise) { e.Video = "exercises/videos/run.mp4" })
	src := f.workout(t, alice, func(w *domain.Workout) { published(&w.Lineage) }, own)
	f.limits.limits[bob] = &domain.FitnessLimits{UserID: bob, Workouts: 5, Exercises: 0, Plans: 1}

	_, err := f.workoutSvc.Subscribe(ctx, bob, src.ID)
	assert.ErrorIs(t, err, domain.ErrLimitReached)
	assert.Empty(t, f.exercises.ownedBy(bob))
	assert.Equal(t, 1, f.workouts.len())
	assert.Len(t, f.media.objects, 1)
}

func TestWorkoutService_SubscribeRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	own := f.exercise(t, alice, func(e *domain.Exercise) {
		e.Preview = "exercises/previews/lunge.png"
		e.Video = "exercises/videos/lunge.mp4"
	})
	src := f.workout(t, alice, func(w *domain.Workout) { published(&w.Lineage) }, own)
	f.workouts.createErr = errors.New("write failed")

	_, err := f.workoutSvc.Subscribe(ctx, bob, src.ID)
	assert.ErrorContains(t, err, "write failed")
	assert.Empty(t, f.exercises.ownedBy(bob), "exercise clones are removed")
	assert.Len(t, f.media.objects, 2, "copied media is removed")

	usage, err := f.exerciseSvc.limits.Usage(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.FitnessUsage{}, usage)
}

func TestWorkoutService_UnsubscribeAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	own := f.exercise(t, alice, nil)
	src := f.workout(t, alice, func(w *domain.Workout) { published(&w.Lineage) }, own)

	clone, err := f.workoutSvc.Subscribe(ctx, bob, src.ID)
	require.NoError(t, err)
	week := f.plan(t, bob, nil, clone.Workout, clone.Workout)

	require.NoError(t, f.workoutSvc.Unsubscribe(ctx, bob, src.ID))
	assert.ErrorIs(t, f.workoutSvc.Unsubscribe(ctx, bob, src.ID), domain.ErrNotSubscribed)

	_, err = f.workouts.get(clone.ID)
	assert.ErrorIs(t, err, domain.ErrWorkoutNotFound)
	p, _ := f.plans.get(week.ID)
	assert.Empty(t, p.Workouts, "the workout is pulled from every day of the plan")
	assert.Len(t, f.exercises.ownedBy(bob), 1, "cloned exercises stay with the subscriber")

	t.Run("delete pulls the exercise from the owner's workouts only", func(t *testing.T) {
		mine := f.workout(t, alice, nil, own, own)
		require.NoError(t, f.exerciseSvc.Delete(ctx, alice, own.ID))

		w, _ := f.workouts.get(mine.ID)
		assert.Empty(t, w.Exercises)
		assert.ErrorIs(t, f.exerciseSvc.Delete(ctx, bob, own.ID), domain.ErrExerciseNotFound)
		assert.NoError(t, f.exerciseSvc.Delete(ctx, bob, f.exercises.ownedBy(bob)[0].ID))
	})
}

func TestExerciseService_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	src := f.exercise(t, alice, func(e *domain.Exercise) {
		e.IsPublic = true
		e.Preview = "exercises/previews/pullup.png"
		e.Video = "exercises/videos/pullup.mp4"
	})

	clone, err := f.exerciseSvc.Subscribe(ctx, bob, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, clone.OriginalID)
	assert.Equal(t, bob, clone.CreatedBy)
	assert.Equal(t, "https://media.test/"+clone.Preview, clone.PreviewURL)
	assert.Len(t, f.media.objects, 4)

	_, err = f.exerciseSvc.Subscribe(ctx, bob, src.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
	_, err = f.exerciseSvc.Subscribe(ctx, alice, src.ID)
	assert.ErrorIs(t, err, domain.ErrOwnContent)

	require.NoError(t, f.exerciseSvc.Unsubscribe(ctx, bob, src.ID))
	assert.Len(t, f.media.objects, 2, "unsubscribing drops the copied media")
	assert.ErrorIs(t, f.exerciseSvc.Unsubscribe(ctx, bob, src.ID), domain.ErrNotSubscribed)

	t.Run("failed write removes copied media", func(t *testing.T) {
		f.exercises.createErr = errors.New("write failed")
		defer func() { f.exercises.createErr = nil }()

		_, err := f.exerciseSvc.Subscribe(ctx, bob, src.ID)
		assert.ErrorContains(t, err, "write failed")
		assert.Len(t, f.media.objects, 2)
	})
}

func TestExerciseService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(config.LimitsConfig{Workouts: 1, Exercises: 1, Plans: 1})
	alice := f.user(t)

	in := ExerciseInput{Name: "Присед", CategoryIDs: []string{"legs", "legs"}, GymEquipmentIDs: []string{"barbell"}}
	created, err := f.exerciseSvc.Create(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"legs"}, created.CategoryIDs)

	tests := []struct {
		name  string
		in    ExerciseInput
		field string
		want  error
	}{
		{"unknown category", ExerciseInput{Name: "Тяга", CategoryIDs: []string{"arms"}}, "category", nil},
		{"unknown equipment", ExerciseInput{Name: "Тяга", GymEquipmentIDs: []string{"rope"}}, "gym_equipment", nil},
		{"duplicate", in, "non_field_errors", nil},
		{"limit", ExerciseInput{Name: "Тяга"}, "", domain.ErrLimitReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.exerciseSvc.Create(ctx, alice, tt.in)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			v, ok := domain.IsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, v.Fields, tt.field)
		})
	}
}

func TestPlanService_PublishAndShare(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	own := f.exercise(t, alice, nil)
	w := f.workout(t, alice, nil, own)
	p := f.plan(t, alice, nil, w, w)

	report, err := f.planSvc.Originality(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Originality{Total: 7}, report.Originality)
	assert.True(t, report.Publishable)

	require.NoError(t, f.planSvc.Publish(ctx, alice, p.ID))
	for _, l := range []*domain.Lineage{
		&must(f.plans.get(p.ID)).Lineage,
		&must(f.workouts.get(w.ID)).Lineage,
		&must(f.exercises.get(own.ID)).Lineage,
	} {
		assert.True(t, l.IsPublished)
	}

	require.NoError(t, f.planSvc.Share(ctx, alice, p.ID, []string{bob}))
	for _, l := range []*domain.Lineage{
		&must(f.plans.get(p.ID)).Lineage,
		&must(f.workouts.get(w.ID)).Lineage,
		&must(f.exercises.get(own.ID)).Lineage,
	} {
		assert.Equal(t, []string{bob}, l.SharedWith)
	}

	require.NoError(t, f.planSvc.Unpublish(ctx, alice, p.ID))
	assert.ErrorIs(t, f.planSvc.Unpublish(ctx, alice, p.ID), domain.ErrContentNotPublished)

	require.NoError(t, f.workoutSvc.Delete(ctx, alice, w.ID))
	assert.Empty(t, must(f.plans.get(p.ID)).Workouts, "deleting a workout pulls it from every day of the owner's plans")
}

func TestPlanService_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	own := f.exercise(t, alice, func(e *domain.Exercise) { e.Preview = "exercises/previews/plank.png" })
	w := f.workout(t, alice, nil, own)
	src := f.plan(t, alice, func(p *domain.WeeklyFitnessPlan) { published(&p.Lineage) }, w, w)

	t.Run("limits", func(t *testing.T) {
		f.limits.limits[bob] = &domain.FitnessLimits{UserID: bob, Workouts: 0, Exercises: 5, Plans: 1}
		defer delete(f.limits.limits, bob)

		_, err := f.planSvc.Subscribe(ctx, bob, src.ID)
		assert.ErrorIs(t, err, domain.ErrLimitReached)
		assert.Empty(t, f.exercises.ownedBy(bob))
	})

	t.Run("failed write rolls back clones", func(t *testing.T) {
		f.plans.createErr = errors.New("write failed")
		defer func() { f.plans.createErr = nil }()

		_, err := f.planSvc.Subscribe(ctx, bob, src.ID)
		assert.ErrorContains(t, err, "write failed")
		assert.Empty(t, f.exercises.ownedBy(bob))
		assert.Equal(t, 1, f.workouts.len())
		assert.Len(t, f.media.objects, 1)
	})

	clone, err := f.planSvc.Subscribe(ctx, bob, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, clone.OriginalID)
	require.Len(t, clone.Workouts, 2)
	assert.Equal(t, clone.Workouts[0].WorkoutID, clone.Workouts[1].WorkoutID, "a workout on two days is cloned once")

	wc := must(f.workouts.get(clone.Workouts[0].WorkoutID))
	assert.Equal(t, w.ID, wc.OriginalID)
	assert.Equal(t, bob, wc.CreatedBy)
	assert.Len(t, f.exercises.ownedBy(bob), 1)

	_, err = f.planSvc.Subscribe(ctx, bob, src.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	assert.ErrorIs(t, f.planSvc.Publish(ctx, bob, clone.ID), domain.ErrNotOriginalEnough)

	require.NoError(t, f.planSvc.Unsubscribe(ctx, bob, src.ID))
	assert.Len(t, f.workouts.filter(func(w *domain.Workout) bool { return w.CreatedBy == bob }), 1, "cloned workouts stay")
}

func TestExerciseService_PurgeOrphans(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture(testContentLimits)
	alice, bob := f.user(t), f.user(t)

	orphan := f.exercise(t, alice, func(e *domain.Exercise) { e.Video = "exercises/videos/orphan.mp4" })
	shared := f.exercise(t, alice, func(e *domain.Exercise) { e.SharedWith = []string{bob} })
	kept := f.exercise(t, bob, nil)
	require.NoError(t, f.exercises.DetachCreator(ctx, alice))

	n, err := f.exerciseSvc.PurgeOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, f.media.objects, orphan.Video)

	_, err = f.exercises.get(orphan.ID)
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
	for _, id := range []string{shared.ID, kept.ID} {
		_, err := f.exercises.get(id)
		assert.NoError(t, err)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
