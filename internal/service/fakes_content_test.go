package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
)

// contentStore is an in-memory content collection. It implements
// domain.LifecycleRepository for any document that embeds domain.Lineage.
type contentStore[T any] struct {
	mu       sync.Mutex
	prefix   string
	seq      int
	items    map[string]*T
	order    []string
	notFound error
	idOf     func(*T) *string
	lineOf   func(*T) *domain.Lineage

	// createErr makes every Create fail
	createErr error
}

func newContentStore[T any](prefix string, notFound error, idOf func(*T) *string, lineOf func(*T) *domain.Lineage) *contentStore[T] {
	return &contentStore[T]{
		prefix:   prefix,
		items:    make(map[string]*T),
		notFound: notFound,
		idOf:     idOf,
		lineOf:   lineOf,
	}
}

func (s *contentStore[T]) create(item *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.seq++
	id := fmt.Sprintf("%s-%d", s.prefix, s.seq)
	*s.idOf(item) = id
	if l := s.lineOf(item); l.SharedWith == nil {
		l.SharedWith = []string{}
	}
	cp := *item
	s.items[id] = &cp
	s.order = append(s.order, id)
	return nil
}

func (s *contentStore[T]) get(id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, s.notFound
	}
	cp := *item
	return &cp, nil
}

func (s *contentStore[T]) getMany(ids []string) map[string]*T {
	out := make(map[string]*T, len(ids))
	for _, id := range ids {
		if item, err := s.get(id); err == nil {
			out[id] = item
		}
	}
	return out
}

func (s *contentStore[T]) update(item *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := *s.idOf(item)
	if _, ok := s.items[id]; !ok {
		return s.notFound
	}
	cp := *item
	s.items[id] = &cp
	return nil
}

func (s *contentStore[T]) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return s.notFound
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	return nil
}

// filter returns copies of the matching items in insertion order
func (s *contentStore[T]) filter(keep func(*T) bool) []*T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*T
	for _, id := range s.order {
		if item := s.items[id]; keep(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out
}

func (s *contentStore[T]) modify(ids []string, fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			fn(item)
		}
	}
}

func (s *contentStore[T]) modifyAll(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		fn(item)
	}
}

func (s *contentStore[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *contentStore[T]) findClone(originalID, userID string) (*T, error) {
	hits := s.filter(func(item *T) bool {
		l := s.lineOf(item)
		return l.OriginalID == originalID && l.CreatedBy == userID
	})
	if len(hits) == 0 {
		return nil, s.notFound
	}
	return hits[0], nil
}

func (s *contentStore[T]) visible(viewerID string) []*T {
	return s.filter(func(item *T) bool {
		l := s.lineOf(item)
		return !l.IsArchived && (l.IsPublic || l.IsOwnedBy(viewerID) || l.IsSharedWith(viewerID))
	})
}

func (s *contentStore[T]) archived(userID string) []*T {
	return s.filter(func(item *T) bool {
		l := s.lineOf(item)
		return l.CreatedBy == userID && l.IsArchived
	})
}

func (s *contentStore[T]) published() []*T {
	return s.filter(func(item *T) bool {
		l := s.lineOf(item)
		return l.IsPublished && !l.IsArchived
	})
}

func (s *contentStore[T]) SetArchived(_ context.Context, id string, archived bool) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.modify([]string{id}, func(item *T) { s.lineOf(item).IsArchived = archived })
	return nil
}

func (s *contentStore[T]) SetPublished(_ context.Context, ids []string, published bool) error {
	s.modify(ids, func(item *T) { s.lineOf(item).IsPublished = published })
	return nil
}

func (s *contentStore[T]) AddSharedWith(_ context.Context, ids []string, userIDs []string) error {
	s.modify(ids, func(item *T) {
		l := s.lineOf(item)
		shared := slices.Clone(l.SharedWith)
		for _, u := range userIDs {
			if !slices.Contains(shared, u) {
				shared = append(shared, u)
			}
		}
		l.SharedWith = shared
	})
	return nil
}

func (s *contentStore[T]) RemoveSharedWith(_ context.Context, ids []string, userID string) error {
	s.modify(ids, func(item *T) {
		l := s.lineOf(item)
		l.SharedWith = slices.DeleteFunc(slices.Clone(l.SharedWith), func(u string) bool { return u == userID })
	})
	return nil
}

func (s *contentStore[T]) RemoveUserFromShares(_ context.Context, userID string) error {
	s.modifyAll(func(item *T) {
		l := s.lineOf(item)
		l.SharedWith = slices.DeleteFunc(slices.Clone(l.SharedWith), func(u string) bool { return u == userID })
	})
	return nil
}

func (s *contentStore[T]) CountByCreator(_ context.Context, userID string) (int64, error) {
	return int64(len(s.filter(func(item *T) bool { return s.lineOf(item).CreatedBy == userID }))), nil
}

func (s *contentStore[T]) CountClones(_ context.Context, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	for _, id := range ids {
		counts[id] = int64(len(s.filter(func(item *T) bool { return s.lineOf(item).OriginalID == id })))
	}
	return counts, nil
}

func (s *contentStore[T]) DetachCreator(_ context.Context, userID string) error {
	s.modifyAll(func(item *T) {
		if l := s.lineOf(item); l.CreatedBy == userID {
			l.CreatedBy = ""
		}
	})
	return nil
}

type fakeExercises struct {
	*contentStore[domain.Exercise]
}

func newFakeExercises() *fakeExercises {
	return &fakeExercises{newContentStore("exercise", domain.ErrExerciseNotFound,
		func(e *domain.Exercise) *string { return &e.ID },
		func(e *domain.Exercise) *domain.Lineage { return &e.Lineage },
	)}
}

func (f *fakeExercises) Create(_ context.Context, e *domain.Exercise) error { return f.create(e) }

func (f *fakeExercises) GetByID(_ context.Context, id string) (*domain.Exercise, error) {
	return f.get(id)
}

func (f *fakeExercises) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Exercise, error) {
	return f.getMany(ids), nil
}

func (f *fakeExercises) ListVisible(_ context.Context, q domain.ExerciseQuery) ([]*domain.Exercise, error) {
	return f.visible(q.ViewerID), nil
}

func (f *fakeExercises) ListArchived(_ context.Context, userID string) ([]*domain.Exercise, error) {
	return f.archived(userID), nil
}

func (f *fakeExercises) ListPublished(context.Context) ([]*domain.Exercise, error) {
	return f.published(), nil
}

func (f *fakeExercises) FindDuplicate(_ context.Context, e *domain.Exercise) (*domain.Exercise, error) {
	hits := f.filter(func(o *domain.Exercise) bool { return o.ID != e.ID && o.SameDetails(e) })
	if len(hits) == 0 {
		return nil, domain.ErrExerciseNotFound
	}
	return hits[0], nil
}

func (f *fakeExercises) FindClone(_ context.Context, originalID, userID string) (*domain.Exercise, error) {
	return f.findClone(originalID, userID)
}

func (f *fakeExercises) Update(_ context.Context, e *domain.Exercise) error { return f.update(e) }

func (f *fakeExercises) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeExercises) DeleteOrphans(context.Context) ([]*domain.Exercise, error) {
	orphans := f.filter(func(e *domain.Exercise) bool {
		return e.CreatedBy == "" && !e.IsPublic && !e.IsPublished && len(e.SharedWith) == 0
	})
	for _, e := range orphans {
		_ = f.delete(e.ID)
	}
	return orphans, nil
}

// ownedBy lists the exercises userID created
func (f *fakeExercises) ownedBy(userID string) []*domain.Exercise {
	return f.filter(func(e *domain.Exercise) bool { return e.CreatedBy == userID })
}

type fakeWorkouts struct {
	*contentStore[domain.Workout]
}

func newFakeWorkouts() *fakeWorkouts {
	return &fakeWorkouts{newContentStore("workout", domain.ErrWorkoutNotFound,
		func(w *domain.Workout) *string { return &w.ID },
		func(w *domain.Workout) *domain.Lineage { return &w.Lineage },
	)}
}

func (f *fakeWorkouts) Create(_ context.Context, w *domain.Workout) error { return f.create(w) }

func (f *fakeWorkouts) GetByID(_ context.Context, id string) (*domain.Workout, error) {
	return f.get(id)
}

func (f *fakeWorkouts) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Workout, error) {
	return f.getMany(ids), nil
}

func (f *fakeWorkouts) ListVisible(_ context.Context, q domain.WorkoutQuery) ([]*domain.Workout, error) {
	return f.visible(q.ViewerID), nil
}

func (f *fakeWorkouts) ListArchived(_ context.Context, userID string) ([]*domain.Workout, error) {
	return f.archived(userID), nil
}

func (f *fakeWorkouts) ListPublished(context.Context) ([]*domain.Workout, error) {
	return f.published(), nil
}

func (f *fakeWorkouts) FindClone(_ context.Context, originalID, userID string) (*domain.Workout, error) {
	return f.findClone(originalID, userID)
}

func (f *fakeWorkouts) Update(_ context.Context, w *domain.Workout) error { return f.update(w) }

func (f *fakeWorkouts) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakeWorkouts) PullExercise(_ context.Context, ownerID, exerciseID string) error {
	f.modifyAll(func(w *domain.Workout) {
		if w.CreatedBy != ownerID {
			return
		}
		w.Exercises = slices.DeleteFunc(slices.Clone(w.Exercises), func(e domain.WorkoutExercise) bool {
			return e.ExerciseID == exerciseID
		})
	})
	return nil
}

type fakePlans struct {
	*contentStore[domain.WeeklyFitnessPlan]
}

func newFakePlans() *fakePlans {
	return &fakePlans{newContentStore("plan", domain.ErrPlanNotFound,
		func(p *domain.WeeklyFitnessPlan) *string { return &p.ID },
		func(p *domain.WeeklyFitnessPlan) *domain.Lineage { return &p.Lineage },
	)}
}

func (f *fakePlans) Create(_ context.Context, p *domain.WeeklyFitnessPlan) error { return f.create(p) }

func (f *fakePlans) GetByID(_ context.Context, id string) (*domain.WeeklyFitnessPlan, error) {
	return f.get(id)
}

func (f *fakePlans) ListVisible(_ context.Context, q domain.WorkoutQuery) ([]*domain.WeeklyFitnessPlan, error) {
	return f.visible(q.ViewerID), nil
}

func (f *fakePlans) ListArchived(_ context.Context, userID string) ([]*domain.WeeklyFitnessPlan, error) {
	return f.archived(userID), nil
}

func (f *fakePlans) ListPublished(context.Context) ([]*domain.WeeklyFitnessPlan, error) {
	return f.published(), nil
}

func (f *fakePlans) FindClone(_ context.Context, originalID, userID string) (*domain.WeeklyFitnessPlan, error) {
	return f.findClone(originalID, userID)
}

func (f *fakePlans) Update(_ context.Context, p *domain.WeeklyFitnessPlan) error { return f.update(p) }

func (f *fakePlans) Delete(_ context.Context, id string) error { return f.delete(id) }

func (f *fakePlans) PullWorkout(_ context.Context, ownerID, workoutID string) error {
	f.modifyAll(func(p *domain.WeeklyFitnessPlan) {
		if p.CreatedBy != ownerID {
			return
		}
		p.Workouts = slices.DeleteFunc(slices.Clone(p.Workouts), func(w domain.PlanWorkout) bool {
			return w.WorkoutID == workoutID
		})
	})
	return nil
}

// fakeCatalog knows every category and piece of equipment it was seeded with
type fakeCatalog struct {
	categories map[string]bool
	equipment  map[string]bool
}

func (f *fakeCatalog) count(known map[string]bool, ids []string) int {
	n := 0
	for _, id := range ids {
		if known[id] {
			n++
		}
	}
	return n
}

func (f *fakeCatalog) ListCategories(context.Context) ([]*domain.ExerciseCategory, error) {
	var out []*domain.ExerciseCategory
	for id := range f.categories {
		out = append(out, &domain.ExerciseCategory{ID: id, Name: id})
	}
	return out, nil
}

func (f *fakeCatalog) CountCategories(_ context.Context, ids []string) (int, error) {
	return f.count(f.categories, ids), nil
}

func (f *fakeCatalog) EnsureCategories(_ context.Context, names []string) (int, error) {
	added := 0
	for _, n := range names {
		if !f.categories[n] {
			f.categories[n] = true
			added++
		}
	}
	return added, nil
}

func (f *fakeCatalog) ListEquipment(context.Context) ([]*domain.GymEquipment, error) {
	var out []*domain.GymEquipment
	for id := range f.equipment {
		out = append(out, &domain.GymEquipment{ID: id, Name: id})
	}
	return out, nil
}

func (f *fakeCatalog) CountEquipment(_ context.Context, ids []string) (int, error) {
	return f.count(f.equipment, ids), nil
}

func (f *fakeCatalog) EnsureEquipment(_ context.Context, names []string) (int, error) {
	added := 0
	for _, n := range names {
		if !f.equipment[n] {
			f.equipment[n] = true
			added++
		}
	}
	return added, nil
}

// contentFixture wires the three content services over in-memory stores
type contentFixture struct {
	exercises *fakeExercises
	workouts  *fakeWorkouts
	plans     *fakePlans
	users     *fakeUsers
	media     *fakeMedia
	events    *fakeEvents
	limits    *fakeLimits

	exerciseSvc *ExerciseService
	workoutSvc  *WorkoutService
	planSvc     *PlanService
}

func newContentFixture(limits config.LimitsConfig) *contentFixture {
	f := &contentFixture{
		exercises: newFakeExercises(),
		workouts:  newFakeWorkouts(),
		plans:     newFakePlans(),
		users:     newFakeUsers(),
		media:     newFakeMedia(),
		events:    &fakeEvents{},
		limits:    &fakeLimits{limits: map[string]*domain.FitnessLimits{}},
	}
	deps := ContentDeps{
		Exercises: f.exercises,
		Workouts:  f.workouts,
		Plans:     f.plans,
		Catalog:   &fakeCatalog{categories: map[string]bool{"legs": true}, equipment: map[string]bool{"barbell": true}},
		Users:     f.users,
		Limits:    NewLimitsService(f.limits, f.exercises, f.workouts, f.plans, limits),
		Media:     f.media,
		Events:    f.events,
	}
	f.exerciseSvc = NewExerciseService(deps)
	f.workoutSvc = NewWorkoutService(deps)
	f.planSvc = NewPlanService(deps)
	return f
}
