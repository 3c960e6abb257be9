package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// PlanService manages weekly fitness plans built from workouts
type PlanService struct {
	contentBase
	exercises domain.ExerciseRepository
	workouts  domain.WorkoutRepository
	plans     domain.PlanRepository
	media     domain.MediaStorage
}

func NewPlanService(deps ContentDeps) *PlanService {
	return &PlanService{
		contentBase: newContentBase(domain.KindPlan, deps),
		exercises:   deps.Exercises,
		workouts:    deps.Workouts,
		plans:       deps.Plans,
		media:       deps.Media,
	}
}

// PlanView is a weekly plan with catalog stats
type PlanView struct {
	*domain.WeeklyFitnessPlan
	Subscribers *int64 `json:"subscribers,omitempty"`
}

func planViews(items []*domain.WeeklyFitnessPlan) []*PlanView {
	out := make([]*PlanView, 0, len(items))
	for _, p := range items {
		out = append(out, &PlanView{WeeklyFitnessPlan: p})
	}
	return out
}

// PlanWorkoutInput places a workout on a week day
type PlanWorkoutInput struct {
	ID        string
	WorkoutID string
	WeekDay   domain.Weekday
}

// PlanInput is the editable part of a weekly plan
type PlanInput struct {
	Name        string
	Description string
	Workouts    []PlanWorkoutInput
}

func (in PlanInput) apply(p *domain.WeeklyFitnessPlan) bool {
	before := *p
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description

	known := make(map[string]bool, len(p.Workouts))
	for _, w := range p.Workouts {
		known[w.ID] = true
	}
	entries := make([]domain.PlanWorkout, 0, len(in.Workouts))
	for _, w := range in.Workouts {
		id := w.ID
		if id == "" || !known[id] {
			id = newID()
		}
		entries = append(entries, domain.PlanWorkout{ID: id, WorkoutID: w.WorkoutID, WeekDay: w.WeekDay})
	}
	p.Workouts = entries

	changed := before.Name != p.Name ||
		before.Description != p.Description ||
		!slices.EqualFunc(before.Workouts, p.Workouts, func(a, b domain.PlanWorkout) bool {
			return a.WorkoutID == b.WorkoutID && a.WeekDay == b.WeekDay
		})
	if !changed {
		*p = before
	}
	return changed
}

// validate checks limits and that every workout belongs to the plan owner
func (s *PlanService) validate(ctx context.Context, p *domain.WeeklyFitnessPlan) error {
	if err := p.Validate().OrNil(); err != nil {
		return err
	}
	workouts, err := s.workouts.GetByIDs(ctx, p.WorkoutIDs())
	if err != nil {
		return err
	}
	for _, id := range p.WorkoutIDs() {
		w, ok := workouts[id]
		if !ok {
			return domain.NewValidationError("workouts", domain.ErrWorkoutNotFound.Error()+": "+id)
		}
		if !w.IsOwnedBy(p.CreatedBy) {
			return domain.NewValidationError("workouts", domain.ErrWorkoutNotUsable.Error())
		}
	}
	return nil
}

func (s *PlanService) List(ctx context.Context, q domain.WorkoutQuery) ([]*PlanView, error) {
	items, err := s.plans.ListVisible(ctx, q)
	if err != nil {
		return nil, err
	}
	return planViews(items), nil
}

func (s *PlanService) Get(ctx context.Context, userID, id string) (*PlanView, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&p.Lineage, userID); err != nil {
		return nil, err
	}
	return &PlanView{WeeklyFitnessPlan: p}, nil
}

func (s *PlanService) Create(ctx context.Context, userID string, in PlanInput) (*PlanView, error) {
	p := &domain.WeeklyFitnessPlan{Lineage: domain.NewLineage(userID, s.now())}
	in.apply(p)
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, 0, 0, 1); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, "created", "", p.ID, userID, nil)
	return &PlanView{WeeklyFitnessPlan: p}, nil
}

func (s *PlanService) Update(ctx context.Context, userID, id string, in PlanInput) (*PlanView, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !in.apply(p) {
		return &PlanView{WeeklyFitnessPlan: p}, nil
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	s.touch(&p.Lineage, true)
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, "updated", "", p.ID, userID, nil)
	return &PlanView{WeeklyFitnessPlan: p}, nil
}

func (s *PlanService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.emit(ctx, "deleted", "", p.ID, userID, nil)
	return nil
}

func (s *PlanService) owned(ctx context.Context, userID, id string) (*domain.WeeklyFitnessPlan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mustOwn(&p.Lineage, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlanService) ListArchived(ctx context.Context, userID string) ([]*PlanView, error) {
	items, err := s.plans.ListArchived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return planViews(items), nil
}

func (s *PlanService) ToggleArchived(ctx context.Context, userID, id string) (bool, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.toggleArchived(ctx, s.plans, p.ID, &p.Lineage, userID)
}

// contents loads the workouts of a plan and the owner's exercises in them
func (s *PlanService) contents(ctx context.Context, p *domain.WeeklyFitnessPlan) (map[string]*domain.Workout, []string, map[string]*domain.Exercise, error) {
	workouts, err := s.workouts.GetByIDs(ctx, p.WorkoutIDs())
	if err != nil {
		return nil, nil, nil, err
	}
	list := make([]*domain.Workout, 0, len(workouts))
	for _, id := range p.WorkoutIDs() {
		if w, ok := workouts[id]; ok {
			list = append(list, w)
		}
	}
	exerciseIDs, exercises, err := ownedExercises(ctx, s.exercises, p.CreatedBy, list...)
	if err != nil {
		return nil, nil, nil, err
	}
	return workouts, exerciseIDs, exercises, nil
}

func ownedWorkoutIDs(workouts map[string]*domain.Workout, ownerID string, order []string) []string {
	ids := make([]string, 0, len(workouts))
	for _, id := range order {
		if w, ok := workouts[id]; ok && w.IsOwnedBy(ownerID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Share shares the plan, its workouts and the owner's exercises in them
func (s *PlanService) Share(ctx context.Context, userID, id string, userIDs []string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	targets, err := s.shareTargets(ctx, userID, userIDs)
	if err != nil {
		return err
	}
	workouts, exerciseIDs, _, err := s.contents(ctx, p)
	if err != nil {
		return err
	}
	if err := s.exercises.AddSharedWith(ctx, exerciseIDs, targets); err != nil {
		return err
	}
	if err := s.workouts.AddSharedWith(ctx, ownedWorkoutIDs(workouts, userID, p.WorkoutIDs()), targets); err != nil {
		return err
	}
	if err := s.plans.AddSharedWith(ctx, []string{p.ID}, targets); err != nil {
		return err
	}
	s.emit(ctx, "shared", "", p.ID, userID, nil)
	return nil
}

func (s *PlanService) Unshare(ctx context.Context, userID, id, targetID string) error {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unshare(ctx, s.plans, p.ID, &p.Lineage, userID, targetID)
}

func (s *PlanService) Originality(ctx context.Context, userID, id string) (*OriginalityReport, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(&p.Lineage, userID); err != nil {
		return nil, err
	}
	workouts, _, exercises, err := s.contents(ctx, p)
	if err != nil {
		return nil, err
	}
	return newOriginalityReport(domain.PlanOriginality(p, workouts, exercises)), nil
}

// Publish puts the plan, its workouts and the owner's exercises in them in
// the catalog
func (s *PlanService) Publish(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	workouts, exerciseIDs, exercises, err := s.contents(ctx, p)
	if err != nil {
		return err
	}
	if err := checkPublishable(&p.Lineage, domain.PlanOriginality(p, workouts, exercises)); err != nil {
		return err
	}
	workoutIDs := ownedWorkoutIDs(workouts, userID, p.WorkoutIDs())
	if err := s.exercises.SetPublished(ctx, exerciseIDs, true); err != nil {
		return err
	}
	if err := s.workouts.SetPublished(ctx, workoutIDs, true); err != nil {
		return err
	}
	if err := s.plans.SetPublished(ctx, []string{p.ID}, true); err != nil {
		return err
	}
	s.emit(ctx, "published", domain.EventContentPublished, p.ID, userID, map[string]any{
		"workouts":  len(workoutIDs),
		"exercises": len(exerciseIDs),
	})
	return nil
}

func (s *PlanService) Unpublish(ctx context.Context, userID, id string) error {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.unpublish(ctx, s.plans, p.ID, &p.Lineage, userID)
}

func (s *PlanService) ListPublished(ctx context.Context) ([]*PlanView, error) {
	items, err := s.plans.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	counts, err := s.plans.CountClones(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := planViews(items)
	for _, v := range out {
		n := counts[v.ID]
		v.Subscribers = &n
	}
	return out, nil
}

// Subscribe deep clones the plan with its workouts and foreign exercises
func (s *PlanService) Subscribe(ctx context.Context, userID, id string) (*PlanView, error) {
	src, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubscribable(&src.Lineage, userID); err != nil {
		return nil, err
	}
	if _, err := s.plans.FindClone(ctx, src.ID, userID); err == nil {
		return nil, domain.ErrAlreadySubscribed
	} else if !errors.Is(err, domain.ErrPlanNotFound) {
		return nil, err
	}

	c := newCloner(userID, s.now(), s.exercises, s.workouts, s.media)
	newExercises, newWorkouts, err := dryRunCounts(c, func(c *cloner) error {
		_, err := c.plan(ctx, src)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.limits.Check(ctx, userID, newExercises, newWorkouts, 1); err != nil {
		return nil, err
	}

	clone, err := c.plan(ctx, src)
	if err == nil {
		err = s.plans.Create(ctx, clone)
	}
	if err != nil {
		s.discard(ctx, c)
		return nil, err
	}
	s.emit(ctx, "subscribed", domain.EventContentSubscribed, src.ID, userID, map[string]any{
		"clone_id":  clone.ID,
		"workouts":  c.newWorkouts,
		"exercises": c.newExercises,
	})
	return &PlanView{WeeklyFitnessPlan: clone}, nil
}

// Unsubscribe deletes the caller's clone of the plan. Cloned workouts and
// exercises stay with the caller.
func (s *PlanService) Unsubscribe(ctx context.Context, userID, id string) error {
	clone, err := s.plans.FindClone(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	if err := s.plans.Delete(ctx, clone.ID); err != nil {
		return err
	}
	s.emit(ctx, "unsubscribed", "", id, userID, nil)
	return nil
}
