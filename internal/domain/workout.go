package domain

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxWorkoutName = 100
	MinSets        = 1
	MaxSets        = 100
	MinRestTime    = 1
	MaxRestTime    = 3600
)

// WorkoutExercise is one entry of a workout. Value counts reps or seconds
// depending on the exercise.
type WorkoutExercise struct {
	ID               string `bson:"id" json:"id"`
	ExerciseID       string `bson:"exercise_id" json:"exercise"`
	Sets             int    `bson:"sets" json:"sets"`
	Value            int    `bson:"value" json:"value"`
	RestTimeAfterSet int    `bson:"rest_time_after_set" json:"rest_time_after_set"`
}

// Workout is an ordered list of exercises
type Workout struct {
	ID                          string            `bson:"_id,omitempty" json:"id"`
	Name                        string            `bson:"name" json:"name"`
	Description                 string            `bson:"description" json:"description"`
	Exercises                   []WorkoutExercise `bson:"exercises" json:"exercises"`
	RestBetweenWorkoutExercises int               `bson:"rest_between_workout_exercises" json:"rest_between_workout_exercises"`
	Lineage                     `bson:",inline"`
}

// ExerciseIDs lists the distinct exercises of the workout in order
func (w *Workout) ExerciseIDs() []string {
	seen := make(map[string]bool, len(w.Exercises))
	ids := make([]string, 0, len(w.Exercises))
	for _, e := range w.Exercises {
		if !seen[e.ExerciseID] {
			seen[e.ExerciseID] = true
			ids = append(ids, e.ExerciseID)
		}
	}
	return ids
}

// Validate checks field limits and entry ranges
func (w *Workout) Validate() *ValidationError {
	v := &ValidationError{}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		v.Add("name", "This field is required.")
	} else if utf8.RuneCountInString(name) > MaxWorkoutName {
		v.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxWorkoutName))
	}
	if w.RestBetweenWorkoutExercises < 0 || w.RestBetweenWorkoutExercises > MaxRestTime {
		v.Add("rest_between_workout_exercises", fmt.Sprintf("Ensure this value is between 0 and %d.", MaxRestTime))
	}
	for i, e := range w.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		if e.ExerciseID == "" {
			v.Add(field, "exercise is required.")
		}
		if e.Sets < MinSets || e.Sets > MaxSets {
			v.Add(field, fmt.Sprintf("sets must be between %d and %d.", MinSets, MaxSets))
		}
		if e.Value < MinExerciseValue || e.Value > MaxExerciseValue {
			v.Add(field, fmt.Sprintf("value must be between %d and %d.", MinExerciseValue, MaxExerciseValue))
		}
		if e.RestTimeAfterSet < MinRestTime || e.RestTimeAfterSet > MaxRestTime {
			v.Add(field, fmt.Sprintf("rest_time_after_set must be between %d and %d.", MinRestTime, MaxRestTime))
		}
	}
	return v
}

type WorkoutQuery struct {
	ViewerID string
	Name     string
}

type WorkoutRepository interface {
	LifecycleRepository
	Create(ctx context.Context, workout *Workout) error
	GetByID(ctx context.Context, id string) (*Workout, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*Workout, error)
	ListVisible(ctx context.Context, q WorkoutQuery) ([]*Workout, error)
	ListArchived(ctx context.Context, userID string) ([]*Workout, error)
	ListPublished(ctx context.Context) ([]*Workout, error)
	FindClone(ctx context.Context, originalID, userID string) (*Workout, error)
	Update(ctx context.Context, workout *Workout) error
	Delete(ctx context.Context, id string) error
	// PullExercise removes every entry referencing exerciseID from the owner's workouts
	PullExercise(ctx context.Context, ownerID, exerciseID string) error
}

// PlanWorkout places a workout on a week day
type PlanWorkout struct {
	ID        string  `bson:"id" json:"id"`
	WorkoutID string  `bson:"workout_id" json:"workout"`
	WeekDay   Weekday `bson:"week_day" json:"week_day"`
}

// WeeklyFitnessPlan schedules workouts over a week
type WeeklyFitnessPlan struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description" json:"description"`
	Workouts    []PlanWorkout `bson:"workouts" json:"workouts"`
	Lineage     `bson:",inline"`
}

// WorkoutIDs lists the distinct workouts of the plan in order
func (p *WeeklyFitnessPlan) WorkoutIDs() []string {
	seen := make(map[string]bool, len(p.Workouts))
	ids := make([]string, 0, len(p.Workouts))
	for _, w := range p.Workouts {
		if !seen[w.WorkoutID] {
			seen[w.WorkoutID] = true
			ids = append(ids, w.WorkoutID)
		}
	}
	return ids
}

func (p *WeeklyFitnessPlan) Validate() *ValidationError {
	v := &ValidationError{}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		v.Add("name", "This field is required.")
	} else if utf8.RuneCountInString(name) > MaxWorkoutName {
		v.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxWorkoutName))
	}
	for i, w := range p.Workouts {
		field := fmt.Sprintf("workouts[%d]", i)
		if w.WorkoutID == "" {
			v.Add(field, "workout is required.")
		}
		if !w.WeekDay.Valid() {
			v.Add(field, "week_day must be between 0 and 6.")
		}
	}
	return v
}

type PlanRepository interface {
	LifecycleRepository
	Create(ctx context.Context, plan *WeeklyFitnessPlan) error
	GetByID(ctx context.Context, id string) (*WeeklyFitnessPlan, error)
	ListVisible(ctx context.Context, q WorkoutQuery) ([]*WeeklyFitnessPlan, error)
	ListArchived(ctx context.Context, userID string) ([]*WeeklyFitnessPlan, error)
	ListPublished(ctx context.Context) ([]*WeeklyFitnessPlan, error)
	FindClone(ctx context.Context, originalID, userID string) (*WeeklyFitnessPlan, error)
	Update(ctx context.Context, plan *WeeklyFitnessPlan) error
	Delete(ctx context.Context, id string) error
	// PullWorkout removes every entry referencing workoutID from the owner's plans
	PullWorkout(ctx context.Context, ownerID, workoutID string) error
}
