package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrDuplicateExercise   = errors.New("An exercise with these exact details already exists.")
	ErrCategoryNotFound    = errors.New("exercise category not found")
	ErrEquipmentNotFound   = errors.New("gym equipment not found")
	ErrExerciseNotUsable   = errors.New("exercise can not be used in your workouts, subscribe to it first")
	ErrWorkoutNotFound     = errors.New("workout not found")
	ErrPlanNotFound        = errors.New("weekly fitness plan not found")
	ErrWorkoutNotUsable    = errors.New("workout can not be used in your plans, subscribe to it first")
	ErrWorkoutEntryMissing = errors.New("workout exercise not found")
)

const (
	MaxExerciseName        = 255
	MaxExerciseDescription = 250
	MaxInstructionLines    = 10
	MaxInstructionLine     = 200
	MinExerciseValue       = 1
	MaxExerciseValue       = 3600
)

// ExerciseCategory groups exercises by body part or type
type ExerciseCategory struct {
	ID   string `bson:"_id,omitempty" json:"id"`
	Name string `bson:"name" json:"name"`
}

// DefaultCategories are seeded into an empty database
var DefaultCategories = []string{
	"Растяжка", "Кардио", "Грудь", "Спина", "Руки", "Ноги", "Плечи", "Пресс",
}

// GymEquipment is an apparatus an exercise needs
type GymEquipment struct {
	ID    string `bson:"_id,omitempty" json:"id"`
	Name  string `bson:"name" json:"name"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

// DefaultEquipment is seeded into an empty database
var DefaultEquipment = []string{
	"Гантели", "Штанга", "Гиря", "Турник", "Брусья", "Скамья", "Эспандер", "Коврик",
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]*ExerciseCategory, error)
	CountCategories(ctx context.Context, ids []string) (int, error)
	EnsureCategories(ctx context.Context, names []string) (int, error)
	ListEquipment(ctx context.Context) ([]*GymEquipment, error)
	CountEquipment(ctx context.Context, ids []string) (int, error)
	EnsureEquipment(ctx context.Context, names []string) (int, error)
}

// Exercise is a single movement with instructions and media
type Exercise struct {
	ID               string   `bson:"_id,omitempty" json:"id"`
	Name             string   `bson:"name" json:"name"`
	Description      string   `bson:"description" json:"description"`
	Instructions     []string `bson:"instructions" json:"instructions"`
	Preview          string   `bson:"preview,omitempty" json:"-"`
	Video            string   `bson:"video,omitempty" json:"-"`
	IsMeasuredInReps bool     `bson:"is_measured_in_reps" json:"is_measured_in_reps"`
	CategoryIDs      []string `bson:"category_ids" json:"category"`
	GymEquipmentIDs  []string `bson:"gym_equipment_ids" json:"gym_equipment"`
	Lineage          `bson:",inline"`
}

// Validate checks field limits
func (e *Exercise) Validate() *ValidationError {
	v := &ValidationError{}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		v.Add("name", "This field is required.")
	} else if utf8.RuneCountInString(name) > MaxExerciseName {
		v.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxExerciseName))
	}
	if utf8.RuneCountInString(e.Description) > MaxExerciseDescription {
		v.Add("description", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxExerciseDescription))
	}
	v.Merge(ValidateInstructions(e.Instructions))
	return v
}

// ValidateInstructions checks the number of lines and their length
func ValidateInstructions(lines []string) *ValidationError {
	v := &ValidationError{}
	if len(lines) > MaxInstructionLines {
		v.Add("instructions", fmt.Sprintf("Instructions can not have more than %d lines.", MaxInstructionLines))
	}
	for i, l := range lines {
		if utf8.RuneCountInString(l) > MaxInstructionLine {
			v.Add("instructions", fmt.Sprintf("Line %d is longer than %d characters.", i+1, MaxInstructionLine))
		}
	}
	return v
}

// SameDetails reports whether two exercises would be indistinguishable
func (e *Exercise) SameDetails(other *Exercise) bool {
	return e.Name == other.Name &&
		e.Description == other.Description &&
		e.Preview == other.Preview &&
		e.Video == other.Video &&
		e.CreatedBy == other.CreatedBy &&
		e.OriginalID == other.OriginalID
}

// ExerciseQuery selects exercises for listing
type ExerciseQuery struct {
	ViewerID   string
	Archived   bool
	CategoryID string
	Name       string
}

type ExerciseRepository interface {
	LifecycleRepository
	Create(ctx context.Context, exercise *Exercise) error
	GetByID(ctx context.Context, id string) (*Exercise, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*Exercise, error)
	// ListVisible returns public items plus items owned by or shared with the viewer
	ListVisible(ctx context.Context, q ExerciseQuery) ([]*Exercise, error)
	// ListArchived returns the viewer's archived exercises
	ListArchived(ctx context.Context, userID string) ([]*Exercise, error)
	ListPublished(ctx context.Context) ([]*Exercise, error)
	FindDuplicate(ctx context.Context, e *Exercise) (*Exercise, error)
	FindClone(ctx context.Context, originalID, userID string) (*Exercise, error)
	Update(ctx context.Context, exercise *Exercise) error
	Delete(ctx context.Context, id string) error
	// DeleteOrphans removes exercises without creator that nobody can reach
	// and returns them so their media can be dropped
	DeleteOrphans(ctx context.Context) ([]*Exercise, error)
}
