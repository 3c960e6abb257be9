package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTrainerNotFound    = errors.New("trainer not found")
	ErrNotTrainer         = errors.New("only trainers can perform this action")
	ErrTrainerNotVisible  = errors.New("trainer profile is not public")
	ErrExperienceNotFound = errors.New("experience not found")
	ErrGymNotFound        = errors.New("gym not found")
	ErrBreakNotFound      = errors.New("break not found")
	ErrHolidayNotFound    = errors.New("holiday not found")
)

const MaxTrainerDescription = 500

// Weekday numbers days from Monday (0) to Sunday (6)
type Weekday int

var WeekdayNames = [7]string{
	"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье",
}

func (d Weekday) Valid() bool { return d >= 0 && d <= 6 }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return WeekdayNames[d]
}

// WeekdayOf converts a time.Weekday (Sunday first) to Weekday (Monday first)
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// TimeOfDay is a wall clock time in "HH:MM" form
type TimeOfDay string

// Minutes returns the minutes since midnight
func (t TimeOfDay) Minutes() (int, error) {
	parsed, err := time.Parse("15:04", string(t))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", string(t))
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// TimeRange is a span inside one day, end exclusive
type TimeRange struct {
	Start TimeOfDay `bson:"start" json:"start"`
	End   TimeOfDay `bson:"end" json:"end"`
}

// Bounds returns start and end in minutes and checks start < end
func (r TimeRange) Bounds() (int, int, error) {
	start, err := r.Start.Minutes()
	if err != nil {
		return 0, 0, err
	}
	end, err := r.End.Minutes()
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("start %s must be before end %s", r.Start, r.End)
	}
	return start, end, nil
}

// Break is a recurring daily pause in the trainer's work hours
type Break struct {
	ID        string `bson:"id" json:"id"`
	TimeRange `bson:",inline"`
}

// Holiday is a closed date range, both ends inclusive
type Holiday struct {
	ID        string    `bson:"id" json:"id"`
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
}

// Covers reports whether day falls inside the holiday
func (h Holiday) Covers(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(truncateDay(h.StartDate)) && !d.After(truncateDay(h.EndDate))
}

// Trainer is the trainer profile owned by a user
type Trainer struct {
	ID                            string     `bson:"_id,omitempty" json:"id"`
	UserID                        string     `bson:"user_id" json:"user_id"`
	Description                   string     `bson:"description" json:"description"`
	Address                       string     `bson:"address" json:"address"`
	IsPublic                      bool       `bson:"is_public" json:"is_public"`
	IsActive                      bool       `bson:"is_active" json:"is_active"`
	IsMale                        bool       `bson:"is_male" json:"is_male"`
	PricePerHour                  float64    `bson:"price_per_hour" json:"price_per_hour"`
	MinimumWorkoutDuration        int        `bson:"minimum_workout_duration" json:"minimum_workout_duration"`
	WorkoutDurationDividedByValue int        `bson:"workout_duration_divided_by_value" json:"workout_duration_divided_by_value"`
	Weekends                      []Weekday  `bson:"weekends" json:"weekends"`
	WorkHours                     *TimeRange `bson:"work_hours,omitempty" json:"work_hours"`
	Breaks                        []Break    `bson:"breaks" json:"breaks"`
	Holidays                      []Holiday  `bson:"holidays" json:"holidays"`
	WholeExperience               float64    `bson:"whole_experience" json:"whole_experience"`
	CreatedAt                     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt                     time.Time  `bson:"updated_at" json:"updated_at"`
}

// Defaults applied to a freshly created trainer profile
const (
	DefaultMinimumWorkoutDuration = 60
	DefaultDurationStep           = 30
)

// NewTrainerProfile builds the profile created alongside every user
func NewTrainerProfile(user *User) *Trainer {
	return &Trainer{
		UserID:                        user.ID,
		IsPublic:                      true,
		IsActive:                      user.IsTrainer,
		MinimumWorkoutDuration:        DefaultMinimumWorkoutDuration,
		WorkoutDurationDividedByValue: DefaultDurationStep,
		Weekends:                      []Weekday{},
		Breaks:                        []Break{},
		Holidays:                      []Holiday{},
	}
}

// VisibleTo reports whether the profile can be read by userID
func (t *Trainer) VisibleTo(userID string) bool {
	if userID != "" && t.UserID == userID {
		return true
	}
	return t.IsPublic && t.IsActive
}

// IsWeekend reports whether day is one of the trainer's days off
func (t *Trainer) IsWeekend(day Weekday) bool {
	for _, w := range t.Weekends {
		if w == day {
			return true
		}
	}
	return false
}

// OnHoliday reports whether the date is inside any holiday
func (t *Trainer) OnHoliday(day time.Time) bool {
	for _, h := range t.Holidays {
		if h.Covers(day) {
			return true
		}
	}
	return false
}

// TrainerWithUser joins a trainer profile with its owner's public fields
type TrainerWithUser struct {
	Trainer   `bson:",inline"`
	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	Avatar    string `bson:"avatar" json:"avatar_key,omitempty"`
}

// TrainerFilter narrows a trainer search. Nil fields are ignored.
type TrainerFilter struct {
	MinPricePerHour *float64
	MaxPricePerHour *float64
	Address         string
	MinExperience   *float64
	IsMale          *bool
}

type TrainerRepository interface {
	Create(ctx context.Context, trainer *Trainer) error
	GetByID(ctx context.Context, id string) (*Trainer, error)
	GetByUserID(ctx context.Context, userID string) (*Trainer, error)
	Update(ctx context.Context, trainer *Trainer) error
	SetActive(ctx context.Context, userID string, active bool) error
	UpdateWholeExperience(ctx context.Context, trainerID string, years float64) error
	// Search returns active public trainers matching the filter with owner names
	Search(ctx context.Context, filter TrainerFilter) ([]*TrainerWithUser, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// Experience is a past or current job of a trainer
type Experience struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	TrainerID   string     `bson:"trainer_id" json:"trainer_id"`
	CompanyName string     `bson:"company_name" json:"company_name"`
	Position    string     `bson:"position" json:"position"`
	Description string     `bson:"description" json:"description"`
	StartDate   time.Time  `bson:"start_date" json:"start_date"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"end_date"`
}

// Days counts the days worked; an open experience runs until today
func (e *Experience) Days(today time.Time) int {
	end := today
	if e.EndDate != nil {
		end = *e.EndDate
	}
	return int(truncateDay(end).Sub(truncateDay(e.StartDate)).Hours() / 24)
}

type ExperienceRepository interface {
	Create(ctx context.Context, exp *Experience) error
	GetByID(ctx context.Context, id string) (*Experience, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]*Experience, error)
	// TrainersWithOngoing lists trainers that have an experience without end date
	TrainersWithOngoing(ctx context.Context) ([]string, error)
	ListTrainerIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, exp *Experience) error
	Delete(ctx context.Context, id string) error
	DeleteByTrainer(ctx context.Context, trainerID string) error
}

const daysPerYear = 365.25

// WholeExperience sums the experiences in years rounded to one decimal
func WholeExperience(exps []*Experience, today time.Time) float64 {
	total := 0
	for _, e := range exps {
		total += e.Days(today)
	}
	return RoundTenths(float64(total) / daysPerYear)
}

// Gym is a place a trainer works at
type Gym struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	TrainerID string    `bson:"trainer_id" json:"trainer_id"`
	Name      string    `bson:"name" json:"name"`
	Address   string    `bson:"address" json:"address"`
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type GymRepository interface {
	Create(ctx context.Context, gym *Gym) error
	GetByID(ctx context.Context, id string) (*Gym, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]*Gym, error)
	Update(ctx context.Context, gym *Gym) error
	Delete(ctx context.Context, id string) error
	DeleteByTrainer(ctx context.Context, trainerID string) error
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
