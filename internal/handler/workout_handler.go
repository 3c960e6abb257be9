package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// WorkoutHandler handles workouts
type WorkoutHandler struct {
	lifecycleHandler
	workouts *service.WorkoutService
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workouts *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{
		lifecycleHandler: lifecycleHandler{content: workouts},
		workouts:         workouts,
	}
}

// List handles GET /v1/workouts
func (h *WorkoutHandler) List(c *fiber.Ctx) error {
	items, err := h.workouts.List(c.UserContext(), domain.WorkoutQuery{
		ViewerID: userID(c),
		Name:     c.Query("name"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Get handles GET /v1/workouts/:id
func (h *WorkoutHandler) Get(c *fiber.Ctx) error {
	item, err := h.workouts.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

type workoutExerciseRequest struct {
	ID               string `json:"id"`
	Exercise         string `json:"exercise" validate:"required"`
	Sets             int    `json:"sets" validate:"gte=1,lte=100"`
	Value            int    `json:"value" validate:"gte=1,lte=3600"`
	RestTimeAfterSet int    `json:"rest_time_after_set" validate:"gte=1,lte=3600"`
}

type workoutRequest struct {
	Name                        string                   `json:"name" validate:"required,max=100"`
	Description                 string                   `json:"description" validate:"max=1000"`
	Exercises                   []workoutExerciseRequest `json:"exercises" validate:"dive"`
	RestBetweenWorkoutExercises int                      `json:"rest_between_workout_exercises" validate:"gte=0,lte=3600"`
}

func (r workoutRequest) toInput() service.WorkoutInput {
	entries := make([]service.WorkoutExerciseInput, 0, len(r.Exercises))
	for _, e := range r.Exercises {
		entries = append(entries, service.WorkoutExerciseInput{
			ID:               e.ID,
			ExerciseID:       e.Exercise,
			Sets:             e.Sets,
			Value:            e.Value,
			RestTimeAfterSet: e.RestTimeAfterSet,
		})
	}
	return service.WorkoutInput{
		Name:                        r.Name,
		Description:                 r.Description,
		Exercises:                   entries,
		RestBetweenWorkoutExercises: r.RestBetweenWorkoutExercises,
	}
}

// Create handles POST /v1/workouts
func (h *WorkoutHandler) Create(c *fiber.Ctx) error {
	var req workoutRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.workouts.Create(c.UserContext(), userID(c), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Update handles PUT /v1/workouts/:id
func (h *WorkoutHandler) Update(c *fiber.Ctx) error {
	var req workoutRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.workouts.Update(c.UserContext(), userID(c), c.Params("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Delete handles DELETE /v1/workouts/:id
func (h *WorkoutHandler) Delete(c *fiber.Ctx) error {
	if err := h.workouts.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListArchived handles GET /v1/workouts/archived
func (h *WorkoutHandler) ListArchived(c *fiber.Ctx) error {
	items, err := h.workouts.ListArchived(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// ListPublished handles GET /v1/workouts/published
func (h *WorkoutHandler) ListPublished(c *fiber.Ctx) error {
	items, err := h.workouts.ListPublished(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Originality handles GET /v1/workouts/:id/originality
func (h *WorkoutHandler) Originality(c *fiber.Ctx) error {
	report, err := h.workouts.Originality(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Subscribe handles POST /v1/workouts/subscription/:id
func (h *WorkoutHandler) Subscribe(c *fiber.Ctx) error {
	item, err := h.workouts.Subscribe(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
