package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// PlanHandler handles weekly fitness plans
type PlanHandler struct {
	lifecycleHandler
	plans *service.PlanService
}

// NewPlanHandler creates a new weekly plan handler
func NewPlanHandler(plans *service.PlanService) *PlanHandler {
	return &PlanHandler{
		lifecycleHandler: lifecycleHandler{content: plans},
		plans:            plans,
	}
}

// List handles GET /v1/weekly_plans
func (h *PlanHandler) List(c *fiber.Ctx) error {
	items, err := h.plans.List(c.UserContext(), domain.WorkoutQuery{
		ViewerID: userID(c),
		Name:     c.Query("name"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Get handles GET /v1/weekly_plans/:id
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	item, err := h.plans.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

type planWorkoutRequest struct {
	ID      string `json:"id"`
	Workout string `json:"workout" validate:"required"`
	WeekDay int    `json:"week_day" validate:"gte=0,lte=6"`
}

type planRequest struct {
	Name        string               `json:"name" validate:"required,max=100"`
	Description string               `json:"description" validate:"max=1000"`
	Workouts    []planWorkoutRequest `json:"workouts" validate:"dive"`
}

func (r planRequest) toInput() service.PlanInput {
	entries := make([]service.PlanWorkoutInput, 0, len(r.Workouts))
	for _, w := range r.Workouts {
		entries = append(entries, service.PlanWorkoutInput{
			ID:        w.ID,
			WorkoutID: w.Workout,
			WeekDay:   domain.Weekday(w.WeekDay),
		})
	}
	return service.PlanInput{
		Name:        r.Name,
		Description: r.Description,
		Workouts:    entries,
	}
}

// Create handles POST /v1/weekly_plans
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var req planRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.plans.Create(c.UserContext(), userID(c), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Update handles PUT /v1/weekly_plans/:id
func (h *PlanHandler) Update(c *fiber.Ctx) error {
	var req planRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.plans.Update(c.UserContext(), userID(c), c.Params("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Delete handles DELETE /v1/weekly_plans/:id
func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	if err := h.plans.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListArchived handles GET /v1/weekly_plans/archived
func (h *PlanHandler) ListArchived(c *fiber.Ctx) error {
	items, err := h.plans.ListArchived(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// ListPublished handles GET /v1/weekly_plans/published
func (h *PlanHandler) ListPublished(c *fiber.Ctx) error {
	items, err := h.plans.ListPublished(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Originality handles GET /v1/weekly_plans/:id/originality
func (h *PlanHandler) Originality(c *fiber.Ctx) error {
	report, err := h.plans.Originality(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Subscribe handles POST /v1/weekly_plans/subscription/:id
func (h *PlanHandler) Subscribe(c *fiber.Ctx) error {
	item, err := h.plans.Subscribe(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
