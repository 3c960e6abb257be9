package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// ExerciseHandler handles exercises and their media
type ExerciseHandler struct {
	lifecycleHandler
	exercises *service.ExerciseService
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(exercises *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{
		lifecycleHandler: lifecycleHandler{content: exercises},
		exercises:        exercises,
	}
}

type exerciseListRequest struct {
	Category string `query:"category"`
	Name     string `query:"name" validate:"max=255"`
}

// List handles GET /v1/exercises
func (h *ExerciseHandler) List(c *fiber.Ctx) error {
	var req exerciseListRequest
	if err := bindQuery(c, &req); err != nil {
		return respondError(c, err)
	}
	items, err := h.exercises.List(c.UserContext(), domain.ExerciseQuery{
		ViewerID:   userID(c),
		CategoryID: req.Category,
		Name:       req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Get handles GET /v1/exercises/:id
func (h *ExerciseHandler) Get(c *fiber.Ctx) error {
	item, err := h.exercises.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

type exerciseRequest struct {
	Name             string   `json:"name" validate:"required,max=255"`
	Description      string   `json:"description" validate:"max=250"`
	Instructions     []string `json:"instructions" validate:"max=10,dive,max=200"`
	IsMeasuredInReps bool     `json:"is_measured_in_reps"`
	Category         []string `json:"category"`
	GymEquipment     []string `json:"gym_equipment"`
}

func (r exerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:             r.Name,
		Description:      r.Description,
		Instructions:     r.Instructions,
		IsMeasuredInReps: r.IsMeasuredInReps,
		CategoryIDs:      r.Category,
		GymEquipmentIDs:  r.GymEquipment,
	}
}

// Create handles POST /v1/exercises
func (h *ExerciseHandler) Create(c *fiber.Ctx) error {
	var req exerciseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.exercises.Create(c.UserContext(), userID(c), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Update handles PUT /v1/exercises/:id
func (h *ExerciseHandler) Update(c *fiber.Ctx) error {
	var req exerciseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.exercises.Update(c.UserContext(), userID(c), c.Params("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Delete handles DELETE /v1/exercises/:id
func (h *ExerciseHandler) Delete(c *fiber.Ctx) error {
	if err := h.exercises.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListArchived handles GET /v1/exercises/archived
func (h *ExerciseHandler) ListArchived(c *fiber.Ctx) error {
	items, err := h.exercises.ListArchived(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// ListPublished handles GET /v1/exercises/published
func (h *ExerciseHandler) ListPublished(c *fiber.Ctx) error {
	items, err := h.exercises.ListPublished(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Originality handles GET /v1/exercises/:id/originality
func (h *ExerciseHandler) Originality(c *fiber.Ctx) error {
	report, err := h.exercises.Originality(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Subscribe handles POST /v1/exercises/subscription/:id
func (h *ExerciseHandler) Subscribe(c *fiber.Ctx) error {
	item, err := h.exercises.Subscribe(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UploadPreview handles POST /v1/exercises/:id/preview
func (h *ExerciseHandler) UploadPreview(c *fiber.Ctx) error {
	data, contentType, err := readUpload(c, "preview")
	if err != nil {
		return respondError(c, err)
	}
	item, err := h.exercises.UploadPreview(c.UserContext(), userID(c), c.Params("id"), data, contentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// UploadVideo handles POST /v1/exercises/:id/video
func (h *ExerciseHandler) UploadVideo(c *fiber.Ctx) error {
	data, contentType, err := readUpload(c, "video")
	if err != nil {
		return respondError(c, err)
	}
	item, err := h.exercises.UploadVideo(c.UserContext(), userID(c), c.Params("id"), data, contentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// CreationData handles GET /v1/exercises/creation_data
func (h *ExerciseHandler) CreationData(c *fiber.Ctx) error {
	data, err := h.exercises.CreationData(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(data)
}
