package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// TrainerHandler handles trainer profiles, schedules, experience and gyms
type TrainerHandler struct {
	trainers    *service.TrainerService
	experiences *service.ExperienceService
	gyms        *service.GymService
}

// NewTrainerHandler creates a new trainer handler
func NewTrainerHandler(trainers *service.TrainerService, experiences *service.ExperienceService, gyms *service.GymService) *TrainerHandler {
	return &TrainerHandler{
		trainers:    trainers,
		experiences: experiences,
		gyms:        gyms,
	}
}

// Get handles GET /v1/trainers/:id
func (h *TrainerHandler) Get(c *fiber.Ctx) error {
	profile, err := h.trainers.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// Mine handles GET /v1/trainers/me
func (h *TrainerHandler) Mine(c *fiber.Ctx) error {
	trainer, err := h.trainers.Mine(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trainer)
}

type profileRequest struct {
	Description                   *string  `json:"description" validate:"omitempty,max=500"`
	Address                       *string  `json:"address" validate:"omitempty,max=255"`
	IsPublic                      *bool    `json:"is_public"`
	IsMale                        *bool    `json:"is_male"`
	PricePerHour                  *float64 `json:"price_per_hour" validate:"omitempty,gte=0"`
	MinimumWorkoutDuration        *int     `json:"minimum_workout_duration" validate:"omitempty,gte=1,lte=1440"`
	WorkoutDurationDividedByValue *int     `json:"workout_duration_divided_by_value" validate:"omitempty,gte=1,lte=1440"`
}

// UpdateProfile handles PUT /v1/trainers/me
func (h *TrainerHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	trainer, err := h.trainers.UpdateProfile(c.UserContext(), userID(c), service.ProfileInput{
		Description:                   req.Description,
		Address:                       req.Address,
		IsPublic:                      req.IsPublic,
		IsMale:                        req.IsMale,
		PricePerHour:                  req.PricePerHour,
		MinimumWorkoutDuration:        req.MinimumWorkoutDuration,
		WorkoutDurationDividedByValue: req.WorkoutDurationDividedByValue,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trainer)
}

type searchRequest struct {
	Search          string   `query:"search" validate:"max=255"`
	MinPricePerHour *float64 `query:"min_price_per_hour" validate:"omitempty,gte=0"`
	MaxPricePerHour *float64 `query:"max_price_per_hour" validate:"omitempty,gte=0"`
	Address         string   `query:"address"`
	MinExperience   *float64 `query:"min_experience" validate:"omitempty,gte=0"`
	IsMale          *bool    `query:"is_male"`
}

// Search handles GET /v1/trainers/search
func (h *TrainerHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := bindQuery(c, &req); err != nil {
		return respondError(c, err)
	}

	results, err := h.trainers.Search(c.UserContext(), service.SearchInput{
		Query: req.Search,
		Filter: domain.TrainerFilter{
			MinPricePerHour: req.MinPricePerHour,
			MaxPricePerHour: req.MaxPricePerHour,
			Address:         req.Address,
			MinExperience:   req.MinExperience,
			IsMale:          req.IsMale,
		},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}

// WorkHours handles GET /v1/work_hours/:trainer_id
func (h *TrainerHandler) WorkHours(c *fiber.Ctx) error {
	hours, err := h.trainers.GetWorkHours(c.UserContext(), userID(c), c.Params("trainer_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(hours)
}

type timeRangeRequest struct {
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

func (r timeRangeRequest) toDomain() domain.TimeRange {
	return domain.TimeRange{Start: domain.TimeOfDay(r.Start), End: domain.TimeOfDay(r.End)}
}

// SetWorkHours handles PUT /v1/trainers/me/work_hours
func (h *TrainerHandler) SetWorkHours(c *fiber.Ctx) error {
	var req timeRangeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	trainer, err := h.trainers.SetWorkHours(c.UserContext(), userID(c), req.toDomain())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trainer.WorkHours)
}

type weekendsRequest struct {
	Weekends []int `json:"weekends" validate:"max=7,dive,gte=0,lte=6"`
}

// SetWeekends handles PUT /v1/trainers/me/weekends
func (h *TrainerHandler) SetWeekends(c *fiber.Ctx) error {
	var req weekendsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	days := make([]domain.Weekday, 0, len(req.Weekends))
	for _, d := range req.Weekends {
		days = append(days, domain.Weekday(d))
	}

	trainer, err := h.trainers.SetWeekends(c.UserContext(), userID(c), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"weekends": trainer.Weekends})
}

// AddBreak handles POST /v1/trainers/me/breaks
func (h *TrainerHandler) AddBreak(c *fiber.Ctx) error {
	var req timeRangeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	b, err := h.trainers.AddBreak(c.UserContext(), userID(c), req.toDomain())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// RemoveBreak handles DELETE /v1/trainers/me/breaks/:id
func (h *TrainerHandler) RemoveBreak(c *fiber.Ctx) error {
	if err := h.trainers.RemoveBreak(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type holidayRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// AddHoliday handles POST /v1/trainers/me/holidays
func (h *TrainerHandler) AddHoliday(c *fiber.Ctx) error {
	var req holidayRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return respondError(c, err)
	}

	holiday, err := h.trainers.AddHoliday(c.UserContext(), userID(c), domain.Holiday{StartDate: start, EndDate: end})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(holiday)
}

// RemoveHoliday handles DELETE /v1/trainers/me/holidays/:id
func (h *TrainerHandler) RemoveHoliday(c *fiber.Ctx) error {
	if err := h.trainers.RemoveHoliday(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListExperiences handles GET /v1/trainers/:id/experiences
func (h *TrainerHandler) ListExperiences(c *fiber.Ctx) error {
	items, err := h.experiences.ListForTrainer(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

type experienceRequest struct {
	CompanyName string  `json:"company_name" validate:"required,max=255"`
	Position    string  `json:"position" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=1000"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     *string `json:"end_date"`
}

func (r experienceRequest) toInput() (service.ExperienceInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return service.ExperienceInput{}, err
	}
	end, err := parseDatePtr("end_date", r.EndDate)
	if err != nil {
		return service.ExperienceInput{}, err
	}
	return service.ExperienceInput{
		CompanyName: r.CompanyName,
		Position:    r.Position,
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// CreateExperience handles POST /v1/experiences
func (h *TrainerHandler) CreateExperience(c *fiber.Ctx) error {
	var req experienceRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return respondError(c, err)
	}

	exp, err := h.experiences.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exp)
}

// UpdateExperience handles PUT /v1/experiences/:id
func (h *TrainerHandler) UpdateExperience(c *fiber.Ctx) error {
	var req experienceRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return respondError(c, err)
	}

	exp, err := h.experiences.Update(c.UserContext(), userID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(exp)
}

// DeleteExperience handles DELETE /v1/experiences/:id
func (h *TrainerHandler) DeleteExperience(c *fiber.Ctx) error {
	if err := h.experiences.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListGyms handles GET /v1/trainers/:id/gyms
func (h *TrainerHandler) ListGyms(c *fiber.Ctx) error {
	gyms, err := h.gyms.ListForTrainer(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gyms)
}

// GetGym handles GET /v1/gyms/:id
func (h *TrainerHandler) GetGym(c *fiber.Ctx) error {
	gym, err := h.gyms.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gym)
}

type gymRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r gymRequest) toInput() service.GymInput {
	return service.GymInput{
		Name:      r.Name,
		Address:   r.Address,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// CreateGym handles POST /v1/gyms
func (h *TrainerHandler) CreateGym(c *fiber.Ctx) error {
	var req gymRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	gym, err := h.gyms.Create(c.UserContext(), userID(c), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"gym_id": gym.ID})
}

// UpdateGym handles PUT /v1/gyms/:id
func (h *TrainerHandler) UpdateGym(c *fiber.Ctx) error {
	var req gymRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	gym, err := h.gyms.Update(c.UserContext(), userID(c), c.Params("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gym)
}

// DeleteGym handles DELETE /v1/gyms/:id
func (h *TrainerHandler) DeleteGym(c *fiber.Ctx) error {
	if err := h.gyms.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
