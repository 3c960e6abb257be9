package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// LimitsHandler reports content limits
type LimitsHandler struct {
	limits *service.LimitsService
}

func NewLimitsHandler(limits *service.LimitsService) *LimitsHandler {
	return &LimitsHandler{limits: limits}
}

// Mine handles GET /v1/limits/me
func (h *LimitsHandler) Mine(c *fiber.Ctx) error {
	report, err := h.limits.Report(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
