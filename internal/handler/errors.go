package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
)

// errorStatus maps domain errors to HTTP status codes
var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrUserNotFound, fiber.StatusNotFound},
	{domain.ErrNotFound, fiber.StatusNotFound},
	{domain.ErrReviewNotFound, fiber.StatusNotFound},
	{domain.ErrTrainerNotFound, fiber.StatusNotFound},
	{domain.ErrExperienceNotFound, fiber.StatusNotFound},
	{domain.ErrGymNotFound, fiber.StatusNotFound},
	{domain.ErrBreakNotFound, fiber.StatusNotFound},
	{domain.ErrHolidayNotFound, fiber.StatusNotFound},
	{domain.ErrClientNotFound, fiber.StatusNotFound},
	{domain.ErrTrainerLinkMissing, fiber.StatusNotFound},
	{domain.ErrSessionNotFound, fiber.StatusNotFound},
	{domain.ErrExerciseNotFound, fiber.StatusNotFound},
	{domain.ErrWorkoutNotFound, fiber.StatusNotFound},
	{domain.ErrPlanNotFound, fiber.StatusNotFound},
	{domain.ErrCategoryNotFound, fiber.StatusNotFound},
	{domain.ErrEquipmentNotFound, fiber.StatusNotFound},
	{domain.ErrWorkoutEntryMissing, fiber.StatusNotFound},
	{domain.ErrNotSubscribed, fiber.StatusNotFound},
	{domain.ErrInvalidID, fiber.StatusNotFound},

	{domain.ErrIncorrectPassword, fiber.StatusUnauthorized},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized},
	{domain.ErrTokenExpired, fiber.StatusUnauthorized},
	{domain.ErrTokenInvalid, fiber.StatusUnauthorized},

	{domain.ErrForbidden, fiber.StatusForbidden},
	{domain.ErrAccountNotPublic, fiber.StatusForbidden},
	{domain.ErrReviewNotAuthor, fiber.StatusForbidden},
	{domain.ErrNotTrainer, fiber.StatusForbidden},
	{domain.ErrTrainerNotVisible, fiber.StatusForbidden},
	{domain.ErrContentNotVisible, fiber.StatusForbidden},
	{domain.ErrForeignRefreshToken, fiber.StatusForbidden},
	{domain.ErrLimitReached, fiber.StatusForbidden},

	{domain.ErrEmailTaken, fiber.StatusConflict},
	{domain.ErrTrainerLinkExists, fiber.StatusConflict},
	{domain.ErrAlreadySubscribed, fiber.StatusConflict},
	{domain.ErrSessionOverlap, fiber.StatusConflict},
	{domain.ErrDuplicateExercise, fiber.StatusConflict},
	{domain.ErrConflict, fiber.StatusConflict},

	{domain.ErrInvalidRefreshToken, fiber.StatusBadRequest},
	{domain.ErrSelfReview, fiber.StatusBadRequest},
	{domain.ErrReviewExists, fiber.StatusBadRequest},
	{domain.ErrEmailAlreadyVerify, fiber.StatusBadRequest},
	{domain.ErrTrainerUnavailable, fiber.StatusBadRequest},
	{domain.ErrContentArchived, fiber.StatusBadRequest},
	{domain.ErrNotOriginalEnough, fiber.StatusBadRequest},
	{domain.ErrOwnContent, fiber.StatusBadRequest},
	{domain.ErrContentNotPublished, fiber.StatusBadRequest},
	{domain.ErrExerciseNotUsable, fiber.StatusBadRequest},
	{domain.ErrWorkoutNotUsable, fiber.StatusBadRequest},
	{domain.ErrUnsupportedMedia, fiber.StatusBadRequest},
	{domain.ErrMediaTooLarge, fiber.StatusRequestEntityTooLarge},

	{domain.ErrEmailThrottled, fiber.StatusTooManyRequests},
	{domain.ErrSocialLoginOff, fiber.StatusServiceUnavailable},
}

// StatusOf returns the HTTP status for err
func StatusOf(err error) int {
	if _, ok := domain.IsValidation(err); ok {
		return fiber.StatusBadRequest
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON response. Validation errors keep their
// field map; everything else becomes {"detail": message}.
func respondError(c *fiber.Ctx, err error) error {
	if v, ok := domain.IsValidation(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(v.Fields)
	}

	status := StatusOf(err)
	if status == fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return c.Status(status).JSON(fiber.Map{"detail": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}
