package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// Context keys for storing user info
const (
	UserIDKey    = "userID"
	IsTrainerKey = "is_trainer"
	IsStaffKey   = "is_staff"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate validates the access token when one is sent and stores its
// claims in the context. Anonymous requests pass through; a bad token is
// rejected.
func Authenticate(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := BearerToken(c)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := service.ParseToken(tokenString, jwtSecret, domain.TokenTypeAccess)
		if err != nil {
			detail := domain.ErrTokenInvalid.Error()
			if errors.Is(err, domain.ErrTokenExpired) {
				detail = domain.ErrTokenExpired.Error()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": detail,
				"code":   "token_not_valid",
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(IsTrainerKey, claims.IsTrainer)
		c.Locals(IsStaffKey, claims.IsStaff)
		return c.Next()
	}
}

// RequireUser rejects anonymous requests. Must run after Authenticate.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Authentication credentials were not provided.",
			})
		}
		return c.Next()
	}
}

// RequireTrainer only lets trainers through. Must run after Authenticate.
func RequireTrainer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Authentication credentials were not provided.",
			})
		}
		if !IsTrainer(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"detail": domain.ErrNotTrainer.Error(),
			})
		}
		return c.Next()
	}
}

// GetUserID extracts the user ID from Fiber context; empty for anonymous
// requests
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// IsTrainer reports whether the access token was issued to a trainer
func IsTrainer(c *fiber.Ctx) bool {
	isTrainer, _ := c.Locals(IsTrainerKey).(bool)
	return isTrainer
}
