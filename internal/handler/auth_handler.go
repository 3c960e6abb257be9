package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/middleware"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// AuthHandler handles token endpoints and social login
type AuthHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
	}
}

func client(c *fiber.Ctx) service.ClientInfo {
	ua, ip := clientInfo(c)
	return service.ClientInfo{UserAgent: ua, IPAddress: ip}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /v1/token and POST /v1/account/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	pair, err := h.authService.Login(c.UserContext(), req.Email, req.Password, client(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

// FirebaseLogin handles POST /v1/auth/firebase
func (h *AuthHandler) FirebaseLogin(c *fiber.Ctx) error {
	idToken := middleware.BearerToken(c)
	if idToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "Missing Authorization header",
		})
	}

	resp, err := h.authService.FirebaseLogin(c.UserContext(), idToken, client(c))
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if resp.IsNewUser {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}

// Refresh handles POST /v1/token/refresh. The presented token is revoked.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	ua, ip := clientInfo(c)
	pair, err := h.tokenService.RefreshAccessToken(c.UserContext(), req.Refresh, ua, ip)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRefreshToken) {
			return tokenNotValid(c, err)
		}
		return respondError(c, err)
	}
	return c.JSON(pair)
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Verify handles POST /v1/token/verify
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyTokenRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if _, err := h.tokenService.ParseAccessToken(req.Token); err != nil {
		return tokenNotValid(c, err)
	}
	return c.JSON(fiber.Map{})
}

// Logout handles POST /v1/account/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.tokenService.RevokeRefreshToken(c.UserContext(), req.Refresh); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Successfully logged out."})
}

func tokenNotValid(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"detail": err.Error(),
		"code":   "token_not_valid",
	})
}
