package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// AccountHandler handles registration and the caller's account
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountView struct {
	*domain.User
	Avatar string `json:"avatar"`
}

func (h *AccountHandler) view(user *domain.User) accountView {
	return accountView{User: user, Avatar: h.accounts.AvatarURL(user)}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	IsTrainer bool   `json:"is_trainer"`
}

// Register handles POST /v1/account
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsTrainer: req.IsTrainer,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.view(user))
}

// Me handles GET /v1/account
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	user, err := h.accounts.Get(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.view(user))
}

// Get handles GET /v1/account/:id
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	user, err := h.accounts.GetPublic(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.view(user))
}

type updateAccountRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	IsPublic  *bool   `json:"is_public"`
	IsTrainer *bool   `json:"is_trainer"`
}

// Update handles PUT /v1/account
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.Update(c.UserContext(), userID(c), service.UpdateInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsPublic:  req.IsPublic,
		IsTrainer: req.IsTrainer,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.view(user))
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Delete handles DELETE /v1/account
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.accounts.Delete(c.UserContext(), userID(c), req.Refresh); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadAvatar handles POST|PUT /v1/account/avatar
func (h *AccountHandler) UploadAvatar(c *fiber.Ctx) error {
	data, contentType, err := readUpload(c, "avatar")
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.accounts.UploadAvatar(c.UserContext(), userID(c), data, contentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"avatar": h.accounts.AvatarURL(user)})
}

// DeleteAvatar handles DELETE /v1/account/avatar
func (h *AccountHandler) DeleteAvatar(c *fiber.Ctx) error {
	if err := h.accounts.DeleteAvatar(c.UserContext(), userID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendVerification handles POST /v1/email/send
func (h *AccountHandler) SendVerification(c *fiber.Ctx) error {
	if err := h.accounts.SendVerification(c.UserContext(), userID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Письмо с подтверждением отправлено."})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail handles POST /v1/email/verify
func (h *AccountHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.accounts.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Email успешно подтвержден."})
}
