package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// lifecycle is the archive, share and publish workflow shared by exercises,
// workouts and weekly plans
type lifecycle interface {
	ToggleArchived(ctx context.Context, userID, id string) (bool, error)
	Share(ctx context.Context, userID, id string, userIDs []string) error
	Unshare(ctx context.Context, userID, id, targetID string) error
	Publish(ctx context.Context, userID, id string) error
	Unpublish(ctx context.Context, userID, id string) error
	Unsubscribe(ctx context.Context, userID, id string) error
}

type lifecycleHandler struct {
	content lifecycle
}

// ToggleArchived handles PUT /…/archived/:id
func (h lifecycleHandler) ToggleArchived(c *fiber.Ctx) error {
	archived, err := h.content.ToggleArchived(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "is_archived": archived})
}

type shareRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// Share handles POST /…/:id/share
func (h lifecycleHandler) Share(c *fiber.Ctx) error {
	var req shareRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.content.Share(c.UserContext(), userID(c), c.Params("id"), req.UserIDs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "shared_with": req.UserIDs})
}

// Unshare handles DELETE /…/:id/share/:user_id
func (h lifecycleHandler) Unshare(c *fiber.Ctx) error {
	if err := h.content.Unshare(c.UserContext(), userID(c), c.Params("id"), c.Params("user_id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Publish handles POST /…/published/:id
func (h lifecycleHandler) Publish(c *fiber.Ctx) error {
	if err := h.content.Publish(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "is_published": true})
}

// Unpublish handles DELETE /…/published/:id
func (h lifecycleHandler) Unpublish(c *fiber.Ctx) error {
	if err := h.content.Unpublish(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Unsubscribe handles DELETE /…/subscription/:id
func (h lifecycleHandler) Unsubscribe(c *fiber.Ctx) error {
	if err := h.content.Unsubscribe(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
