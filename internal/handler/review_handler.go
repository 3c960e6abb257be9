package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// ReviewHandler handles user reviews
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	ForUserID  string `json:"for_user_id"`
	Rating     *int   `json:"rating" validate:"required"`
	ReviewText string `json:"review_text" validate:"max=1000"`
}

func (r reviewRequest) toInput() service.ReviewInput {
	return service.ReviewInput{
		ForUserID:  r.ForUserID,
		Rating:     *r.Rating,
		ReviewText: r.ReviewText,
	}
}

// Create handles POST /v1/reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.ForUserID == "" {
		return respondError(c, domain.NewValidationError("for_user_id", "This field is required."))
	}

	review, err := h.reviews.Create(c.UserContext(), userID(c), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// List handles GET /v1/reviews?for_user_id=
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	forUserID := c.Query("for_user_id")
	if forUserID == "" {
		return respondError(c, domain.NewValidationError("for_user_id", "This field is required."))
	}
	reviews, err := h.reviews.ListForUser(c.UserContext(), forUserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reviews)
}

// Get handles GET /v1/reviews/:id
func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	review, err := h.reviews.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

// Update handles PUT /v1/reviews/:id. Author and target stay unchanged.
func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	review, err := h.reviews.Update(c.UserContext(), userID(c), c.Params("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

// Delete handles DELETE /v1/reviews/:id
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	if err := h.reviews.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
