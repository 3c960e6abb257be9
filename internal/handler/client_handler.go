package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/service"
)

// ClientHandler handles client-trainer links and workout sessions
type ClientHandler struct {
	clients  *service.ClientService
	sessions *service.SessionService
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients *service.ClientService, sessions *service.SessionService) *ClientHandler {
	return &ClientHandler{clients: clients, sessions: sessions}
}

// ListTrainers handles GET /v1/clients/me/trainers
func (h *ClientHandler) ListTrainers(c *fiber.Ctx) error {
	links, err := h.clients.ListTrainers(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(links)
}

type addTrainerRequest struct {
	TrainerID   string `json:"trainer_id" validate:"required"`
	Favourite   bool   `json:"favourite"`
	FoundByLink bool   `json:"found_by_link"`
}

// AddTrainer handles POST /v1/clients/me/trainers
func (h *ClientHandler) AddTrainer(c *fiber.Ctx) error {
	var req addTrainerRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	link, err := h.clients.AddTrainer(c.UserContext(), userID(c), req.TrainerID, req.Favourite, req.FoundByLink)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

type favouriteRequest struct {
	Favourite *bool `json:"favourite" validate:"required"`
}

// SetFavourite handles PUT /v1/clients/me/trainers/:id
func (h *ClientHandler) SetFavourite(c *fiber.Ctx) error {
	var req favouriteRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	link, err := h.clients.SetFavourite(c.UserContext(), userID(c), c.Params("id"), *req.Favourite)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(link)
}

// RemoveTrainer handles DELETE /v1/clients/me/trainers/:id
func (h *ClientHandler) RemoveTrainer(c *fiber.Ctx) error {
	if err := h.clients.RemoveTrainer(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListClients handles GET /v1/trainers/me/clients
func (h *ClientHandler) ListClients(c *fiber.Ctx) error {
	clients, err := h.clients.ListClients(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(clients)
}

type sessionRangeRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// ListSessions handles GET /v1/sessions. The default window is the next
// 30 days.
func (h *ClientHandler) ListSessions(c *fiber.Ctx) error {
	var req sessionRangeRequest
	if err := bindQuery(c, &req); err != nil {
		return respondError(c, err)
	}

	from, err := parseDate("from", req.From)
	if err != nil {
		return respondError(c, err)
	}
	if from.IsZero() {
		from = time.Now().UTC().Truncate(24 * time.Hour)
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return respondError(c, err)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 30)
	}
	if !from.Before(to) {
		return respondError(c, domain.NewValidationError("to", "Must be after from."))
	}

	sessions, err := h.sessions.List(c.UserContext(), userID(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

// GetSession handles GET /v1/sessions/:id
func (h *ClientHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

type sessionRequest struct {
	TrainerID string    `json:"trainer_id"`
	ClientID  string    `json:"client_id"`
	Start     time.Time `json:"start" validate:"required"`
	Duration  int       `json:"duration" validate:"required,gte=1,lte=1440"`
}

// CreateSession handles POST /v1/sessions. Clients book with trainer_id,
// trainers with client_id.
func (h *ClientHandler) CreateSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	session, err := h.sessions.Create(c.UserContext(), userID(c), service.SessionInput{
		TrainerID: req.TrainerID,
		ClientID:  req.ClientID,
		Start:     req.Start,
		Duration:  req.Duration,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// RescheduleSession handles PUT /v1/sessions/:id
func (h *ClientHandler) RescheduleSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	session, err := h.sessions.Reschedule(c.UserContext(), userID(c), c.Params("id"), req.Start, req.Duration)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// CancelSession handles DELETE /v1/sessions/:id
func (h *ClientHandler) CancelSession(c *fiber.Ctx) error {
	if err := h.sessions.Cancel(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
