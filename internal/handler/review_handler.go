package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// ReviewHandler wires the review decision and queue HTTP routes.
type ReviewHandler struct {
	reviews service.ReviewService
	queues  service.QueueService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(reviews service.ReviewService, queues service.QueueService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		queues:  queues,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches review endpoints to the router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/coordinator/queue", h.coordinatorQueue)
	router.Get("/deputy-dean/queue", h.deputyDeanQueue)
	router.Get("/dashboard", h.dashboard)

	router.Post("/submissions/:id/approve", h.approve)
	router.Post("/submissions/:id/reject", h.reject)
	router.Post("/submissions/:id/endorse", h.endorse)
	router.Post("/submissions/:id/dean-reject", h.deanReject)
}

func (h *ReviewHandler) coordinatorQueue(c *fiber.Ctx) error {
	queue, err := h.queues.CoordinatorQueue(c.Context(), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "coordinator queue retrieved", queue)
}

func (h *ReviewHandler) deputyDeanQueue(c *fiber.Ctx) error {
	queue, err := h.queues.DeputyDeanQueue(c.Context(), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "deputy dean queue retrieved", queue)
}

func (h *ReviewHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.queues.Dashboard(c.Context(), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *ReviewHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.reviews.CoordinatorApprove(c.Context(), identityFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission approved", submission)
}

func (h *ReviewHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.reviews.CoordinatorReject(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission rejected", submission)
}

func (h *ReviewHandler) endorse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.reviews.DeanEndorse(c.Context(), identityFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission endorsed", submission)
}

func (h *ReviewHandler) deanReject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.reviews.DeanReject(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission rejected", submission)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	if status, message, ok := mapServiceError(err); ok {
		return utils.SendError(c, status, message)
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
