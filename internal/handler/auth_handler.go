package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// AuthHandler wires authentication HTTP routes.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated endpoints. Extra middlewares
// (e.g. a rate limiter) run before the login handler only.
func (h *AuthHandler) RegisterPublic(router fiber.Router, middlewares ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, middlewares...), h.login)
	router.Post("/login", handlers...)
}

// RegisterProtected attaches the endpoints behind token validation.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Login(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	identity := identityFromContext(c)
	if identity.UserID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthenticated")
	}

	user, err := h.service.Me(c.Context(), identity.UserID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "account retrieved", user)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	if status, message, ok := mapServiceError(err); ok {
		return utils.SendError(c, status, message)
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
