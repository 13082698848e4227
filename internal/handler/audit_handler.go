package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AuditHandler wires the audit ledger and export HTTP routes.
type AuditHandler struct {
	audits  service.AuditService
	exports service.ExportService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audits service.AuditService, exports service.ExportService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		audits:  audits,
		exports: exports,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/logs", h.list)
	router.Get("/logs/export", h.exportLogs)
	router.Get("/submissions/export", h.exportSubmissions)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	var req dto.AuditListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	entries, err := h.audits.List(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "audit logs retrieved", entries)
}

func (h *AuditHandler) exportLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit")

	buf, filename, err := h.exports.ExportAuditLog(c.Context(), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (h *AuditHandler) exportSubmissions(c *fiber.Ctx) error {
	buf, filename, err := h.exports.ExportSubmissions(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (h *AuditHandler) handleError(c *fiber.Ctx, err error) error {
	if status, message, ok := mapServiceError(err); ok {
		return utils.SendError(c, status, message)
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
