package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// AssignmentHandler wires the reviewer assignment directory HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourse)
	router.Put("/courses", h.setCourse)
	router.Patch("/courses/:courseId/toggle", h.toggleCourse)
	router.Delete("/courses/:courseId", h.deleteCourse)

	router.Get("/faculties", h.listFaculty)
	router.Put("/faculties", h.setFaculty)
	router.Patch("/faculties/:departmentId/toggle", h.toggleFaculty)
	router.Delete("/faculties/:departmentId", h.deleteFaculty)
}

func (h *AssignmentHandler) listCourse(c *fiber.Ctx) error {
	assignments, err := h.service.ListCourseAssignments(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course assignments retrieved", assignments)
}

func (h *AssignmentHandler) setCourse(c *fiber.Ctx) error {
	var payload dto.CourseAssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.SetCourseAssignment(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course assignment saved", assignment)
}

func (h *AssignmentHandler) toggleCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ToggleCourseAssignment(c.Context(), identityFromContext(c), courseID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course assignment toggled", fiber.Map{"course_id": courseID})
}

func (h *AssignmentHandler) deleteCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCourseAssignment(c.Context(), identityFromContext(c), courseID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course assignment deleted", fiber.Map{"course_id": courseID})
}

func (h *AssignmentHandler) listFaculty(c *fiber.Ctx) error {
	assignments, err := h.service.ListFacultyAssignments(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "faculty assignments retrieved", assignments)
}

func (h *AssignmentHandler) setFaculty(c *fiber.Ctx) error {
	var payload dto.FacultyAssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.SetFacultyAssignment(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "faculty assignment saved", assignment)
}

func (h *AssignmentHandler) toggleFaculty(c *fiber.Ctx) error {
	departmentID, err := parseUintParam(c, "departmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ToggleFacultyAssignment(c.Context(), identityFromContext(c), departmentID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "faculty assignment toggled", fiber.Map{"department_id": departmentID})
}

func (h *AssignmentHandler) deleteFaculty(c *fiber.Ctx) error {
	departmentID, err := parseUintParam(c, "departmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteFacultyAssignment(c.Context(), identityFromContext(c), departmentID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "faculty assignment deleted", fiber.Map{"department_id": departmentID})
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	if status, message, ok := mapServiceError(err); ok {
		return utils.SendError(c, status, message)
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
