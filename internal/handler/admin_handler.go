package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/service"
	"github.com/noah-isme/qpflow-api/internal/utils"
)

// AdminHandler wires account and catalog management HTTP routes.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin endpoints to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/users", h.listUsers)
	router.Post("/users", h.createUser)
	router.Get("/users/:id", h.getUser)
	router.Put("/users/:id", h.updateUser)
	router.Delete("/users/:id", h.deleteUser)
	router.Post("/users/:id/privileges", h.grantPrivilege)
	router.Delete("/users/:id/privileges/:privilege", h.revokePrivilege)

	router.Get("/sessions", h.listSessions)
	router.Post("/sessions", h.createSession)
	router.Put("/sessions/:id", h.updateSession)
	router.Delete("/sessions/:id", h.deleteSession)

	router.Get("/departments", h.listDepartments)
	router.Post("/departments", h.createDepartment)
	router.Put("/departments/:id", h.updateDepartment)
	router.Delete("/departments/:id", h.deleteDepartment)

	router.Get("/courses", h.listCourses)
	router.Post("/courses", h.createCourse)
	router.Put("/courses/:id", h.updateCourse)
	router.Delete("/courses/:id", h.deleteCourse)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *AdminHandler) createUser(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.CreateUser(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *AdminHandler) getUser(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.GetUser(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *AdminHandler) updateUser(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UserUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateUser(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "user updated", user)
}

func (h *AdminHandler) deleteUser(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteUser(c.Context(), identityFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}

func (h *AdminHandler) grantPrivilege(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PrivilegeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.GrantPrivilege(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "privilege granted", user)
}

func (h *AdminHandler) revokePrivilege(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.RevokePrivilege(c.Context(), identityFromContext(c), id, c.Params("privilege"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "privilege revoked", user)
}

func (h *AdminHandler) listSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListSessions(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *AdminHandler) createSession(c *fiber.Ctx) error {
	var payload dto.SessionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.CreateSession(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", session)
}

func (h *AdminHandler) updateSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SessionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.UpdateSession(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "session updated", session)
}

func (h *AdminHandler) deleteSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteSession(c.Context(), identityFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "session deleted", fiber.Map{"id": id})
}

func (h *AdminHandler) listDepartments(c *fiber.Ctx) error {
	departments, err := h.service.ListDepartments(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "departments retrieved", departments)
}

func (h *AdminHandler) createDepartment(c *fiber.Ctx) error {
	var payload dto.DepartmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	department, err := h.service.CreateDepartment(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "department created", department)
}

func (h *AdminHandler) updateDepartment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DepartmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	department, err := h.service.UpdateDepartment(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "department updated", department)
}

func (h *AdminHandler) deleteDepartment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteDepartment(c.Context(), identityFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "department deleted", fiber.Map{"id": id})
}

func (h *AdminHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.service.ListCourses(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *AdminHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.CreateCourse(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *AdminHandler) updateCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.UpdateCourse(c.Context(), identityFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *AdminHandler) deleteCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCourse(c.Context(), identityFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *AdminHandler) handleError(c *fiber.Ctx, err error) error {
	if status, message, ok := mapServiceError(err); ok {
		return utils.SendError(c, status, message)
	}
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
