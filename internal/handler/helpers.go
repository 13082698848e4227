package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/qpflow-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func identityFromContext(c *fiber.Ctx) service.Identity {
	if v := c.Locals("identity"); v != nil {
		if identity, ok := v.(service.Identity); ok {
			return identity
		}
	}
	return service.Identity{}
}

// mapServiceError translates the service error taxonomy into an HTTP status
// and client-safe message. The second return is false for unrecognized
// errors, which the caller logs and answers with a generic 500.
func mapServiceError(err error) (int, string, bool) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrDepartmentNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrAssignmentNotFound):
		return fiber.StatusNotFound, err.Error(), true

	case errors.Is(err, service.ErrNotEditable),
		errors.Is(err, service.ErrNotDraft),
		errors.Is(err, service.ErrNotSubmitted),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, service.ErrDraftOnly),
		errors.Is(err, service.ErrNoCoordinator),
		errors.Is(err, service.ErrNoDeputyDean),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrInvalidPrivilege),
		errors.Is(err, service.ErrInvalidDocumentType),
		errors.Is(err, service.ErrSameReviewer),
		errors.Is(err, service.ErrMissingPrivilege):
		return fiber.StatusBadRequest, err.Error(), true

	case errors.As(err, &validationErrors):
		return fiber.StatusBadRequest, validationErrors.Error(), true

	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, err.Error(), true

	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, err.Error(), true

	case errors.Is(err, service.ErrDuplicateCode),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDepartmentInUse),
		errors.Is(err, service.ErrSelfDelete),
		errors.Is(err, service.ErrTransitionRaced):
		return fiber.StatusConflict, err.Error(), true
	}

	return 0, "", false
}
