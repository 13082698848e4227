package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// AssignmentService maintains the course → reviewer directory and its
// department-level fallback layer.
type AssignmentService interface {
	ListCourseAssignments(ctx context.Context) ([]dto.CourseAssignmentResponse, error)
	SetCourseAssignment(ctx context.Context, actor Identity, payload dto.CourseAssignmentRequest) (dto.CourseAssignmentResponse, error)
	ToggleCourseAssignment(ctx context.Context, actor Identity, courseID uint) error
	DeleteCourseAssignment(ctx context.Context, actor Identity, courseID uint) error

	ListFacultyAssignments(ctx context.Context) ([]dto.FacultyAssignmentResponse, error)
	SetFacultyAssignment(ctx context.Context, actor Identity, payload dto.FacultyAssignmentRequest) (dto.FacultyAssignmentResponse, error)
	ToggleFacultyAssignment(ctx context.Context, actor Identity, departmentID uint) error
	DeleteFacultyAssignment(ctx context.Context, actor Identity, departmentID uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	catalog     repository.CatalogRepository
	users       repository.UserRepository
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs the assignment directory service.
func NewAssignmentService(assignments repository.AssignmentRepository, catalog repository.CatalogRepository, users repository.UserRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		catalog:     catalog,
		users:       users,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) ListCourseAssignments(ctx context.Context) ([]dto.CourseAssignmentResponse, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.NewCourseAssignmentResponse(
			assignment,
			s.userName(ctx, assignment.CoordinatorUserID),
			s.userName(ctx, assignment.DeputyDeanUserID),
		))
	}
	return responses, nil
}

func (s *assignmentService) SetCourseAssignment(ctx context.Context, actor Identity, payload dto.CourseAssignmentRequest) (dto.CourseAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseAssignmentResponse{}, err
	}

	course, err := s.catalog.GetCourse(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseAssignmentResponse{}, ErrCourseNotFound
		}
		return dto.CourseAssignmentResponse{}, err
	}

	if payload.CoordinatorUserID != nil && payload.DeputyDeanUserID != nil &&
		*payload.CoordinatorUserID == *payload.DeputyDeanUserID {
		return dto.CourseAssignmentResponse{}, ErrSameReviewer
	}

	if err := s.requirePrivilege(ctx, payload.CoordinatorUserID, models.PrivilegeCoordinator); err != nil {
		return dto.CourseAssignmentResponse{}, err
	}
	if err := s.requirePrivilege(ctx, payload.DeputyDeanUserID, models.PrivilegeDeputyDean); err != nil {
		return dto.CourseAssignmentResponse{}, err
	}

	created := false
	previous, err := s.assignments.GetByCourse(ctx, payload.CourseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseAssignmentResponse{}, err
		}
		created = true
	}

	assignment := models.CourseRoleAssignment{
		CourseID:          payload.CourseID,
		CoordinatorUserID: payload.CoordinatorUserID,
		DeputyDeanUserID:  payload.DeputyDeanUserID,
		Active:            true,
	}
	if err := s.assignments.Upsert(ctx, &assignment); err != nil {
		return dto.CourseAssignmentResponse{}, err
	}

	details := map[string]interface{}{
		"course_id":           payload.CourseID,
		"coordinator_user_id": idValue(payload.CoordinatorUserID),
		"deputy_dean_user_id": idValue(payload.DeputyDeanUserID),
		"created":             created,
	}
	if !created {
		details["previous_coordinator_user_id"] = idValue(previous.CoordinatorUserID)
		details["previous_deputy_dean_user_id"] = idValue(previous.DeputyDeanUserID)
	}
	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseAssignmentSaved,
		EntityType: EntityCourseAssignment,
		EntityID:   &course.ID,
		Details:    details,
	}); err != nil {
		return dto.CourseAssignmentResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Bool("created", created).Msg("course assignment saved")

	assignment.Course = course
	return dto.NewCourseAssignmentResponse(
		assignment,
		s.userName(ctx, assignment.CoordinatorUserID),
		s.userName(ctx, assignment.DeputyDeanUserID),
	), nil
}

func (s *assignmentService) ToggleCourseAssignment(ctx context.Context, actor Identity, courseID uint) error {
	assignment, err := s.assignments.GetByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.assignments.SetActive(ctx, courseID, !assignment.Active); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseAssignmentToggled,
		EntityType: EntityCourseAssignment,
		EntityID:   &courseID,
		Details: map[string]interface{}{
			"course_id": courseID,
			"active":    !assignment.Active,
		},
	})
}

func (s *assignmentService) DeleteCourseAssignment(ctx context.Context, actor Identity, courseID uint) error {
	assignment, err := s.assignments.GetByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.assignments.DeleteByCourse(ctx, courseID); err != nil {
		return err
	}

	// Removed values travel to the ledger so the directory keeps no history
	// of its own.
	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseAssignmentDeleted,
		EntityType: EntityCourseAssignment,
		EntityID:   &courseID,
		Details: map[string]interface{}{
			"course_id":           courseID,
			"coordinator_user_id": idValue(assignment.CoordinatorUserID),
			"deputy_dean_user_id": idValue(assignment.DeputyDeanUserID),
			"active":              assignment.Active,
		},
	})
}

func (s *assignmentService) ListFacultyAssignments(ctx context.Context) ([]dto.FacultyAssignmentResponse, error) {
	assignments, err := s.assignments.ListFaculty(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.FacultyAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.NewFacultyAssignmentResponse(
			assignment,
			s.userName(ctx, assignment.DeputyDeanUserID),
		))
	}
	return responses, nil
}

func (s *assignmentService) SetFacultyAssignment(ctx context.Context, actor Identity, payload dto.FacultyAssignmentRequest) (dto.FacultyAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FacultyAssignmentResponse{}, err
	}

	department, err := s.catalog.GetDepartment(ctx, payload.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FacultyAssignmentResponse{}, ErrDepartmentNotFound
		}
		return dto.FacultyAssignmentResponse{}, err
	}

	if err := s.requirePrivilege(ctx, payload.DeputyDeanUserID, models.PrivilegeDeputyDean); err != nil {
		return dto.FacultyAssignmentResponse{}, err
	}

	created := false
	previous, err := s.assignments.GetFacultyByDepartment(ctx, payload.DepartmentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FacultyAssignmentResponse{}, err
		}
		created = true
	}

	assignment := models.FacultyRoleAssignment{
		DepartmentID:     payload.DepartmentID,
		DeputyDeanUserID: payload.DeputyDeanUserID,
		Active:           true,
	}
	if err := s.assignments.UpsertFaculty(ctx, &assignment); err != nil {
		return dto.FacultyAssignmentResponse{}, err
	}

	details := map[string]interface{}{
		"department_id":       payload.DepartmentID,
		"deputy_dean_user_id": idValue(payload.DeputyDeanUserID),
		"created":             created,
	}
	if !created {
		details["previous_deputy_dean_user_id"] = idValue(previous.DeputyDeanUserID)
	}
	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionFacultyAssignmentSaved,
		EntityType: EntityFacultyAssignment,
		EntityID:   &department.ID,
		Details:    details,
	}); err != nil {
		return dto.FacultyAssignmentResponse{}, err
	}

	assignment.Department = department
	return dto.NewFacultyAssignmentResponse(assignment, s.userName(ctx, assignment.DeputyDeanUserID)), nil
}

func (s *assignmentService) ToggleFacultyAssignment(ctx context.Context, actor Identity, departmentID uint) error {
	assignment, err := s.assignments.GetFacultyByDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.assignments.SetFacultyActive(ctx, departmentID, !assignment.Active); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionFacultyAssignmentToggled,
		EntityType: EntityFacultyAssignment,
		EntityID:   &departmentID,
		Details: map[string]interface{}{
			"department_id": departmentID,
			"active":        !assignment.Active,
		},
	})
}

func (s *assignmentService) DeleteFacultyAssignment(ctx context.Context, actor Identity, departmentID uint) error {
	assignment, err := s.assignments.GetFacultyByDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.assignments.DeleteFacultyByDepartment(ctx, departmentID); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionFacultyAssignmentDeleted,
		EntityType: EntityFacultyAssignment,
		EntityID:   &departmentID,
		Details: map[string]interface{}{
			"department_id":       departmentID,
			"deputy_dean_user_id": idValue(assignment.DeputyDeanUserID),
			"active":              assignment.Active,
		},
	})
}

// requirePrivilege verifies that userID, when present, holds an active grant
// of privilege.
func (s *assignmentService) requirePrivilege(ctx context.Context, userID *uint, privilege string) error {
	if userID == nil {
		return nil
	}

	if _, err := s.users.GetByID(ctx, *userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := s.users.HasActivePrivilege(ctx, *userID, privilege)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMissingPrivilege
	}
	return nil
}

func (s *assignmentService) userName(ctx context.Context, userID *uint) string {
	if userID == nil {
		return ""
	}
	user, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return ""
	}
	return user.Name
}

func idValue(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
