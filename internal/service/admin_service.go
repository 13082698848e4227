package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// AdminService owns account management and the catalog of sessions,
// departments and courses. Every operation here requires the ADMIN privilege,
// enforced at the routing layer.
type AdminService interface {
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	GetUser(ctx context.Context, id uint) (dto.UserResponse, error)
	CreateUser(ctx context.Context, actor Identity, payload dto.UserCreateRequest) (dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	DeleteUser(ctx context.Context, actor Identity, id uint) error
	GrantPrivilege(ctx context.Context, actor Identity, userID uint, payload dto.PrivilegeRequest) (dto.UserResponse, error)
	RevokePrivilege(ctx context.Context, actor Identity, userID uint, privilege string) (dto.UserResponse, error)

	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context, actor Identity, payload dto.SessionRequest) (models.Session, error)
	UpdateSession(ctx context.Context, actor Identity, id uint, payload dto.SessionRequest) (models.Session, error)
	DeleteSession(ctx context.Context, actor Identity, id uint) error

	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, actor Identity, payload dto.DepartmentRequest) (models.Department, error)
	UpdateDepartment(ctx context.Context, actor Identity, id uint, payload dto.DepartmentRequest) (models.Department, error)
	DeleteDepartment(ctx context.Context, actor Identity, id uint) error

	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
	CreateCourse(ctx context.Context, actor Identity, payload dto.CourseRequest) (dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, actor Identity, id uint, payload dto.CourseRequest) (dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, actor Identity, id uint) error

	EnsureBootstrapAdmin(ctx context.Context, name, email, password string) error
}

type adminService struct {
	users       repository.UserRepository
	catalog     repository.CatalogRepository
	assignments repository.AssignmentRepository
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAdminService constructs the administration service.
func NewAdminService(users repository.UserRepository, catalog repository.CatalogRepository, assignments repository.AssignmentRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) AdminService {
	return &adminService{
		users:       users,
		catalog:     catalog,
		assignments: assignments,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "admin_service").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

func (s *adminService) GetUser(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *adminService) CreateUser(ctx context.Context, actor Identity, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	if err := s.checkEmailFree(ctx, email, 0); err != nil {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionUserCreated,
		EntityType: EntityUser,
		EntityID:   &user.ID,
		Details:    map[string]interface{}{"email": user.Email},
	}); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user created")

	return dto.NewUserResponse(user), nil
}

func (s *adminService) UpdateUser(ctx context.Context, actor Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	if err := s.checkEmailFree(ctx, email, user.ID); err != nil {
		return dto.UserResponse{}, err
	}

	user.Name = strings.TrimSpace(payload.Name)
	user.Email = email
	if payload.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			return dto.UserResponse{}, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionUserUpdated,
		EntityType: EntityUser,
		EntityID:   &user.ID,
		Details:    map[string]interface{}{"email": user.Email, "password_changed": payload.Password != ""},
	}); err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor Identity, id uint) error {
	if id == actor.UserID {
		return ErrSelfDelete
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionUserDeleted,
		EntityType: EntityUser,
		EntityID:   &id,
		Details:    map[string]interface{}{"email": user.Email},
	})
}

func (s *adminService) GrantPrivilege(ctx context.Context, actor Identity, userID uint, payload dto.PrivilegeRequest) (dto.UserResponse, error) {
	privilege := strings.ToUpper(strings.TrimSpace(payload.Privilege))
	if !models.ValidPrivilege(privilege) {
		return dto.UserResponse{}, ErrInvalidPrivilege
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if err := s.users.GrantPrivilege(ctx, userID, privilege); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionPrivilegeGranted,
		EntityType: EntityUser,
		EntityID:   &userID,
		Details:    map[string]interface{}{"privilege": privilege},
	}); err != nil {
		return dto.UserResponse{}, err
	}

	return s.GetUser(ctx, userID)
}

func (s *adminService) RevokePrivilege(ctx context.Context, actor Identity, userID uint, privilege string) (dto.UserResponse, error) {
	privilege = strings.ToUpper(strings.TrimSpace(privilege))
	if !models.ValidPrivilege(privilege) {
		return dto.UserResponse{}, ErrInvalidPrivilege
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if err := s.users.RevokePrivilege(ctx, userID, privilege); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionPrivilegeRevoked,
		EntityType: EntityUser,
		EntityID:   &userID,
		Details:    map[string]interface{}{"privilege": privilege},
	}); err != nil {
		return dto.UserResponse{}, err
	}

	return s.GetUser(ctx, userID)
}

func (s *adminService) ListSessions(ctx context.Context) ([]models.Session, error) {
	return s.catalog.ListSessions(ctx)
}

func (s *adminService) CreateSession(ctx context.Context, actor Identity, payload dto.SessionRequest) (models.Session, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Session{}, err
	}

	code := normalizeCode(payload.Code)
	if _, err := s.catalog.GetSessionByCode(ctx, code); err == nil {
		return models.Session{}, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, err
	}

	session := models.Session{
		Code:   code,
		Name:   strings.TrimSpace(payload.Name),
		Active: boolValue(payload.Active, true),
	}
	if err := s.catalog.CreateSession(ctx, &session); err != nil {
		return models.Session{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSessionCreated,
		EntityType: EntitySession,
		EntityID:   &session.ID,
		Details:    map[string]interface{}{"code": session.Code},
	}); err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (s *adminService) UpdateSession(ctx context.Context, actor Identity, id uint, payload dto.SessionRequest) (models.Session, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Session{}, err
	}

	session, err := s.catalog.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	code := normalizeCode(payload.Code)
	if existing, err := s.catalog.GetSessionByCode(ctx, code); err == nil && existing.ID != id {
		return models.Session{}, ErrDuplicateCode
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, err
	}

	session.Code = code
	session.Name = strings.TrimSpace(payload.Name)
	session.Active = boolValue(payload.Active, session.Active)

	if err := s.catalog.UpdateSession(ctx, &session); err != nil {
		return models.Session{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSessionUpdated,
		EntityType: EntitySession,
		EntityID:   &session.ID,
		Details:    map[string]interface{}{"code": session.Code, "active": session.Active},
	}); err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (s *adminService) DeleteSession(ctx context.Context, actor Identity, id uint) error {
	session, err := s.catalog.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if err := s.catalog.DeleteSession(ctx, id); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSessionDeleted,
		EntityType: EntitySession,
		EntityID:   &id,
		Details:    map[string]interface{}{"code": session.Code},
	})
}

func (s *adminService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.catalog.ListDepartments(ctx)
}

func (s *adminService) CreateDepartment(ctx context.Context, actor Identity, payload dto.DepartmentRequest) (models.Department, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Department{}, err
	}

	code := normalizeCode(payload.Code)
	if _, err := s.catalog.GetDepartmentByCode(ctx, code); err == nil {
		return models.Department{}, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Department{}, err
	}

	department := models.Department{
		Code:   code,
		Name:   strings.TrimSpace(payload.Name),
		Active: boolValue(payload.Active, true),
	}
	if err := s.catalog.CreateDepartment(ctx, &department); err != nil {
		return models.Department{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDepartmentCreated,
		EntityType: EntityDepartment,
		EntityID:   &department.ID,
		Details:    map[string]interface{}{"code": department.Code},
	}); err != nil {
		return models.Department{}, err
	}

	return department, nil
}

func (s *adminService) UpdateDepartment(ctx context.Context, actor Identity, id uint, payload dto.DepartmentRequest) (models.Department, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Department{}, err
	}

	department, err := s.catalog.GetDepartment(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Department{}, ErrDepartmentNotFound
		}
		return models.Department{}, err
	}

	code := normalizeCode(payload.Code)
	if existing, err := s.catalog.GetDepartmentByCode(ctx, code); err == nil && existing.ID != id {
		return models.Department{}, ErrDuplicateCode
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Department{}, err
	}

	department.Code = code
	department.Name = strings.TrimSpace(payload.Name)
	department.Active = boolValue(payload.Active, department.Active)

	if err := s.catalog.UpdateDepartment(ctx, &department); err != nil {
		return models.Department{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDepartmentUpdated,
		EntityType: EntityDepartment,
		EntityID:   &department.ID,
		Details:    map[string]interface{}{"code": department.Code, "active": department.Active},
	}); err != nil {
		return models.Department{}, err
	}

	return department, nil
}

func (s *adminService) DeleteDepartment(ctx context.Context, actor Identity, id uint) error {
	department, err := s.catalog.GetDepartment(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}

	count, err := s.catalog.CountCoursesByDepartment(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDepartmentInUse
	}

	if err := s.catalog.DeleteDepartment(ctx, id); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDepartmentDeleted,
		EntityType: EntityDepartment,
		EntityID:   &id,
		Details:    map[string]interface{}{"code": department.Code},
	})
}

func (s *adminService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *adminService) CreateCourse(ctx context.Context, actor Identity, payload dto.CourseRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if _, err := s.catalog.GetDepartment(ctx, payload.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrDepartmentNotFound
		}
		return dto.CourseResponse{}, err
	}

	code := normalizeCode(payload.Code)
	if _, err := s.catalog.GetCourseByCode(ctx, code); err == nil {
		return dto.CourseResponse{}, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Code:         code,
		Name:         strings.TrimSpace(payload.Name),
		DepartmentID: payload.DepartmentID,
		Active:       boolValue(payload.Active, true),
	}
	if err := s.catalog.CreateCourse(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseCreated,
		EntityType: EntityCourse,
		EntityID:   &course.ID,
		Details:    map[string]interface{}{"code": course.Code, "department_id": course.DepartmentID},
	}); err != nil {
		return dto.CourseResponse{}, err
	}

	created, err := s.catalog.GetCourse(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(created), nil
}

func (s *adminService) UpdateCourse(ctx context.Context, actor Identity, id uint, payload dto.CourseRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.catalog.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if _, err := s.catalog.GetDepartment(ctx, payload.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrDepartmentNotFound
		}
		return dto.CourseResponse{}, err
	}

	code := normalizeCode(payload.Code)
	if existing, err := s.catalog.GetCourseByCode(ctx, code); err == nil && existing.ID != id {
		return dto.CourseResponse{}, ErrDuplicateCode
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CourseResponse{}, err
	}

	course.Code = code
	course.Name = strings.TrimSpace(payload.Name)
	course.DepartmentID = payload.DepartmentID
	course.Active = boolValue(payload.Active, course.Active)

	if err := s.catalog.UpdateCourse(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseUpdated,
		EntityType: EntityCourse,
		EntityID:   &course.ID,
		Details:    map[string]interface{}{"code": course.Code, "department_id": course.DepartmentID, "active": course.Active},
	}); err != nil {
		return dto.CourseResponse{}, err
	}

	updated, err := s.catalog.GetCourse(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(updated), nil
}

func (s *adminService) DeleteCourse(ctx context.Context, actor Identity, id uint) error {
	course, err := s.catalog.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	// The course's role assignment goes with it; its removal is recorded as
	// its own ledger entry so the assignment history stays complete.
	assignment, err := s.assignments.GetByCourse(ctx, id)
	hadAssignment := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if hadAssignment {
		if err := s.assignments.DeleteByCourse(ctx, id); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ActorID(),
			Action:     ActionCourseAssignmentDeleted,
			EntityType: EntityCourseAssignment,
			EntityID:   &assignment.ID,
			Details:    map[string]interface{}{"course_id": id, "reason": "course deleted"},
		}); err != nil {
			return err
		}
	}

	if err := s.catalog.DeleteCourse(ctx, id); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCourseDeleted,
		EntityType: EntityCourse,
		EntityID:   &id,
		Details:    map[string]interface{}{"code": course.Code},
	})
}

// EnsureBootstrapAdmin creates the initial admin account when no account with
// the given email exists, and guarantees the ADMIN privilege either way. It
// runs at startup so a fresh deployment is never locked out.
func (s *adminService) EnsureBootstrapAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// account exists, fall through to the privilege check
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		user = models.User{Name: name, Email: email, PasswordHash: string(hash)}
		if createErr := s.users.Create(ctx, &user); createErr != nil {
			return createErr
		}
		s.logger.Info().Str("email", email).Msg("bootstrap admin created")
	default:
		return err
	}

	admin, err := s.users.HasActivePrivilege(ctx, user.ID, models.PrivilegeAdmin)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}
	return s.users.GrantPrivilege(ctx, user.ID, models.PrivilegeAdmin)
}

func (s *adminService) checkEmailFree(ctx context.Context, email string, selfID uint) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.ID != selfID {
			return ErrEmailTaken
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
