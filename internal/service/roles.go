package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// Role is a course-scoped capability resolved for one caller and one course.
type Role string

// Resolved roles.
const (
	RoleAdmin       Role = "ADMIN"
	RoleCoordinator Role = "COORDINATOR"
	RoleDeputyDean  Role = "DEPUTY_DEAN"
)

// RoleSet is the resolver output. The zero value is empty: no membership, no
// authorization.
type RoleSet map[Role]struct{}

// Has reports whether the set contains the role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

func (s RoleSet) add(role Role) {
	s[role] = struct{}{}
}

// RoleResolver determines which review roles a user holds for a given course.
// It fails closed: absence of a matching assignment yields no role.
type RoleResolver struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	catalog     repository.CatalogRepository
}

// NewRoleResolver constructs a resolver over the given repositories.
func NewRoleResolver(users repository.UserRepository, assignments repository.AssignmentRepository, catalog repository.CatalogRepository) *RoleResolver {
	return &RoleResolver{users: users, assignments: assignments, catalog: catalog}
}

// Resolve computes the role set of userID for courseID. ADMIN is global;
// COORDINATOR comes only from the course's active assignment; DEPUTY_DEAN
// comes from the course assignment or, when that names no dean, from the
// active faculty assignment of the course's department.
func (r *RoleResolver) Resolve(ctx context.Context, userID, courseID uint) (RoleSet, error) {
	set := RoleSet{}

	admin, err := r.users.HasActivePrivilege(ctx, userID, models.PrivilegeAdmin)
	if err != nil {
		return nil, err
	}
	if admin {
		set.add(RoleAdmin)
	}

	deanNamed := false
	assignment, err := r.assignments.GetActiveByCourse(ctx, courseID)
	switch {
	case err == nil:
		if assignment.CoordinatorUserID != nil && *assignment.CoordinatorUserID == userID {
			set.add(RoleCoordinator)
		}
		if assignment.DeputyDeanUserID != nil {
			deanNamed = true
			if *assignment.DeputyDeanUserID == userID {
				set.add(RoleDeputyDean)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no active assignment, fall through to the faculty layer
	default:
		return nil, err
	}

	if !deanNamed {
		deanID, err := r.facultyDean(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if deanID != nil && *deanID == userID {
			set.add(RoleDeputyDean)
		}
	}

	return set, nil
}

// CoordinatorFor returns the active coordinator for the course, or nil when
// none is configured.
func (r *RoleResolver) CoordinatorFor(ctx context.Context, courseID uint) (*uint, error) {
	assignment, err := r.assignments.GetActiveByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return assignment.CoordinatorUserID, nil
}

// DeputyDeanFor returns the deputy dean responsible for the course: the
// course-level assignment when it names one, otherwise the department-level
// fallback, otherwise nil.
func (r *RoleResolver) DeputyDeanFor(ctx context.Context, courseID uint) (*uint, error) {
	assignment, err := r.assignments.GetActiveByCourse(ctx, courseID)
	if err == nil && assignment.DeputyDeanUserID != nil {
		return assignment.DeputyDeanUserID, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.facultyDean(ctx, courseID)
}

func (r *RoleResolver) facultyDean(ctx context.Context, courseID uint) (*uint, error) {
	course, err := r.catalog.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	faculty, err := r.assignments.GetActiveFacultyByDepartment(ctx, course.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return faculty.DeputyDeanUserID, nil
}
