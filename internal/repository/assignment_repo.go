package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// AssignmentRepository defines data operations for course- and faculty-level
// reviewer assignments.
type AssignmentRepository interface {
	List(ctx context.Context) ([]models.CourseRoleAssignment, error)
	GetByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error)
	GetActiveByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error)
	Upsert(ctx context.Context, assignment *models.CourseRoleAssignment) error
	SetActive(ctx context.Context, courseID uint, active bool) error
	DeleteByCourse(ctx context.Context, courseID uint) error
	ListCourseIDsByCoordinator(ctx context.Context, userID uint) ([]uint, error)
	ListCourseIDsByDeputyDean(ctx context.Context, userID uint) ([]uint, error)
	ListActiveByCourseIDs(ctx context.Context, courseIDs []uint) (map[uint]models.CourseRoleAssignment, error)

	ListFaculty(ctx context.Context) ([]models.FacultyRoleAssignment, error)
	GetFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error)
	GetActiveFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error)
	UpsertFaculty(ctx context.Context, assignment *models.FacultyRoleAssignment) error
	SetFacultyActive(ctx context.Context, departmentID uint, active bool) error
	DeleteFacultyByDepartment(ctx context.Context, departmentID uint) error
	ListDepartmentIDsByFacultyDean(ctx context.Context, userID uint) ([]uint, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context) ([]models.CourseRoleAssignment, error) {
	var assignments []models.CourseRoleAssignment
	err := r.db.WithContext(ctx).
		Preload("Course").Preload("Course.Department").
		Joins("JOIN courses ON courses.id = course_role_assignments.course_id").
		Order("courses.code").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) GetByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error) {
	var assignment models.CourseRoleAssignment
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		First(&assignment).Error
	if err != nil {
		return models.CourseRoleAssignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) GetActiveByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error) {
	var assignment models.CourseRoleAssignment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND active = ?", courseID, true).
		First(&assignment).Error
	if err != nil {
		return models.CourseRoleAssignment{}, err
	}
	return assignment, nil
}

// Upsert replaces the single row for the course, reactivating it.
func (r *assignmentRepository) Upsert(ctx context.Context, assignment *models.CourseRoleAssignment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"coordinator_user_id": assignment.CoordinatorUserID,
			"deputy_dean_user_id": assignment.DeputyDeanUserID,
			"active":              true,
		}),
	}).Create(assignment).Error
}

func (r *assignmentRepository) SetActive(ctx context.Context, courseID uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.CourseRoleAssignment{}).
		Where("course_id = ?", courseID).
		Update("active", active).Error
}

func (r *assignmentRepository) DeleteByCourse(ctx context.Context, courseID uint) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&models.CourseRoleAssignment{}).Error
}

func (r *assignmentRepository) ListCourseIDsByCoordinator(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.CourseRoleAssignment{}).
		Where("coordinator_user_id = ? AND active = ?", userID, true).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *assignmentRepository) ListCourseIDsByDeputyDean(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.CourseRoleAssignment{}).
		Where("deputy_dean_user_id = ? AND active = ?", userID, true).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *assignmentRepository) ListActiveByCourseIDs(ctx context.Context, courseIDs []uint) (map[uint]models.CourseRoleAssignment, error) {
	result := make(map[uint]models.CourseRoleAssignment, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}
	var assignments []models.CourseRoleAssignment
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND active = ?", courseIDs, true).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		result[a.CourseID] = a
	}
	return result, nil
}

func (r *assignmentRepository) ListFaculty(ctx context.Context) ([]models.FacultyRoleAssignment, error) {
	var assignments []models.FacultyRoleAssignment
	err := r.db.WithContext(ctx).
		Preload("Department").
		Joins("JOIN departments ON departments.id = faculty_role_assignments.department_id").
		Order("departments.code").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) GetFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error) {
	var assignment models.FacultyRoleAssignment
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		First(&assignment).Error
	if err != nil {
		return models.FacultyRoleAssignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) GetActiveFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error) {
	var assignment models.FacultyRoleAssignment
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND active = ?", departmentID, true).
		First(&assignment).Error
	if err != nil {
		return models.FacultyRoleAssignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) UpsertFaculty(ctx context.Context, assignment *models.FacultyRoleAssignment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "department_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"deputy_dean_user_id": assignment.DeputyDeanUserID,
			"active":              true,
		}),
	}).Create(assignment).Error
}

func (r *assignmentRepository) SetFacultyActive(ctx context.Context, departmentID uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.FacultyRoleAssignment{}).
		Where("department_id = ?", departmentID).
		Update("active", active).Error
}

func (r *assignmentRepository) DeleteFacultyByDepartment(ctx context.Context, departmentID uint) error {
	return r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Delete(&models.FacultyRoleAssignment{}).Error
}

func (r *assignmentRepository) ListDepartmentIDsByFacultyDean(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.FacultyRoleAssignment{}).
		Where("deputy_dean_user_id = ? AND active = ?", userID, true).
		Pluck("department_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
