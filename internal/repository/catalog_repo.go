package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// CatalogRepository defines data operations for sessions, departments and
// courses.
type CatalogRepository interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id uint) error
	GetSession(ctx context.Context, id uint) (models.Session, error)
	GetSessionByCode(ctx context.Context, code string) (models.Session, error)

	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id uint) (models.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	UpdateDepartment(ctx context.Context, department *models.Department) error
	DeleteDepartment(ctx context.Context, id uint) error
	CountCoursesByDepartment(ctx context.Context, departmentID uint) (int64, error)

	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id uint) (models.Course, error)
	GetCourseByCode(ctx context.Context, code string) (models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id uint) error
	ListCourseIDsByDepartments(ctx context.Context, departmentIDs []uint) ([]uint, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository instantiates the repository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *catalogRepository) GetSession(ctx context.Context, id uint) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *catalogRepository) GetSessionByCode(ctx context.Context, code string) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&session).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *catalogRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *catalogRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *catalogRepository) DeleteSession(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, id).Error
}

func (r *catalogRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.WithContext(ctx).Order("name").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *catalogRepository) GetDepartment(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *catalogRepository) GetDepartmentByCode(ctx context.Context, code string) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&department).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *catalogRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *catalogRepository) UpdateDepartment(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Save(department).Error
}

func (r *catalogRepository) DeleteDepartment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Department{}, id).Error
}

func (r *catalogRepository) CountCoursesByDepartment(ctx context.Context, departmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

func (r *catalogRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Preload("Department").Order("code").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *catalogRepository) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Department").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *catalogRepository) GetCourseByCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *catalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *catalogRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *catalogRepository) DeleteCourse(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Course{}, id).Error
}

func (r *catalogRepository) ListCourseIDsByDepartments(ctx context.Context, departmentIDs []uint) ([]uint, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("department_id IN ?", departmentIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
