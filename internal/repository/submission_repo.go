package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	OwnerUserID *uint
	CourseIDs   []uint
	Statuses    []string
	OrderBy     string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, id uint) error
	// UpdateStatusIf applies updates only while the row still holds
	// expectedStatus, and reports how many rows changed. Zero means a
	// concurrent caller won the transition first.
	UpdateStatusIf(ctx context.Context, id uint, expectedStatus string, updates map[string]interface{}) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Documents").
		Preload("Course").
		Preload("Course.Department").
		Preload("Owner")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.OwnerUserID != nil {
		query = query.Where("owner_user_id = ?", *filter.OwnerUserID)
	}

	if len(filter.CourseIDs) > 0 {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}

	if len(filter.Statuses) == 1 {
		query = query.Where("status = ?", filter.Statuses[0])
	} else if len(filter.Statuses) > 1 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	order := filter.OrderBy
	if order == "" {
		order = "created_at DESC"
	}

	var submissions []models.Submission
	if err := query.Order(order).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.SubmissionDocument{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Submission{}, id).Error
	})
}

func (r *submissionRepository) UpdateStatusIf(ctx context.Context, id uint, expectedStatus string, updates map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}
