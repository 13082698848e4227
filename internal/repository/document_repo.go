package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// DocumentRepository defines data operations for submission documents.
type DocumentRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionDocument, error)
	GetBySubmissionAndType(ctx context.Context, submissionID uint, documentType string) (models.SubmissionDocument, error)
	// Upsert writes the document row, replacing any previous row for the same
	// (submission, document type) pair.
	Upsert(ctx context.Context, document *models.SubmissionDocument) error
	Delete(ctx context.Context, submissionID uint, documentType string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository instantiates the repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionDocument, error) {
	var documents []models.SubmissionDocument
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("document_type").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *documentRepository) GetBySubmissionAndType(ctx context.Context, submissionID uint, documentType string) (models.SubmissionDocument, error) {
	var document models.SubmissionDocument
	err := r.db.WithContext(ctx).
		Where("submission_id = ? AND document_type = ?", submissionID, documentType).
		First(&document).Error
	if err != nil {
		return models.SubmissionDocument{}, err
	}
	return document, nil
}

func (r *documentRepository) Upsert(ctx context.Context, document *models.SubmissionDocument) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "submission_id"}, {Name: "document_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"file_name":      document.FileName,
			"file_ref":       document.FileRef,
			"file_size":      document.FileSize,
			"not_applicable": document.NotApplicable,
		}),
	}).Create(document).Error
}

func (r *documentRepository) Delete(ctx context.Context, submissionID uint, documentType string) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ? AND document_type = ?", submissionID, documentType).
		Delete(&models.SubmissionDocument{}).Error
}
