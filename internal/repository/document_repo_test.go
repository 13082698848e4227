package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

func TestDocumentRepositoryUpsertReplacesInPlace(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionDocument{})
	repo := NewDocumentRepository(db)

	first := models.SubmissionDocument{
		SubmissionID: 1,
		DocumentType: models.DocQP005Syllabus,
		FileName:     "syllabus-v1.pdf",
		FileRef:      "submissions/1/syllabus-v1.pdf",
		FileSize:     100,
	}
	require.NoError(t, repo.Upsert(context.Background(), &first))

	second := models.SubmissionDocument{
		SubmissionID: 1,
		DocumentType: models.DocQP005Syllabus,
		FileName:     "syllabus-v2.pdf",
		FileRef:      "submissions/1/syllabus-v2.pdf",
		FileSize:     200,
	}
	require.NoError(t, repo.Upsert(context.Background(), &second))

	var count int64
	require.NoError(t, db.Model(&models.SubmissionDocument{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetBySubmissionAndType(context.Background(), 1, models.DocQP005Syllabus)
	require.NoError(t, err)
	require.Equal(t, "syllabus-v2.pdf", stored.FileName)
	require.Equal(t, int64(200), stored.FileSize)
}

func TestDocumentRepositoryNotApplicableClearsFile(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionDocument{})
	repo := NewDocumentRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.SubmissionDocument{
		SubmissionID: 1,
		DocumentType: models.DocQP005Quiz,
		FileName:     "quiz.pdf",
		FileRef:      "submissions/1/quiz.pdf",
		FileSize:     50,
	}))

	require.NoError(t, repo.Upsert(context.Background(), &models.SubmissionDocument{
		SubmissionID:  1,
		DocumentType:  models.DocQP005Quiz,
		NotApplicable: true,
	}))

	stored, err := repo.GetBySubmissionAndType(context.Background(), 1, models.DocQP005Quiz)
	require.NoError(t, err)
	require.True(t, stored.NotApplicable)
	require.False(t, stored.HasFile())
	require.Empty(t, stored.FileRef)
}

func TestDocumentRepositoryListAndDelete(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionDocument{})
	repo := NewDocumentRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.SubmissionDocument{SubmissionID: 1, DocumentType: models.DocQP005Syllabus, FileRef: "a"}))
	require.NoError(t, repo.Upsert(context.Background(), &models.SubmissionDocument{SubmissionID: 1, DocumentType: models.DocQP004TestSpec, FileRef: "b"}))
	require.NoError(t, repo.Upsert(context.Background(), &models.SubmissionDocument{SubmissionID: 2, DocumentType: models.DocQP005Syllabus, FileRef: "c"}))

	documents, err := repo.ListBySubmission(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, documents, 2)

	require.NoError(t, repo.Delete(context.Background(), 1, models.DocQP004TestSpec))

	_, err = repo.GetBySubmissionAndType(context.Background(), 1, models.DocQP004TestSpec)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
