package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := setupTestDB(t,
		&models.User{},
		&models.Session{},
		&models.Department{},
		&models.Course{},
		&models.Submission{},
		&models.SubmissionDocument{},
	)

	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Jane", Email: "jane@example.edu", PasswordHash: "x"}).Error)
	require.NoError(t, db.Create(&models.Department{ID: 1, Code: "SOC", Name: "School of Computing", Active: true}).Error)
	require.NoError(t, db.Create(&models.Course{ID: 1, Code: "CS101", Name: "Programming", DepartmentID: 1, Active: true}).Error)
	return db
}

func createSubmission(t *testing.T, db *gorm.DB, status string) models.Submission {
	t.Helper()

	submission := models.Submission{
		OwnerUserID:  1,
		SessionID:    1,
		DepartmentID: 1,
		CourseID:     1,
		TypeOfStudy:  "FULL_TIME",
		Status:       status,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryUpdateStatusIf(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	submission := createSubmission(t, db, models.StatusDraft)
	now := time.Now()

	// wrong expected status leaves the row untouched
	affected, err := repo.UpdateStatusIf(context.Background(), submission.ID, models.StatusSubmitted, map[string]interface{}{
		"status": models.StatusCoordinatorApproved,
	})
	require.NoError(t, err)
	require.Zero(t, affected)

	affected, err = repo.UpdateStatusIf(context.Background(), submission.ID, models.StatusDraft, map[string]interface{}{
		"status":              models.StatusSubmitted,
		"current_assignee_id": uint(2),
		"submitted_at":        now,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, stored.Status)
	require.NotNil(t, stored.CurrentAssigneeID)
	require.Equal(t, uint(2), *stored.CurrentAssigneeID)
	require.NotNil(t, stored.SubmittedAt)

	// a second identical transition finds the guard already consumed
	affected, err = repo.UpdateStatusIf(context.Background(), submission.ID, models.StatusDraft, map[string]interface{}{
		"status": models.StatusSubmitted,
	})
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestSubmissionRepositoryListQueueOrdering(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	newer := createSubmission(t, db, models.StatusSubmitted)
	older := createSubmission(t, db, models.StatusSubmitted)
	createSubmission(t, db, models.StatusDraft)

	newerAt := time.Now().Add(-time.Hour)
	olderAt := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", newer.ID).Update("submitted_at", newerAt).Error)
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", older.ID).Update("submitted_at", olderAt).Error)

	queue, err := repo.List(context.Background(), SubmissionFilter{
		CourseIDs: []uint{1},
		Statuses:  []string{models.StatusSubmitted},
		OrderBy:   "submitted_at ASC",
	})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, older.ID, queue[0].ID, "longest-waiting submission should surface first")
	require.Equal(t, newer.ID, queue[1].ID)
}

func TestSubmissionRepositoryListByOwner(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	mine := createSubmission(t, db, models.StatusDraft)
	other := models.Submission{OwnerUserID: 2, SessionID: 1, DepartmentID: 1, CourseID: 1, TypeOfStudy: "FULL_TIME", Status: models.StatusDraft}
	require.NoError(t, db.Create(&other).Error)

	owner := uint(1)
	result, err := repo.List(context.Background(), SubmissionFilter{OwnerUserID: &owner})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, mine.ID, result[0].ID)
	require.Equal(t, "Jane", result[0].Owner.Name)
	require.Equal(t, "CS101", result[0].Course.Code)
}

func TestSubmissionRepositoryDeleteRemovesDocuments(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	submission := createSubmission(t, db, models.StatusDraft)
	require.NoError(t, db.Create(&models.SubmissionDocument{SubmissionID: submission.ID, DocumentType: models.DocQP005Syllabus, FileRef: "a"}).Error)
	require.NoError(t, db.Create(&models.SubmissionDocument{SubmissionID: submission.ID, DocumentType: models.DocQP005Quiz, NotApplicable: true}).Error)

	require.NoError(t, repo.Delete(context.Background(), submission.ID))

	_, err := repo.GetByID(context.Background(), submission.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.SubmissionDocument{}).Where("submission_id = ?", submission.ID).Count(&count).Error)
	require.Zero(t, count)
}
