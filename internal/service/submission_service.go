package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/observability"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// FileStore is the file storage collaborator. Content must be durably stored
// before any document row references it.
type FileStore interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
	Download(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

// SubmissionService owns the submission lifecycle up to the review handoff:
// drafting, document management, submit-for-review and deletion.
type SubmissionService interface {
	Create(ctx context.Context, actor Identity, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error)
	Update(ctx context.Context, actor Identity, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error)
	SubmitForReview(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor Identity, id uint) error

	UploadDocument(ctx context.Context, actor Identity, id uint, documentType string, file *multipart.FileHeader) (dto.DocumentResponse, error)
	MarkDocumentNotApplicable(ctx context.Context, actor Identity, id uint, documentType string) (dto.DocumentResponse, error)
	RemoveDocument(ctx context.Context, actor Identity, id uint, documentType string) error
	DownloadDocument(ctx context.Context, actor Identity, id uint, documentType string) (models.SubmissionDocument, io.ReadCloser, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	documents   repository.DocumentRepository
	catalog     repository.CatalogRepository
	resolver    *RoleResolver
	audit       AuditRecorder
	store       FileStore
	dashboards  DashboardInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the submission lifecycle service.
// dashboards may be nil when no dashboard cache is configured.
func NewSubmissionService(submissions repository.SubmissionRepository, documents repository.DocumentRepository, catalog repository.CatalogRepository, resolver *RoleResolver, audit AuditRecorder, store FileStore, dashboards DashboardInvalidator, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		documents:   documents,
		catalog:     catalog,
		resolver:    resolver,
		audit:       audit,
		store:       store,
		dashboards:  dashboards,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) flushDashboards(ctx context.Context, userIDs ...uint) {
	if s.dashboards != nil {
		s.dashboards.InvalidateDashboards(ctx, userIDs...)
	}
}

func (s *submissionService) Create(ctx context.Context, actor Identity, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.checkReferences(ctx, payload.SessionID, payload.CourseID, payload.DepartmentID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		OwnerUserID:  actor.UserID,
		SessionID:    payload.SessionID,
		DepartmentID: payload.DepartmentID,
		CourseID:     payload.CourseID,
		TypeOfStudy:  payload.TypeOfStudy,
		Status:       models.StatusDraft,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSubmissionCreated,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"course_id":     payload.CourseID,
			"session_id":    payload.SessionID,
			"type_of_study": payload.TypeOfStudy,
		},
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission created")

	s.flushDashboards(ctx, actor.UserID)

	return s.reload(ctx, submission.ID)
}

func (s *submissionService) ListMine(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error) {
	owner := actor.UserID
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{OwnerUserID: &owner})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Update(ctx context.Context, actor Identity, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	admin := actor.IsAdmin()
	if !submission.EditableBy(admin) {
		return dto.SubmissionResponse{}, ErrNotEditable
	}

	if err := s.checkReferences(ctx, payload.SessionID, payload.CourseID, payload.DepartmentID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	details := map[string]interface{}{
		"course_id":     payload.CourseID,
		"session_id":    payload.SessionID,
		"type_of_study": payload.TypeOfStudy,
	}

	submission.SessionID = payload.SessionID
	submission.DepartmentID = payload.DepartmentID
	submission.CourseID = payload.CourseID
	submission.TypeOfStudy = payload.TypeOfStudy

	// A lecturer editing a rejected submission pulls it back to draft; the
	// rejection reason moves to the ledger before it is cleared.
	if !admin && submission.Status == models.StatusRejected {
		details["previous_status"] = models.StatusRejected
		details["rejection_reason"] = submission.RejectionReason
		submission.Status = models.StatusDraft
		submission.RejectionReason = ""
		submission.RejectedAt = nil
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSubmissionUpdated,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details:    details,
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.flushDashboards(ctx, actor.UserID, submission.OwnerUserID)

	return s.reload(ctx, submission.ID)
}

func (s *submissionService) SubmitForReview(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.OwnerUserID != actor.UserID {
		// Admins may edit drafts but only the owner can hand one to review.
		return dto.SubmissionResponse{}, ErrForbidden
	}

	if submission.Status != models.StatusDraft {
		return dto.SubmissionResponse{}, ErrNotDraft
	}

	coordinatorID, err := s.resolver.CoordinatorFor(ctx, submission.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if coordinatorID == nil {
		return dto.SubmissionResponse{}, ErrNoCoordinator
	}

	now := s.now()
	affected, err := s.submissions.UpdateStatusIf(ctx, submission.ID, models.StatusDraft, map[string]interface{}{
		"status":              models.StatusSubmitted,
		"current_assignee_id": *coordinatorID,
		"submitted_at":        now,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if affected == 0 {
		return dto.SubmissionResponse{}, ErrTransitionRaced
	}
	observability.Transitions().WithLabelValues(models.StatusSubmitted).Inc()

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSubmissionSubmitted,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"course_id":      submission.CourseID,
			"coordinator_id": *coordinatorID,
		},
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("coordinator_id", *coordinatorID).Msg("submission sent for review")

	s.flushDashboards(ctx, actor.UserID, *coordinatorID)

	return s.reload(ctx, submission.ID)
}

func (s *submissionService) Delete(ctx context.Context, actor Identity, id uint) error {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if submission.OwnerUserID != actor.UserID {
		return ErrForbidden
	}

	if submission.Status != models.StatusDraft {
		return ErrDraftOnly
	}

	for _, document := range submission.Documents {
		if document.FileRef == "" {
			continue
		}
		if err := s.store.Remove(ctx, document.FileRef); err != nil {
			s.logger.Warn().Err(err).Str("file_ref", document.FileRef).Msg("failed to remove stored document")
		}
	}

	if err := s.submissions.Delete(ctx, id); err != nil {
		return err
	}

	s.flushDashboards(ctx, actor.UserID, submission.OwnerUserID)

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionSubmissionDeleted,
		EntityType: EntitySubmission,
		EntityID:   &id,
		Details: map[string]interface{}{
			"course_id": submission.CourseID,
		},
	})
}

func (s *submissionService) UploadDocument(ctx context.Context, actor Identity, id uint, documentType string, file *multipart.FileHeader) (dto.DocumentResponse, error) {
	if !models.ValidDocumentType(documentType) {
		return dto.DocumentResponse{}, ErrInvalidDocumentType
	}
	if file == nil {
		return dto.DocumentResponse{}, fmt.Errorf("document file is required: %w", ErrDocumentNotFound)
	}

	submission, err := s.editableSubmission(ctx, actor, id)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	if err := validateDocumentFile(file); err != nil {
		return dto.DocumentResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	// Store the content first; the row is written only once the file is
	// durable, so a failed write never leaves a dangling reference.
	storedName := fmt.Sprintf("submissions/%d/%s-%s%s", submission.ID, documentType, uuid.NewString(), filepath.Ext(file.Filename))
	fileRef, err := s.store.Upload(ctx, storedName, reader)
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	previous, prevErr := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)

	document := models.SubmissionDocument{
		SubmissionID:  submission.ID,
		DocumentType:  documentType,
		FileName:      file.Filename,
		FileRef:       fileRef,
		FileSize:      file.Size,
		NotApplicable: false,
	}
	if err := s.documents.Upsert(ctx, &document); err != nil {
		if removeErr := s.store.Remove(ctx, fileRef); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("file_ref", fileRef).Msg("failed to clean up orphaned upload")
		}
		return dto.DocumentResponse{}, err
	}

	if prevErr == nil && previous.FileRef != "" && previous.FileRef != fileRef {
		if err := s.store.Remove(ctx, previous.FileRef); err != nil {
			s.logger.Warn().Err(err).Str("file_ref", previous.FileRef).Msg("failed to remove replaced document")
		}
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDocumentUploaded,
		EntityType: EntitySubmissionDocument,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"document_type": documentType,
			"file_name":     file.Filename,
			"file_size":     file.Size,
		},
	}); err != nil {
		return dto.DocumentResponse{}, err
	}

	stored, err := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)
	if err != nil {
		return dto.DocumentResponse{}, err
	}
	return dto.NewDocumentResponse(stored), nil
}

func (s *submissionService) MarkDocumentNotApplicable(ctx context.Context, actor Identity, id uint, documentType string) (dto.DocumentResponse, error) {
	if !models.ValidDocumentType(documentType) {
		return dto.DocumentResponse{}, ErrInvalidDocumentType
	}

	submission, err := s.editableSubmission(ctx, actor, id)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	previous, prevErr := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)

	document := models.SubmissionDocument{
		SubmissionID:  submission.ID,
		DocumentType:  documentType,
		NotApplicable: true,
	}
	if err := s.documents.Upsert(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	if prevErr == nil && previous.FileRef != "" {
		if err := s.store.Remove(ctx, previous.FileRef); err != nil {
			s.logger.Warn().Err(err).Str("file_ref", previous.FileRef).Msg("failed to remove stored document")
		}
	}

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDocumentNotApplied,
		EntityType: EntitySubmissionDocument,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"document_type": documentType,
		},
	}); err != nil {
		return dto.DocumentResponse{}, err
	}

	stored, err := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)
	if err != nil {
		return dto.DocumentResponse{}, err
	}
	return dto.NewDocumentResponse(stored), nil
}

func (s *submissionService) RemoveDocument(ctx context.Context, actor Identity, id uint, documentType string) error {
	submission, err := s.editableSubmission(ctx, actor, id)
	if err != nil {
		return err
	}

	document, err := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if err := s.documents.Delete(ctx, submission.ID, documentType); err != nil {
		return err
	}

	if document.FileRef != "" {
		if err := s.store.Remove(ctx, document.FileRef); err != nil {
			s.logger.Warn().Err(err).Str("file_ref", document.FileRef).Msg("failed to remove stored document")
		}
	}

	return s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDocumentRemoved,
		EntityType: EntitySubmissionDocument,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"document_type": documentType,
			"file_name":     document.FileName,
		},
	})
}

func (s *submissionService) DownloadDocument(ctx context.Context, actor Identity, id uint, documentType string) (models.SubmissionDocument, io.ReadCloser, error) {
	submission, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return models.SubmissionDocument{}, nil, err
	}

	document, err := s.documents.GetBySubmissionAndType(ctx, submission.ID, documentType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SubmissionDocument{}, nil, ErrDocumentNotFound
		}
		return models.SubmissionDocument{}, nil, err
	}
	if !document.HasFile() {
		return models.SubmissionDocument{}, nil, ErrDocumentNotFound
	}

	content, err := s.store.Download(ctx, document.FileRef)
	if err != nil {
		return models.SubmissionDocument{}, nil, err
	}
	return document, content, nil
}

// loadVisible returns the submission when the caller is its owner, its
// current assignee or an admin; anything else reads as not found.
func (s *submissionService) loadVisible(ctx context.Context, actor Identity, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	isOwner := submission.OwnerUserID == actor.UserID
	isAssignee := submission.CurrentAssigneeID != nil && *submission.CurrentAssigneeID == actor.UserID
	if !isOwner && !isAssignee && !actor.IsAdmin() {
		return models.Submission{}, ErrSubmissionNotFound
	}
	return submission, nil
}

// loadOwned returns the submission for its owner or an admin.
func (s *submissionService) loadOwned(ctx context.Context, actor Identity, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.OwnerUserID != actor.UserID && !actor.IsAdmin() {
		return models.Submission{}, ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *submissionService) editableSubmission(ctx context.Context, actor Identity, id uint) (models.Submission, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return models.Submission{}, err
	}
	if !submission.EditableBy(actor.IsAdmin()) {
		return models.Submission{}, ErrNotEditable
	}
	return submission, nil
}

func (s *submissionService) checkReferences(ctx context.Context, sessionID, courseID, departmentID uint) error {
	if _, err := s.catalog.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if course.DepartmentID != departmentID {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *submissionService) reload(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func validateDocumentFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"application/x-zip-compressed",
		"text/plain",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
