package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// Ledger action names.
const (
	ActionUserCreated      = "USER_CREATED"
	ActionUserUpdated      = "USER_UPDATED"
	ActionUserDeleted      = "USER_DELETED"
	ActionPrivilegeGranted = "PRIVILEGE_GRANTED"
	ActionPrivilegeRevoked = "PRIVILEGE_REVOKED"

	ActionSessionCreated    = "SESSION_CREATED"
	ActionSessionUpdated    = "SESSION_UPDATED"
	ActionSessionDeleted    = "SESSION_DELETED"
	ActionDepartmentCreated = "DEPARTMENT_CREATED"
	ActionDepartmentUpdated = "DEPARTMENT_UPDATED"
	ActionDepartmentDeleted = "DEPARTMENT_DELETED"
	ActionCourseCreated     = "COURSE_CREATED"
	ActionCourseUpdated     = "COURSE_UPDATED"
	ActionCourseDeleted     = "COURSE_DELETED"

	ActionCourseAssignmentSaved    = "COURSE_ASSIGNMENT_SAVED"
	ActionCourseAssignmentToggled  = "COURSE_ASSIGNMENT_TOGGLED"
	ActionCourseAssignmentDeleted  = "COURSE_ASSIGNMENT_DELETED"
	ActionFacultyAssignmentSaved   = "FACULTY_ASSIGNMENT_SAVED"
	ActionFacultyAssignmentToggled = "FACULTY_ASSIGNMENT_TOGGLED"
	ActionFacultyAssignmentDeleted = "FACULTY_ASSIGNMENT_DELETED"

	ActionSubmissionCreated   = "SUBMISSION_CREATED"
	ActionSubmissionUpdated   = "SUBMISSION_UPDATED"
	ActionSubmissionSubmitted = "SUBMISSION_SUBMITTED"
	ActionSubmissionDeleted   = "SUBMISSION_DELETED"
	ActionDocumentUploaded    = "DOCUMENT_UPLOADED"
	ActionDocumentNotApplied  = "DOCUMENT_MARKED_NOT_APPLICABLE"
	ActionDocumentRemoved     = "DOCUMENT_REMOVED"
	ActionCoordinatorApproved = "COORDINATOR_APPROVED"
	ActionCoordinatorRejected = "COORDINATOR_REJECTED"
	ActionDeanEndorsed        = "DEAN_ENDORSED"
	ActionDeanRejected        = "DEPUTY_DEAN_REJECTED"
)

// Ledger entity types.
const (
	EntityUser               = "user"
	EntitySession            = "session"
	EntityDepartment         = "department"
	EntityCourse             = "course"
	EntityCourseAssignment   = "course_role_assignment"
	EntityFacultyAssignment  = "faculty_role_assignment"
	EntitySubmission         = "submission"
	EntitySubmissionDocument = "submission_document"
)

// AuditEntry captures one state-changing action for the ledger. ActorID is
// nil for system actions.
type AuditEntry struct {
	ActorID    *uint
	Action     string
	EntityType string
	EntityID   *uint
	Details    map[string]interface{}
}

// AuditRecorder is the write half of the ledger, consumed by every mutating
// service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditService exposes the ledger: append and filtered newest-first reads.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) ([]dto.AuditLogResponse, error)
}

type auditService struct {
	repo      repository.AuditLogRepository
	retention int
	logger    zerolog.Logger
}

// NewAuditService constructs the ledger service. retention bounds the number
// of kept entries; zero disables trimming.
func NewAuditService(repo repository.AuditLogRepository, retention int, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:      repo,
		retention: retention,
		logger:    logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("audit action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("audit entity type is required")
	}

	model := models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    datatypes.JSONMap(entry.Details),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("failed to persist audit entry")
		return err
	}

	if s.retention > 0 {
		trimmed, err := s.repo.TrimOldest(ctx, s.retention)
		if err != nil {
			// A failed trim never fails the action that was already recorded.
			s.logger.Warn().Err(err).Msg("failed to trim audit log")
		} else if trimmed > 0 {
			s.logger.Debug().Int64("trimmed", trimmed).Msg("audit log trimmed")
		}
	}

	return nil
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) ([]dto.AuditLogResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	filter := repository.AuditLogFilter{
		Limit:      limit,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewAuditLogResponseSlice(entries), nil
}
