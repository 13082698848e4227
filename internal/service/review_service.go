package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/observability"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// ReviewService covers the two review stages: coordinator approval of
// submitted work and deputy dean endorsement of coordinator-approved work.
// Every transition is guarded by a conditional status update so concurrent
// reviewers cannot double-apply a decision.
type ReviewService interface {
	CoordinatorApprove(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error)
	CoordinatorReject(ctx context.Context, actor Identity, id uint, payload dto.RejectRequest) (dto.SubmissionResponse, error)
	DeanEndorse(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error)
	DeanReject(ctx context.Context, actor Identity, id uint, payload dto.RejectRequest) (dto.SubmissionResponse, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	resolver    *RoleResolver
	audit       AuditRecorder
	dashboards  DashboardInvalidator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReviewService constructs the review stage service. dashboards may be
// nil when no dashboard cache is configured.
func NewReviewService(submissions repository.SubmissionRepository, resolver *RoleResolver, audit AuditRecorder, dashboards DashboardInvalidator, logger zerolog.Logger) ReviewService {
	return &reviewService{
		submissions: submissions,
		resolver:    resolver,
		audit:       audit,
		dashboards:  dashboards,
		logger:      logger.With().Str("component", "review_service").Logger(),
		now:         time.Now,
	}
}

func (s *reviewService) flushDashboards(ctx context.Context, userIDs ...uint) {
	if s.dashboards != nil {
		s.dashboards.InvalidateDashboards(ctx, userIDs...)
	}
}

func (s *reviewService) CoordinatorApprove(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadForRole(ctx, actor, id, RoleCoordinator)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.Status != models.StatusSubmitted {
		return dto.SubmissionResponse{}, ErrNotSubmitted
	}

	// Approval hands the submission to a deputy dean, so one must be
	// resolvable before anything changes.
	deanID, err := s.resolver.DeputyDeanFor(ctx, submission.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if deanID == nil {
		return dto.SubmissionResponse{}, ErrNoDeputyDean
	}

	now := s.now()
	affected, err := s.submissions.UpdateStatusIf(ctx, submission.ID, models.StatusSubmitted, map[string]interface{}{
		"status":                  models.StatusCoordinatorApproved,
		"current_assignee_id":     *deanID,
		"coordinator_approved_at": now,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if affected == 0 {
		return dto.SubmissionResponse{}, ErrTransitionRaced
	}
	observability.Transitions().WithLabelValues(models.StatusCoordinatorApproved).Inc()

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionCoordinatorApproved,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"course_id":      submission.CourseID,
			"deputy_dean_id": *deanID,
		},
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("deputy_dean_id", *deanID).Msg("submission approved by coordinator")

	s.flushDashboards(ctx, actor.UserID, submission.OwnerUserID, *deanID)

	return s.reload(ctx, submission.ID)
}

func (s *reviewService) CoordinatorReject(ctx context.Context, actor Identity, id uint, payload dto.RejectRequest) (dto.SubmissionResponse, error) {
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return dto.SubmissionResponse{}, ErrReasonRequired
	}

	submission, err := s.loadForRole(ctx, actor, id, RoleCoordinator)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.Status != models.StatusSubmitted {
		return dto.SubmissionResponse{}, ErrNotSubmitted
	}

	return s.reject(ctx, actor, submission, models.StatusSubmitted, reason, ActionCoordinatorRejected)
}

func (s *reviewService) DeanEndorse(ctx context.Context, actor Identity, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadForRole(ctx, actor, id, RoleDeputyDean)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.Status != models.StatusCoordinatorApproved {
		return dto.SubmissionResponse{}, ErrNotApproved
	}

	now := s.now()
	affected, err := s.submissions.UpdateStatusIf(ctx, submission.ID, models.StatusCoordinatorApproved, map[string]interface{}{
		"status":              models.StatusDeanEndorsed,
		"current_assignee_id": nil,
		"dean_endorsed_at":    now,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if affected == 0 {
		return dto.SubmissionResponse{}, ErrTransitionRaced
	}
	observability.Transitions().WithLabelValues(models.StatusDeanEndorsed).Inc()

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     ActionDeanEndorsed,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"course_id": submission.CourseID,
		},
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission endorsed")

	s.flushDashboards(ctx, actor.UserID, submission.OwnerUserID)

	return s.reload(ctx, submission.ID)
}

func (s *reviewService) DeanReject(ctx context.Context, actor Identity, id uint, payload dto.RejectRequest) (dto.SubmissionResponse, error) {
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return dto.SubmissionResponse{}, ErrReasonRequired
	}

	submission, err := s.loadForRole(ctx, actor, id, RoleDeputyDean)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if submission.Status != models.StatusCoordinatorApproved {
		return dto.SubmissionResponse{}, ErrNotApproved
	}

	return s.reject(ctx, actor, submission, models.StatusCoordinatorApproved, reason, ActionDeanRejected)
}

func (s *reviewService) reject(ctx context.Context, actor Identity, submission models.Submission, expectedStatus, reason, action string) (dto.SubmissionResponse, error) {
	now := s.now()
	affected, err := s.submissions.UpdateStatusIf(ctx, submission.ID, expectedStatus, map[string]interface{}{
		"status":              models.StatusRejected,
		"current_assignee_id": nil,
		"rejection_reason":    reason,
		"rejected_at":         now,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if affected == 0 {
		return dto.SubmissionResponse{}, ErrTransitionRaced
	}
	observability.Transitions().WithLabelValues(models.StatusRejected).Inc()

	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ActorID(),
		Action:     action,
		EntityType: EntitySubmission,
		EntityID:   &submission.ID,
		Details: map[string]interface{}{
			"course_id": submission.CourseID,
			"reason":    reason,
		},
	}); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Str("action", action).Msg("submission rejected")

	s.flushDashboards(ctx, actor.UserID, submission.OwnerUserID)

	return s.reload(ctx, submission.ID)
}

// loadForRole fetches the submission and checks the actor holds the required
// review role for its course. Admins are not implicitly reviewers: decisions
// require the course-scoped role.
func (s *reviewService) loadForRole(ctx context.Context, actor Identity, id uint, role Role) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	roles, err := s.resolver.Resolve(ctx, actor.UserID, submission.CourseID)
	if err != nil {
		return models.Submission{}, err
	}
	if !roles.Has(role) {
		return models.Submission{}, ErrForbidden
	}
	return submission, nil
}

func (s *reviewService) reload(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}
