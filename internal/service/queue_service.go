package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// DashboardInvalidator drops cached dashboards for the named users so a state
// change becomes visible before the cache TTL runs out.
type DashboardInvalidator interface {
	InvalidateDashboards(ctx context.Context, userIDs ...uint)
}

// QueueService projects review queues and the per-user dashboard. Queues are
// ordered oldest-first so the longest-waiting submission surfaces on top.
type QueueService interface {
	CoordinatorQueue(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error)
	DeputyDeanQueue(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error)
	Dashboard(ctx context.Context, actor Identity) (dto.DashboardResponse, error)

	DashboardInvalidator
}

type queueService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	catalog     repository.CatalogRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewQueueService constructs the queue projection service. cache may be nil,
// in which case every dashboard read hits the database.
func NewQueueService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, catalog repository.CatalogRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) QueueService {
	return &queueService{
		submissions: submissions,
		assignments: assignments,
		catalog:     catalog,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "queue_service").Logger(),
	}
}

func (s *queueService) CoordinatorQueue(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error) {
	courseIDs, err := s.assignments.ListCourseIDsByCoordinator(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return []dto.SubmissionResponse{}, nil
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		CourseIDs: courseIDs,
		Statuses:  []string{models.StatusSubmitted},
		OrderBy:   "submitted_at ASC",
	})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *queueService) DeputyDeanQueue(ctx context.Context, actor Identity) ([]dto.SubmissionResponse, error) {
	courseIDs, err := s.deanCourseIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return []dto.SubmissionResponse{}, nil
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		CourseIDs: courseIDs,
		Statuses:  []string{models.StatusCoordinatorApproved},
		OrderBy:   "coordinator_approved_at ASC",
	})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Dashboard assembles every section the caller's roles entitle them to:
// the role-scoped submission history, the caller's own submissions and the
// pending queues. The sections are independent, so holding both reviewer
// roles fills both queues.
func (s *queueService) Dashboard(ctx context.Context, actor Identity) (dto.DashboardResponse, error) {
	cacheKey := dashboardCacheKey(actor.UserID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	visible, err := s.visibleSubmissions(ctx, actor)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	owner := actor.UserID
	mine, err := s.submissions.List(ctx, repository.SubmissionFilter{OwnerUserID: &owner})
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	coordinatorQueue, err := s.CoordinatorQueue(ctx, actor)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	deanQueue, err := s.DeputyDeanQueue(ctx, actor)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		Submissions:      dto.NewSubmissionResponseSlice(visible),
		Mine:             dto.NewSubmissionResponseSlice(mine),
		CoordinatorQueue: coordinatorQueue,
		DeputyDeanQueue:  deanQueue,
		Counts: dto.DashboardCounts{
			Submissions:      len(visible),
			Mine:             len(mine),
			AwaitingApproval: len(coordinatorQueue),
			AwaitingEndorse:  len(deanQueue),
		},
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// InvalidateDashboards drops the named users' cached dashboards. Failures are
// logged and swallowed: the TTL still bounds staleness.
func (s *queueService) InvalidateDashboards(ctx context.Context, userIDs ...uint) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, dashboardCacheKey(id))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:user:%d", userID)
}

// visibleSubmissions builds the role-scoped review history. Admins see every
// submission past draft; a coordinator sees the full post-draft history of
// their courses; a deputy dean sees their courses from coordinator approval
// onward. A caller holding several roles gets the union, newest first.
func (s *queueService) visibleSubmissions(ctx context.Context, actor Identity) ([]models.Submission, error) {
	nonDraft := []string{
		models.StatusSubmitted,
		models.StatusCoordinatorApproved,
		models.StatusDeanEndorsed,
		models.StatusRejected,
	}

	if actor.IsAdmin() {
		return s.submissions.List(ctx, repository.SubmissionFilter{
			Statuses: nonDraft,
			OrderBy:  "created_at DESC",
		})
	}

	seen := map[uint]struct{}{}
	var visible []models.Submission
	collect := func(batch []models.Submission) {
		for _, item := range batch {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			visible = append(visible, item)
		}
	}

	coordinatorCourseIDs, err := s.assignments.ListCourseIDsByCoordinator(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(coordinatorCourseIDs) > 0 {
		batch, err := s.submissions.List(ctx, repository.SubmissionFilter{
			CourseIDs: coordinatorCourseIDs,
			Statuses:  nonDraft,
		})
		if err != nil {
			return nil, err
		}
		collect(batch)
	}

	deanCourseIDs, err := s.deanCourseIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(deanCourseIDs) > 0 {
		batch, err := s.submissions.List(ctx, repository.SubmissionFilter{
			CourseIDs: deanCourseIDs,
			Statuses:  []string{models.StatusCoordinatorApproved, models.StatusDeanEndorsed},
		})
		if err != nil {
			return nil, err
		}
		collect(batch)
	}

	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID > visible[j].ID
	})
	return visible, nil
}

// deanCourseIDs is the full review scope of a deputy dean: courses naming the
// user directly, plus every course of a department whose faculty assignment
// names the user and whose own course assignment names no dean.
func (s *queueService) deanCourseIDs(ctx context.Context, userID uint) ([]uint, error) {
	direct, err := s.assignments.ListCourseIDsByDeputyDean(ctx, userID)
	if err != nil {
		return nil, err
	}

	departmentIDs, err := s.assignments.ListDepartmentIDsByFacultyDean(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(direct))
	courseIDs := make([]uint, 0, len(direct))
	for _, id := range direct {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		courseIDs = append(courseIDs, id)
	}

	if len(departmentIDs) == 0 {
		return courseIDs, nil
	}

	candidates, err := s.catalog.ListCourseIDsByDepartments(ctx, departmentIDs)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return courseIDs, nil
	}

	// A course-level dean overrides the faculty fallback, so departments only
	// contribute courses whose active assignment names no dean.
	withDean, err := s.assignments.ListActiveByCourseIDs(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		if assignment, ok := withDean[id]; ok && assignment.DeputyDeanUserID != nil {
			continue
		}
		seen[id] = struct{}{}
		courseIDs = append(courseIDs, id)
	}

	return courseIDs, nil
}
