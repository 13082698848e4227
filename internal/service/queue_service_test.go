package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qpflow-api/internal/models"
)

type queueFixture struct {
	submissions *fakeSubmissionRepo
	assignments *fakeAssignmentRepo
	catalog     *fakeCatalogRepo
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		submissions: newFakeSubmissionRepo(),
		assignments: newFakeAssignmentRepo(),
		catalog:     newFakeCatalogRepo(),
	}
	f.catalog.addDepartment(1, "SOC")
	f.catalog.addCourse(1, 1, "CS101")
	return f
}

func (f *queueFixture) service(cache *redis.Client) QueueService {
	return NewQueueService(f.submissions, f.assignments, f.catalog, cache, time.Minute, testLogger())
}

func (f *queueFixture) seedSubmission(owner, courseID uint, status string, waiting time.Duration) models.Submission {
	at := time.Now().Add(-waiting)
	submission := models.Submission{
		OwnerUserID:  owner,
		SessionID:    1,
		DepartmentID: 1,
		CourseID:     courseID,
		TypeOfStudy:  "FULL_TIME",
		Status:       status,
	}
	submission.CreatedAt = at
	switch status {
	case models.StatusSubmitted:
		submission.SubmittedAt = &at
	case models.StatusCoordinatorApproved:
		submission.CoordinatorApprovedAt = &at
	}
	_ = f.submissions.Create(context.Background(), &submission)
	return submission
}

func TestQueueServiceCoordinatorQueueOrdering(t *testing.T) {
	f := newQueueFixture()
	coordinatorID := uint(2)
	f.assignments.setCourseAssignment(1, &coordinatorID, nil)

	newer := f.seedSubmission(1, 1, models.StatusSubmitted, time.Hour)
	older := f.seedSubmission(1, 1, models.StatusSubmitted, 48*time.Hour)
	f.seedSubmission(1, 1, models.StatusDraft, 0)

	queue, err := f.service(nil).CoordinatorQueue(context.Background(), Identity{UserID: coordinatorID})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, older.ID, queue[0].ID)
	require.Equal(t, newer.ID, queue[1].ID)
}

func TestQueueServiceCoordinatorQueueEmptyWithoutAssignments(t *testing.T) {
	f := newQueueFixture()
	f.seedSubmission(1, 1, models.StatusSubmitted, time.Hour)

	queue, err := f.service(nil).CoordinatorQueue(context.Background(), Identity{UserID: 2})
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestQueueServiceDeputyDeanScope(t *testing.T) {
	f := newQueueFixture()
	f.catalog.addDepartment(2, "ENG")
	f.catalog.addCourse(2, 2, "EE201")
	f.catalog.addCourse(3, 2, "EE301")

	deanID, otherDeanID := uint(3), uint(4)
	// direct course-level appointment
	f.assignments.setCourseAssignment(1, nil, &deanID)
	// course 3 names its own dean, so the faculty fallback must skip it
	f.assignments.setCourseAssignment(3, nil, &otherDeanID)
	f.assignments.setFacultyAssignment(2, &deanID)

	inCourse1 := f.seedSubmission(1, 1, models.StatusCoordinatorApproved, time.Hour)
	inCourse2 := f.seedSubmission(1, 2, models.StatusCoordinatorApproved, 2*time.Hour)
	f.seedSubmission(1, 3, models.StatusCoordinatorApproved, 3*time.Hour)

	queue, err := f.service(nil).DeputyDeanQueue(context.Background(), Identity{UserID: deanID})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, inCourse2.ID, queue[0].ID)
	require.Equal(t, inCourse1.ID, queue[1].ID)
}

func TestQueueServiceDashboardAdminSeesAllNonDraft(t *testing.T) {
	f := newQueueFixture()

	f.seedSubmission(1, 1, models.StatusDraft, 0)
	older := f.seedSubmission(1, 1, models.StatusSubmitted, 2*time.Hour)
	newer := f.seedSubmission(1, 1, models.StatusDeanEndorsed, time.Hour)
	f.seedSubmission(1, 1, models.StatusRejected, 3*time.Hour)

	// an admin with no reviewer assignments still sees the whole history
	dashboard, err := f.service(nil).Dashboard(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, dashboard.Submissions, 3)
	require.Equal(t, 3, dashboard.Counts.Submissions)
	require.Equal(t, newer.ID, dashboard.Submissions[0].ID)
	require.Equal(t, older.ID, dashboard.Submissions[1].ID)
	for _, item := range dashboard.Submissions {
		require.NotEqual(t, models.StatusDraft, item.Status)
	}
}

func TestQueueServiceDashboardCoordinatorSeesCourseHistory(t *testing.T) {
	f := newQueueFixture()
	f.catalog.addCourse(2, 1, "CS102")
	coordinatorID := uint(2)
	f.assignments.setCourseAssignment(1, &coordinatorID, nil)

	f.seedSubmission(1, 1, models.StatusDraft, 0)
	f.seedSubmission(1, 1, models.StatusSubmitted, time.Hour)
	f.seedSubmission(1, 1, models.StatusCoordinatorApproved, 2*time.Hour)
	endorsed := f.seedSubmission(1, 1, models.StatusDeanEndorsed, 3*time.Hour)
	rejected := f.seedSubmission(1, 1, models.StatusRejected, 4*time.Hour)
	// another course stays invisible
	f.seedSubmission(1, 2, models.StatusSubmitted, time.Hour)

	dashboard, err := f.service(nil).Dashboard(context.Background(), Identity{UserID: coordinatorID})
	require.NoError(t, err)
	require.Len(t, dashboard.Submissions, 4)

	ids := map[uint]bool{}
	for _, item := range dashboard.Submissions {
		ids[item.ID] = true
	}
	require.True(t, ids[endorsed.ID])
	require.True(t, ids[rejected.ID])
}

func TestQueueServiceDashboardDeanSeesEndorsedHistory(t *testing.T) {
	f := newQueueFixture()
	deanID := uint(3)
	f.assignments.setCourseAssignment(1, nil, &deanID)

	f.seedSubmission(1, 1, models.StatusSubmitted, time.Hour)
	approved := f.seedSubmission(1, 1, models.StatusCoordinatorApproved, 2*time.Hour)
	endorsed := f.seedSubmission(1, 1, models.StatusDeanEndorsed, 3*time.Hour)

	dashboard, err := f.service(nil).Dashboard(context.Background(), Identity{UserID: deanID})
	require.NoError(t, err)
	require.Len(t, dashboard.Submissions, 2)
	require.Equal(t, approved.ID, dashboard.Submissions[0].ID)
	require.Equal(t, endorsed.ID, dashboard.Submissions[1].ID)
}

func TestQueueServiceDashboardMultiRoleUnion(t *testing.T) {
	f := newQueueFixture()
	f.catalog.addCourse(2, 1, "CS102")
	// user 2 is simultaneously a lecturer, the coordinator of course 1 and
	// the dean of both courses
	userID := uint(2)
	f.assignments.setCourseAssignment(1, &userID, &userID)
	f.assignments.setCourseAssignment(2, nil, &userID)

	f.seedSubmission(userID, 1, models.StatusDraft, 0)
	f.seedSubmission(1, 1, models.StatusSubmitted, time.Hour)
	// matches the coordinator and the dean filters at once, so it must
	// surface exactly once
	f.seedSubmission(1, 1, models.StatusCoordinatorApproved, 2*time.Hour)
	f.seedSubmission(1, 2, models.StatusCoordinatorApproved, 3*time.Hour)
	f.seedSubmission(1, 2, models.StatusSubmitted, 4*time.Hour)

	dashboard, err := f.service(nil).Dashboard(context.Background(), Identity{UserID: userID})
	require.NoError(t, err)
	require.False(t, dashboard.CacheHit)

	// course 1 contributes its full post-draft history, course 2 only the
	// approved-and-beyond slice
	require.Len(t, dashboard.Submissions, 3)
	require.Equal(t, 3, dashboard.Counts.Submissions)
	seen := map[uint]int{}
	for _, item := range dashboard.Submissions {
		seen[item.ID]++
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "submission %d listed more than once", id)
	}

	require.Len(t, dashboard.Mine, 1)
	require.Len(t, dashboard.CoordinatorQueue, 1)
	require.Len(t, dashboard.DeputyDeanQueue, 2)
	require.Equal(t, 1, dashboard.Counts.Mine)
	require.Equal(t, 1, dashboard.Counts.AwaitingApproval)
	require.Equal(t, 2, dashboard.Counts.AwaitingEndorse)
}

func TestQueueServiceDashboardCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	f := newQueueFixture()
	f.seedSubmission(1, 1, models.StatusDraft, 0)

	svc := f.service(redisClient)

	first, err := svc.Dashboard(context.Background(), Identity{UserID: 1})
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, first.Counts.Mine)

	// mutate the repo to prove the second read comes from the cache
	f.seedSubmission(1, 1, models.StatusDraft, 0)

	second, err := svc.Dashboard(context.Background(), Identity{UserID: 1})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, 1, second.Counts.Mine)
}

func TestQueueServiceDashboardInvalidation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	f := newQueueFixture()
	f.seedSubmission(1, 1, models.StatusDraft, 0)

	svc := f.service(redisClient)

	first, err := svc.Dashboard(context.Background(), Identity{UserID: 1})
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, first.Counts.Mine)

	f.seedSubmission(1, 1, models.StatusDraft, 0)
	svc.InvalidateDashboards(context.Background(), 1)

	// the flush forces a fresh read, so the new submission is visible
	// before the TTL runs out
	refreshed, err := svc.Dashboard(context.Background(), Identity{UserID: 1})
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Equal(t, 2, refreshed.Counts.Mine)
}
