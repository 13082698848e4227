package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeSubmissionRepo struct {
	nextID uint
	items  map[uint]models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{items: map[uint]models.Submission{}}
}

func (r *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	courses := map[uint]struct{}{}
	for _, id := range filter.CourseIDs {
		courses[id] = struct{}{}
	}
	statuses := map[string]struct{}{}
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}

	var result []models.Submission
	for _, item := range r.items {
		if filter.OwnerUserID != nil && item.OwnerUserID != *filter.OwnerUserID {
			continue
		}
		if len(courses) > 0 {
			if _, ok := courses[item.CourseID]; !ok {
				continue
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[item.Status]; !ok {
				continue
			}
		}
		result = append(result, item)
	}

	switch filter.OrderBy {
	case "submitted_at ASC":
		sort.Slice(result, func(i, j int) bool {
			return timeValue(result[i].SubmittedAt).Before(timeValue(result[j].SubmittedAt))
		})
	case "coordinator_approved_at ASC":
		sort.Slice(result, func(i, j int) bool {
			return timeValue(result[i].CoordinatorApprovedAt).Before(timeValue(result[j].CoordinatorApprovedAt))
		})
	case "created_at DESC":
		sort.Slice(result, func(i, j int) bool {
			if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
				return result[i].CreatedAt.After(result[j].CreatedAt)
			}
			return result[i].ID > result[j].ID
		})
	default:
		sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	}
	return result, nil
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	item, ok := r.items[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	r.nextID++
	submission.ID = r.nextID
	r.items[submission.ID] = *submission
	return nil
}

func (r *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	r.items[submission.ID] = *submission
	return nil
}

func (r *fakeSubmissionRepo) Delete(ctx context.Context, id uint) error {
	delete(r.items, id)
	return nil
}

func (r *fakeSubmissionRepo) UpdateStatusIf(ctx context.Context, id uint, expectedStatus string, updates map[string]interface{}) (int64, error) {
	item, ok := r.items[id]
	if !ok || item.Status != expectedStatus {
		return 0, nil
	}
	for column, value := range updates {
		switch column {
		case "status":
			item.Status = value.(string)
		case "current_assignee_id":
			if value == nil {
				item.CurrentAssigneeID = nil
			} else {
				v := value.(uint)
				item.CurrentAssigneeID = &v
			}
		case "submitted_at":
			t := value.(time.Time)
			item.SubmittedAt = &t
		case "coordinator_approved_at":
			t := value.(time.Time)
			item.CoordinatorApprovedAt = &t
		case "dean_endorsed_at":
			t := value.(time.Time)
			item.DeanEndorsedAt = &t
		case "rejected_at":
			t := value.(time.Time)
			item.RejectedAt = &t
		case "rejection_reason":
			item.RejectionReason = value.(string)
		}
	}
	r.items[id] = item
	return 1, nil
}

type documentKey struct {
	submissionID uint
	documentType string
}

type fakeDocumentRepo struct {
	nextID uint
	items  map[documentKey]models.SubmissionDocument
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{items: map[documentKey]models.SubmissionDocument{}}
}

func (r *fakeDocumentRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionDocument, error) {
	var result []models.SubmissionDocument
	for key, item := range r.items {
		if key.submissionID == submissionID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocumentType < result[j].DocumentType })
	return result, nil
}

func (r *fakeDocumentRepo) GetBySubmissionAndType(ctx context.Context, submissionID uint, documentType string) (models.SubmissionDocument, error) {
	item, ok := r.items[documentKey{submissionID, documentType}]
	if !ok {
		return models.SubmissionDocument{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeDocumentRepo) Upsert(ctx context.Context, document *models.SubmissionDocument) error {
	key := documentKey{document.SubmissionID, document.DocumentType}
	if existing, ok := r.items[key]; ok {
		document.ID = existing.ID
	} else {
		r.nextID++
		document.ID = r.nextID
	}
	document.UpdatedAt = time.Now()
	r.items[key] = *document
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, submissionID uint, documentType string) error {
	delete(r.items, documentKey{submissionID, documentType})
	return nil
}

type fakeCatalogRepo struct {
	nextID      uint
	sessions    map[uint]models.Session
	departments map[uint]models.Department
	courses     map[uint]models.Course
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		sessions:    map[uint]models.Session{},
		departments: map[uint]models.Department{},
		courses:     map[uint]models.Course{},
	}
}

func (r *fakeCatalogRepo) ListSessions(ctx context.Context) ([]models.Session, error) {
	var result []models.Session
	for _, item := range r.sessions {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeCatalogRepo) GetSession(ctx context.Context, id uint) (models.Session, error) {
	item, ok := r.sessions[id]
	if !ok {
		return models.Session{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeCatalogRepo) GetSessionByCode(ctx context.Context, code string) (models.Session, error) {
	for _, item := range r.sessions {
		if item.Code == code {
			return item, nil
		}
	}
	return models.Session{}, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) CreateSession(ctx context.Context, session *models.Session) error {
	r.nextID++
	session.ID = r.nextID
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeCatalogRepo) UpdateSession(ctx context.Context, session *models.Session) error {
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeCatalogRepo) DeleteSession(ctx context.Context, id uint) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeCatalogRepo) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var result []models.Department
	for _, item := range r.departments {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeCatalogRepo) GetDepartment(ctx context.Context, id uint) (models.Department, error) {
	item, ok := r.departments[id]
	if !ok {
		return models.Department{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeCatalogRepo) GetDepartmentByCode(ctx context.Context, code string) (models.Department, error) {
	for _, item := range r.departments {
		if item.Code == code {
			return item, nil
		}
	}
	return models.Department{}, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) CreateDepartment(ctx context.Context, department *models.Department) error {
	r.nextID++
	department.ID = r.nextID
	r.departments[department.ID] = *department
	return nil
}

func (r *fakeCatalogRepo) UpdateDepartment(ctx context.Context, department *models.Department) error {
	r.departments[department.ID] = *department
	return nil
}

func (r *fakeCatalogRepo) DeleteDepartment(ctx context.Context, id uint) error {
	delete(r.departments, id)
	return nil
}

func (r *fakeCatalogRepo) CountCoursesByDepartment(ctx context.Context, departmentID uint) (int64, error) {
	var count int64
	for _, item := range r.courses {
		if item.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCatalogRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	var result []models.Course
	for _, item := range r.courses {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeCatalogRepo) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	item, ok := r.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeCatalogRepo) GetCourseByCode(ctx context.Context, code string) (models.Course, error) {
	for _, item := range r.courses {
		if item.Code == code {
			return item, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	r.nextID++
	course.ID = r.nextID
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCatalogRepo) UpdateCourse(ctx context.Context, course *models.Course) error {
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCatalogRepo) DeleteCourse(ctx context.Context, id uint) error {
	delete(r.courses, id)
	return nil
}

func (r *fakeCatalogRepo) ListCourseIDsByDepartments(ctx context.Context, departmentIDs []uint) ([]uint, error) {
	wanted := map[uint]struct{}{}
	for _, id := range departmentIDs {
		wanted[id] = struct{}{}
	}
	var ids []uint
	for _, item := range r.courses {
		if _, ok := wanted[item.DepartmentID]; ok {
			ids = append(ids, item.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeCatalogRepo) addSession(id uint, code string) {
	r.sessions[id] = models.Session{ID: id, Code: code, Name: code, Active: true}
	if id > r.nextID {
		r.nextID = id
	}
}

func (r *fakeCatalogRepo) addDepartment(id uint, code string) {
	r.departments[id] = models.Department{ID: id, Code: code, Name: code, Active: true}
	if id > r.nextID {
		r.nextID = id
	}
}

func (r *fakeCatalogRepo) addCourse(id, departmentID uint, code string) {
	r.courses[id] = models.Course{ID: id, Code: code, Name: code, DepartmentID: departmentID, Active: true}
	if id > r.nextID {
		r.nextID = id
	}
}

type fakeAssignmentRepo struct {
	nextID  uint
	courses map[uint]models.CourseRoleAssignment
	faculty map[uint]models.FacultyRoleAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		courses: map[uint]models.CourseRoleAssignment{},
		faculty: map[uint]models.FacultyRoleAssignment{},
	}
}

func (r *fakeAssignmentRepo) List(ctx context.Context) ([]models.CourseRoleAssignment, error) {
	var result []models.CourseRoleAssignment
	for _, item := range r.courses {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID < result[j].CourseID })
	return result, nil
}

func (r *fakeAssignmentRepo) GetByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error) {
	item, ok := r.courses[courseID]
	if !ok {
		return models.CourseRoleAssignment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAssignmentRepo) GetActiveByCourse(ctx context.Context, courseID uint) (models.CourseRoleAssignment, error) {
	item, ok := r.courses[courseID]
	if !ok || !item.Active {
		return models.CourseRoleAssignment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAssignmentRepo) Upsert(ctx context.Context, assignment *models.CourseRoleAssignment) error {
	if existing, ok := r.courses[assignment.CourseID]; ok {
		assignment.ID = existing.ID
	} else {
		r.nextID++
		assignment.ID = r.nextID
	}
	assignment.Active = true
	r.courses[assignment.CourseID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) SetActive(ctx context.Context, courseID uint, active bool) error {
	if item, ok := r.courses[courseID]; ok {
		item.Active = active
		r.courses[courseID] = item
	}
	return nil
}

func (r *fakeAssignmentRepo) DeleteByCourse(ctx context.Context, courseID uint) error {
	delete(r.courses, courseID)
	return nil
}

func (r *fakeAssignmentRepo) ListCourseIDsByCoordinator(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, item := range r.courses {
		if item.Active && item.CoordinatorUserID != nil && *item.CoordinatorUserID == userID {
			ids = append(ids, item.CourseID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeAssignmentRepo) ListCourseIDsByDeputyDean(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, item := range r.courses {
		if item.Active && item.DeputyDeanUserID != nil && *item.DeputyDeanUserID == userID {
			ids = append(ids, item.CourseID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeAssignmentRepo) ListActiveByCourseIDs(ctx context.Context, courseIDs []uint) (map[uint]models.CourseRoleAssignment, error) {
	result := map[uint]models.CourseRoleAssignment{}
	for _, id := range courseIDs {
		if item, ok := r.courses[id]; ok && item.Active {
			result[id] = item
		}
	}
	return result, nil
}

func (r *fakeAssignmentRepo) ListFaculty(ctx context.Context) ([]models.FacultyRoleAssignment, error) {
	var result []models.FacultyRoleAssignment
	for _, item := range r.faculty {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepartmentID < result[j].DepartmentID })
	return result, nil
}

func (r *fakeAssignmentRepo) GetFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error) {
	item, ok := r.faculty[departmentID]
	if !ok {
		return models.FacultyRoleAssignment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAssignmentRepo) GetActiveFacultyByDepartment(ctx context.Context, departmentID uint) (models.FacultyRoleAssignment, error) {
	item, ok := r.faculty[departmentID]
	if !ok || !item.Active {
		return models.FacultyRoleAssignment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeAssignmentRepo) UpsertFaculty(ctx context.Context, assignment *models.FacultyRoleAssignment) error {
	if existing, ok := r.faculty[assignment.DepartmentID]; ok {
		assignment.ID = existing.ID
	} else {
		r.nextID++
		assignment.ID = r.nextID
	}
	assignment.Active = true
	r.faculty[assignment.DepartmentID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) SetFacultyActive(ctx context.Context, departmentID uint, active bool) error {
	if item, ok := r.faculty[departmentID]; ok {
		item.Active = active
		r.faculty[departmentID] = item
	}
	return nil
}

func (r *fakeAssignmentRepo) DeleteFacultyByDepartment(ctx context.Context, departmentID uint) error {
	delete(r.faculty, departmentID)
	return nil
}

func (r *fakeAssignmentRepo) ListDepartmentIDsByFacultyDean(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, item := range r.faculty {
		if item.Active && item.DeputyDeanUserID != nil && *item.DeputyDeanUserID == userID {
			ids = append(ids, item.DepartmentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeAssignmentRepo) setCourseAssignment(courseID uint, coordinatorID, deputyDeanID *uint) {
	r.nextID++
	r.courses[courseID] = models.CourseRoleAssignment{
		ID:                r.nextID,
		CourseID:          courseID,
		CoordinatorUserID: coordinatorID,
		DeputyDeanUserID:  deputyDeanID,
		Active:            true,
	}
}

func (r *fakeAssignmentRepo) setFacultyAssignment(departmentID uint, deputyDeanID *uint) {
	r.nextID++
	r.faculty[departmentID] = models.FacultyRoleAssignment{
		ID:               r.nextID,
		DepartmentID:     departmentID,
		DeputyDeanUserID: deputyDeanID,
		Active:           true,
	}
}

type fakeUserRepo struct {
	nextID uint
	users  map[uint]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]models.User{}}
}

func (r *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	var result []models.User
	for _, item := range r.users {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	item, ok := r.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, item := range r.users {
		if item.Email == email {
			return item, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GrantPrivilege(ctx context.Context, userID uint, privilege string) error {
	user, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i, grant := range user.Privileges {
		if grant.Privilege == privilege {
			user.Privileges[i].Active = true
			r.users[userID] = user
			return nil
		}
	}
	user.Privileges = append(user.Privileges, models.UserPrivilege{UserID: userID, Privilege: privilege, Active: true})
	r.users[userID] = user
	return nil
}

func (r *fakeUserRepo) RevokePrivilege(ctx context.Context, userID uint, privilege string) error {
	user, ok := r.users[userID]
	if !ok {
		return nil
	}
	for i, grant := range user.Privileges {
		if grant.Privilege == privilege {
			user.Privileges[i].Active = false
		}
	}
	r.users[userID] = user
	return nil
}

func (r *fakeUserRepo) HasActivePrivilege(ctx context.Context, userID uint, privilege string) (bool, error) {
	user, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	return user.HasPrivilege(privilege), nil
}

func (r *fakeUserRepo) ActivePrivileges(ctx context.Context, userID uint) ([]string, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return user.ActivePrivileges(), nil
}

func (r *fakeUserRepo) addUser(id uint, name string, privileges ...string) {
	user := models.User{ID: id, Name: name, Email: fmt.Sprintf("%s@example.edu", name)}
	for _, privilege := range privileges {
		user.Privileges = append(user.Privileges, models.UserPrivilege{UserID: id, Privilege: privilege, Active: true})
	}
	r.users[id] = user
	if id > r.nextID {
		r.nextID = id
	}
}

type auditRecorderStub struct {
	entries []AuditEntry
}

func (a *auditRecorderStub) Record(ctx context.Context, entry AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *auditRecorderStub) lastAction() string {
	if len(a.entries) == 0 {
		return ""
	}
	return a.entries[len(a.entries)-1].Action
}

type dashboardInvalidatorStub struct {
	flushed [][]uint
}

func (d *dashboardInvalidatorStub) InvalidateDashboards(ctx context.Context, userIDs ...uint) {
	d.flushed = append(d.flushed, userIDs)
}

func (d *dashboardInvalidatorStub) lastFlush() []uint {
	if len(d.flushed) == 0 {
		return nil
	}
	return d.flushed[len(d.flushed)-1]
}

type fakeFileStore struct {
	files map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (s *fakeFileStore) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.files[name] = content
	return name, nil
}

func (s *fakeFileStore) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	content, ok := s.files[ref]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", ref)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *fakeFileStore) Remove(ctx context.Context, ref string) error {
	delete(s.files, ref)
	return nil
}
