package service

import "errors"

// Not-found errors. Visibility failures surface the same value as a missing
// row so callers cannot probe for existence.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrAssignmentNotFound = errors.New("role assignment not found")
)

// Invalid-state errors: the transition is not legal from the current status.
var (
	ErrNotEditable   = errors.New("submission cannot be modified at its current status")
	ErrNotDraft      = errors.New("only draft submissions can be submitted")
	ErrNotSubmitted  = errors.New("only submitted submissions can be reviewed")
	ErrNotApproved   = errors.New("only coordinator-approved submissions can be endorsed or rejected")
	ErrDraftOnly     = errors.New("only draft submissions can be deleted")
	ErrNoCoordinator = errors.New("no coordinator is assigned to this course, contact an administrator")
	ErrNoDeputyDean  = errors.New("no deputy dean is assigned to this course, contact an administrator")
)

// ErrForbidden indicates the caller's resolved roles do not permit the action.
var ErrForbidden = errors.New("insufficient role for this action")

// Validation errors.
var (
	ErrReasonRequired      = errors.New("rejection reason is required")
	ErrInvalidPrivilege    = errors.New("invalid privilege")
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrSameReviewer        = errors.New("coordinator and deputy dean cannot be the same person")
	ErrMissingPrivilege    = errors.New("selected user does not hold the required privilege")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// Conflict errors.
var (
	ErrDuplicateCode   = errors.New("code already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrDepartmentInUse = errors.New("department still has courses")
	ErrSelfDelete      = errors.New("you cannot delete yourself")
	ErrTransitionRaced = errors.New("submission was modified concurrently, reload and retry")
)
