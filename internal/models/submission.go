package models

import "time"

// Submission statuses. DRAFT, DEAN_ENDORSED and REJECTED carry no assignee;
// a rejected submission re-enters the cycle only through an explicit edit and
// resubmit by its owner.
const (
	StatusDraft               = "DRAFT"
	StatusSubmitted           = "SUBMITTED"
	StatusCoordinatorApproved = "COORDINATOR_APPROVED"
	StatusDeanEndorsed        = "DEAN_ENDORSED"
	StatusRejected            = "REJECTED"
)

// Submission is a lecturer's course-material bundle moving through the
// two-stage review chain.
type Submission struct {
	ID                    uint                 `gorm:"primaryKey" json:"id"`
	OwnerUserID           uint                 `gorm:"not null;index" json:"owner_user_id"`
	SessionID             uint                 `gorm:"not null" json:"session_id"`
	DepartmentID          uint                 `gorm:"not null" json:"department_id"`
	CourseID              uint                 `gorm:"not null;index" json:"course_id"`
	TypeOfStudy           string               `gorm:"size:64;not null" json:"type_of_study"`
	Status                string               `gorm:"size:32;not null;index" json:"status"`
	CurrentAssigneeID     *uint                `gorm:"index" json:"current_assignee_id"`
	SubmittedAt           *time.Time           `json:"submitted_at"`
	CoordinatorApprovedAt *time.Time           `json:"coordinator_approved_at"`
	DeanEndorsedAt        *time.Time           `json:"dean_endorsed_at"`
	RejectedAt            *time.Time           `json:"rejected_at"`
	RejectionReason       string               `gorm:"type:text" json:"rejection_reason"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
	Documents             []SubmissionDocument `gorm:"constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	Course                Course               `gorm:"constraint:OnUpdate:CASCADE" json:"course"`
	Owner                 User                 `gorm:"foreignKey:OwnerUserID;constraint:OnUpdate:CASCADE" json:"owner"`
}

// IsTerminal reports whether the submission carries no pending reviewer action.
func (s Submission) IsTerminal() bool {
	switch s.Status {
	case StatusDraft, StatusDeanEndorsed, StatusRejected:
		return true
	}
	return false
}

// EditableBy reports whether the owner (or an admin) may still modify the
// submission's metadata and documents.
func (s Submission) EditableBy(admin bool) bool {
	if admin {
		return true
	}
	switch s.Status {
	case StatusDraft, StatusRejected, StatusSubmitted:
		return true
	}
	return false
}
