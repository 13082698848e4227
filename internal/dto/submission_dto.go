package dto

import (
	"time"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// SubmissionCreateRequest creates a draft submission.
type SubmissionCreateRequest struct {
	SessionID    uint   `json:"session_id" validate:"required"`
	DepartmentID uint   `json:"department_id" validate:"required"`
	CourseID     uint   `json:"course_id" validate:"required"`
	TypeOfStudy  string `json:"type_of_study" validate:"required"`
}

// SubmissionUpdateRequest replaces the draft metadata.
type SubmissionUpdateRequest struct {
	SessionID    uint   `json:"session_id" validate:"required"`
	DepartmentID uint   `json:"department_id" validate:"required"`
	CourseID     uint   `json:"course_id" validate:"required"`
	TypeOfStudy  string `json:"type_of_study" validate:"required"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// DocumentResponse is one attached document.
type DocumentResponse struct {
	DocumentType  string    `json:"document_type"`
	FileName      string    `json:"file_name,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	NotApplicable bool      `json:"not_applicable"`
	HasFile       bool      `json:"has_file"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewDocumentResponse maps a document model into its response shape.
func NewDocumentResponse(document models.SubmissionDocument) DocumentResponse {
	return DocumentResponse{
		DocumentType:  document.DocumentType,
		FileName:      document.FileName,
		FileSize:      document.FileSize,
		NotApplicable: document.NotApplicable,
		HasFile:       document.HasFile(),
		UpdatedAt:     document.UpdatedAt,
	}
}

// SubmissionResponse is a submission joined with its course, owner and
// documents.
type SubmissionResponse struct {
	ID                    uint               `json:"id"`
	OwnerUserID           uint               `json:"owner_user_id"`
	OwnerName             string             `json:"owner_name"`
	SessionID             uint               `json:"session_id"`
	CourseID              uint               `json:"course_id"`
	CourseCode            string             `json:"course_code"`
	CourseName            string             `json:"course_name"`
	DepartmentCode        string             `json:"department_code"`
	DepartmentName        string             `json:"department_name"`
	TypeOfStudy           string             `json:"type_of_study"`
	Status                string             `json:"status"`
	CurrentAssigneeID     *uint              `json:"current_assignee_id"`
	SubmittedAt           *time.Time         `json:"submitted_at"`
	CoordinatorApprovedAt *time.Time         `json:"coordinator_approved_at"`
	DeanEndorsedAt        *time.Time         `json:"dean_endorsed_at"`
	RejectedAt            *time.Time         `json:"rejected_at"`
	RejectionReason       string             `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	Documents             []DocumentResponse `json:"documents"`
}

// NewSubmissionResponse maps a submission model into its response shape.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	documents := make([]DocumentResponse, 0, len(submission.Documents))
	for _, document := range submission.Documents {
		documents = append(documents, NewDocumentResponse(document))
	}

	return SubmissionResponse{
		ID:                    submission.ID,
		OwnerUserID:           submission.OwnerUserID,
		OwnerName:             submission.Owner.Name,
		SessionID:             submission.SessionID,
		CourseID:              submission.CourseID,
		CourseCode:            submission.Course.Code,
		CourseName:            submission.Course.Name,
		DepartmentCode:        submission.Course.Department.Code,
		DepartmentName:        submission.Course.Department.Name,
		TypeOfStudy:           submission.TypeOfStudy,
		Status:                submission.Status,
		CurrentAssigneeID:     submission.CurrentAssigneeID,
		SubmittedAt:           submission.SubmittedAt,
		CoordinatorApprovedAt: submission.CoordinatorApprovedAt,
		DeanEndorsedAt:        submission.DeanEndorsedAt,
		RejectedAt:            submission.RejectedAt,
		RejectionReason:       submission.RejectionReason,
		CreatedAt:             submission.CreatedAt,
		UpdatedAt:             submission.UpdatedAt,
		Documents:             documents,
	}
}

// NewSubmissionResponseSlice maps a slice of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
