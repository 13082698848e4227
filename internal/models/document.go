package models

import "time"

// QP document taxonomy. QP004 covers final-examination paperwork, QP005 the
// teaching file.
const (
	DocQP004TestSpec       = "QP004_TEST_SPEC"
	DocQP004FinalQuestion  = "QP004_FINAL_QUESTION"
	DocQP004FinalAnswer    = "QP004_FINAL_ANSWER"
	DocQP005Appointment    = "QP005_APPOINTMENT"
	DocQP005Schedule       = "QP005_SCHEDULE"
	DocQP005Syllabus       = "QP005_SYLLABUS"
	DocQP005SOW            = "QP005_SOW"
	DocQP005Assignment     = "QP005_ASSIGNMENT"
	DocQP005Tutorial       = "QP005_TUTORIAL"
	DocQP005Quiz           = "QP005_QUIZ"
	DocQP005MidsemQuestion = "QP005_MIDSEM_QUESTION"
	DocQP005MidsemAnswer   = "QP005_MIDSEM_ANSWER"
	DocQP005AOL            = "QP005_AOL"
)

// DocumentTypes enumerates the full taxonomy in display order.
var DocumentTypes = []string{
	DocQP004TestSpec,
	DocQP004FinalQuestion,
	DocQP004FinalAnswer,
	DocQP005Appointment,
	DocQP005Schedule,
	DocQP005Syllabus,
	DocQP005SOW,
	DocQP005Assignment,
	DocQP005Tutorial,
	DocQP005Quiz,
	DocQP005MidsemQuestion,
	DocQP005MidsemAnswer,
	DocQP005AOL,
}

// ValidDocumentType reports whether t belongs to the taxonomy.
func ValidDocumentType(t string) bool {
	for _, dt := range DocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// SubmissionDocument is one attached document. At most one row exists per
// (submission, document type); re-uploads update the row in place. A row
// either references a stored file or carries NotApplicable, never both.
type SubmissionDocument struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubmissionID  uint      `gorm:"not null;uniqueIndex:idx_submission_doctype" json:"submission_id"`
	DocumentType  string    `gorm:"size:64;not null;uniqueIndex:idx_submission_doctype" json:"document_type"`
	FileName      string    `gorm:"size:255" json:"file_name"`
	FileRef       string    `gorm:"size:512" json:"file_ref"`
	FileSize      int64     `json:"file_size"`
	NotApplicable bool      `gorm:"not null;default:false" json:"not_applicable"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasFile reports whether the document references stored content.
func (d SubmissionDocument) HasFile() bool {
	return !d.NotApplicable && d.FileRef != ""
}
