package dto

import (
	"time"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// CourseAssignmentRequest sets the reviewers for a course. Either reviewer may
// be omitted.
type CourseAssignmentRequest struct {
	CourseID          uint  `json:"course_id" validate:"required"`
	CoordinatorUserID *uint `json:"coordinator_user_id"`
	DeputyDeanUserID  *uint `json:"deputy_dean_user_id"`
}

// FacultyAssignmentRequest sets the fallback deputy dean for a department.
type FacultyAssignmentRequest struct {
	DepartmentID     uint  `json:"department_id" validate:"required"`
	DeputyDeanUserID *uint `json:"deputy_dean_user_id"`
}

// CourseAssignmentResponse is a course assignment joined with names for
// display.
type CourseAssignmentResponse struct {
	ID                uint      `json:"id"`
	CourseID          uint      `json:"course_id"`
	CourseCode        string    `json:"course_code"`
	CourseName        string    `json:"course_name"`
	CoordinatorUserID *uint     `json:"coordinator_user_id"`
	CoordinatorName   string    `json:"coordinator_name,omitempty"`
	DeputyDeanUserID  *uint     `json:"deputy_dean_user_id"`
	DeputyDeanName    string    `json:"deputy_dean_name,omitempty"`
	Active            bool      `json:"active"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewCourseAssignmentResponse maps an assignment; reviewer names are resolved
// by the caller.
func NewCourseAssignmentResponse(assignment models.CourseRoleAssignment, coordinatorName, deputyDeanName string) CourseAssignmentResponse {
	return CourseAssignmentResponse{
		ID:                assignment.ID,
		CourseID:          assignment.CourseID,
		CourseCode:        assignment.Course.Code,
		CourseName:        assignment.Course.Name,
		CoordinatorUserID: assignment.CoordinatorUserID,
		CoordinatorName:   coordinatorName,
		DeputyDeanUserID:  assignment.DeputyDeanUserID,
		DeputyDeanName:    deputyDeanName,
		Active:            assignment.Active,
		UpdatedAt:         assignment.UpdatedAt,
	}
}

// FacultyAssignmentResponse is a faculty assignment joined with names.
type FacultyAssignmentResponse struct {
	ID               uint      `json:"id"`
	DepartmentID     uint      `json:"department_id"`
	DepartmentCode   string    `json:"department_code"`
	DepartmentName   string    `json:"department_name"`
	DeputyDeanUserID *uint     `json:"deputy_dean_user_id"`
	DeputyDeanName   string    `json:"deputy_dean_name,omitempty"`
	Active           bool      `json:"active"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewFacultyAssignmentResponse maps a faculty assignment.
func NewFacultyAssignmentResponse(assignment models.FacultyRoleAssignment, deputyDeanName string) FacultyAssignmentResponse {
	return FacultyAssignmentResponse{
		ID:               assignment.ID,
		DepartmentID:     assignment.DepartmentID,
		DepartmentCode:   assignment.Department.Code,
		DepartmentName:   assignment.Department.Name,
		DeputyDeanUserID: assignment.DeputyDeanUserID,
		DeputyDeanName:   deputyDeanName,
		Active:           assignment.Active,
		UpdatedAt:        assignment.UpdatedAt,
	}
}
