package dto

import (
	"time"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// UserCreateRequest creates a new account.
type UserCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserUpdateRequest updates an account; a blank password leaves it unchanged.
type UserUpdateRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// PrivilegeRequest names a privilege to grant.
type PrivilegeRequest struct {
	Privilege string `json:"privilege" validate:"required"`
}

// SessionRequest creates or updates an academic session.
type SessionRequest struct {
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

// DepartmentRequest creates or updates a department.
type DepartmentRequest struct {
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

// CourseRequest creates or updates a course.
type CourseRequest struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	DepartmentID uint   `json:"department_id" validate:"required"`
	Active       *bool  `json:"active"`
}

// CourseResponse is a course joined with its department.
type CourseResponse struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	DepartmentID   uint      `json:"department_id"`
	DepartmentCode string    `json:"department_code"`
	DepartmentName string    `json:"department_name"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewCourseResponse maps a course model into its response shape.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:             course.ID,
		Code:           course.Code,
		Name:           course.Name,
		DepartmentID:   course.DepartmentID,
		DepartmentCode: course.Department.Code,
		DepartmentName: course.Department.Name,
		Active:         course.Active,
		CreatedAt:      course.CreatedAt,
	}
}

// NewCourseResponseSlice maps a slice of courses.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
