package models

import "time"

// CourseRoleAssignment maps a course to its reviewers. There is at most one
// row per course; superseding an assignment updates this row in place and the
// previous values live on in the audit log.
type CourseRoleAssignment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CourseID          uint      `gorm:"not null;uniqueIndex" json:"course_id"`
	CoordinatorUserID *uint     `gorm:"index" json:"coordinator_user_id"`
	DeputyDeanUserID  *uint     `gorm:"index" json:"deputy_dean_user_id"`
	Active            bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Course            Course    `gorm:"constraint:OnDelete:CASCADE" json:"course"`
}

// FacultyRoleAssignment names a department-level deputy dean. It is consulted
// only when the course-level assignment carries no deputy dean, and never for
// coordinator resolution.
type FacultyRoleAssignment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	DepartmentID     uint       `gorm:"not null;uniqueIndex" json:"department_id"`
	DeputyDeanUserID *uint      `gorm:"index" json:"deputy_dean_user_id"`
	Active           bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Department       Department `gorm:"constraint:OnDelete:CASCADE" json:"department"`
}
