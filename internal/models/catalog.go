package models

import "time"

// Session is an academic session (e.g. "2024/2025-1").
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department is the owning school/department of a course. A department with
// existing courses cannot be deleted.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course is a taught course identified by its unique code.
type Course struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE" json:"department"`
}
