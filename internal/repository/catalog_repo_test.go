package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

func TestCatalogRepositoryLookupByCode(t *testing.T) {
	db := setupTestDB(t, &models.Session{}, &models.Department{}, &models.Course{})
	repo := NewCatalogRepository(db)

	require.NoError(t, repo.CreateSession(context.Background(), &models.Session{Code: "2024/2025-1", Name: "Semester 1", Active: true}))
	require.NoError(t, repo.CreateDepartment(context.Background(), &models.Department{Code: "SOC", Name: "School of Computing", Active: true}))
	require.NoError(t, repo.CreateCourse(context.Background(), &models.Course{Code: "CS101", Name: "Programming", DepartmentID: 1, Active: true}))

	session, err := repo.GetSessionByCode(context.Background(), "2024/2025-1")
	require.NoError(t, err)
	require.Equal(t, "Semester 1", session.Name)

	course, err := repo.GetCourseByCode(context.Background(), "CS101")
	require.NoError(t, err)
	require.Equal(t, "Programming", course.Name)

	_, err = repo.GetDepartmentByCode(context.Background(), "ENG")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCatalogRepositoryCourseDepartmentQueries(t *testing.T) {
	db := setupTestDB(t, &models.Session{}, &models.Department{}, &models.Course{})
	repo := NewCatalogRepository(db)

	require.NoError(t, repo.CreateDepartment(context.Background(), &models.Department{Code: "SOC", Name: "Computing", Active: true}))
	require.NoError(t, repo.CreateDepartment(context.Background(), &models.Department{Code: "ENG", Name: "Engineering", Active: true}))

	require.NoError(t, repo.CreateCourse(context.Background(), &models.Course{Code: "CS101", Name: "Programming", DepartmentID: 1, Active: true}))
	require.NoError(t, repo.CreateCourse(context.Background(), &models.Course{Code: "CS201", Name: "Algorithms", DepartmentID: 1, Active: true}))
	require.NoError(t, repo.CreateCourse(context.Background(), &models.Course{Code: "EE101", Name: "Circuits", DepartmentID: 2, Active: true}))

	count, err := repo.CountCoursesByDepartment(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	ids, err := repo.ListCourseIDsByDepartments(context.Background(), []uint{1})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	ids, err = repo.ListCourseIDsByDepartments(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, ids)

	courses, err := repo.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 3)
	require.Equal(t, "Computing", courses[0].Department.Name)
}
