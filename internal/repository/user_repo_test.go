package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

func TestUserRepositoryGetByEmail(t *testing.T) {
	db := setupTestDB(t, &models.User{}, &models.UserPrivilege{})
	repo := NewUserRepository(db)

	user := models.User{Name: "Jane", Email: "jane@example.edu", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), &user))

	stored, err := repo.GetByEmail(context.Background(), "jane@example.edu")
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.ID)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.edu")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepositoryPrivilegeLifecycle(t *testing.T) {
	db := setupTestDB(t, &models.User{}, &models.UserPrivilege{})
	repo := NewUserRepository(db)

	user := models.User{Name: "Jane", Email: "jane@example.edu", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), &user))

	require.NoError(t, repo.GrantPrivilege(context.Background(), user.ID, models.PrivilegeCoordinator))
	require.NoError(t, repo.GrantPrivilege(context.Background(), user.ID, models.PrivilegeDeputyDean))

	active, err := repo.ActivePrivileges(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{models.PrivilegeCoordinator, models.PrivilegeDeputyDean}, active)

	// revocation deactivates the grant but keeps the row
	require.NoError(t, repo.RevokePrivilege(context.Background(), user.ID, models.PrivilegeCoordinator))

	ok, err := repo.HasActivePrivilege(context.Background(), user.ID, models.PrivilegeCoordinator)
	require.NoError(t, err)
	require.False(t, ok)

	var rows int64
	require.NoError(t, db.Model(&models.UserPrivilege{}).Where("user_id = ?", user.ID).Count(&rows).Error)
	require.Equal(t, int64(2), rows)

	// re-granting reactivates the existing row rather than duplicating it
	require.NoError(t, repo.GrantPrivilege(context.Background(), user.ID, models.PrivilegeCoordinator))

	ok, err = repo.HasActivePrivilege(context.Background(), user.ID, models.PrivilegeCoordinator)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Model(&models.UserPrivilege{}).Where("user_id = ?", user.ID).Count(&rows).Error)
	require.Equal(t, int64(2), rows)
}

func TestUserRepositoryDeleteRemovesGrants(t *testing.T) {
	db := setupTestDB(t, &models.User{}, &models.UserPrivilege{})
	repo := NewUserRepository(db)

	user := models.User{Name: "Jane", Email: "jane@example.edu", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), &user))
	require.NoError(t, repo.GrantPrivilege(context.Background(), user.ID, models.PrivilegeAdmin))

	require.NoError(t, repo.Delete(context.Background(), user.ID))

	_, err := repo.GetByID(context.Background(), user.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var rows int64
	require.NoError(t, db.Model(&models.UserPrivilege{}).Where("user_id = ?", user.ID).Count(&rows).Error)
	require.Zero(t, rows)
}
