package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// UserRepository defines data operations for users and privilege grants.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	GrantPrivilege(ctx context.Context, userID uint, privilege string) error
	RevokePrivilege(ctx context.Context, userID uint, privilege string) error
	HasActivePrivilege(ctx context.Context, userID uint, privilege string) (bool, error)
	ActivePrivileges(ctx context.Context, userID uint) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).Preload("Privileges")
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.baseQuery(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.baseQuery(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select(clause.Associations).Delete(&models.User{ID: id}).Error
}

// GrantPrivilege upserts the grant row, reactivating a previously revoked one.
func (r *userRepository) GrantPrivilege(ctx context.Context, userID uint, privilege string) error {
	grant := models.UserPrivilege{UserID: userID, Privilege: privilege, Active: true}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "privilege"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"active": true}),
	}).Create(&grant).Error
}

// RevokePrivilege deactivates the grant. The row is kept for history.
func (r *userRepository) RevokePrivilege(ctx context.Context, userID uint, privilege string) error {
	return r.db.WithContext(ctx).Model(&models.UserPrivilege{}).
		Where("user_id = ? AND privilege = ?", userID, privilege).
		Update("active", false).Error
}

func (r *userRepository) HasActivePrivilege(ctx context.Context, userID uint, privilege string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPrivilege{}).
		Where("user_id = ? AND privilege = ? AND active = ?", userID, privilege, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) ActivePrivileges(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.UserPrivilege{}).
		Where("user_id = ? AND active = ?", userID, true).
		Order("privilege").
		Pluck("privilege", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
