package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// AuditLogFilter narrows audit log queries.
type AuditLogFilter struct {
	Limit      int
	ActorID    *uint
	Action     string
	EntityType string
}

// AuditLogRepository persists the append-only ledger. There is deliberately no
// update or per-entry delete operation.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, error)
	Count(ctx context.Context) (int64, error)
	// TrimOldest deletes entries beyond the newest keep, always from the
	// oldest end so the remaining order is untouched.
	TrimOldest(ctx context.Context, keep int) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.AuditLog
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *auditLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&count).Error
	return count, err
}

func (r *auditLogRepository) TrimOldest(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	// IDs are monotonic, so the boundary is the id of the keep-th newest entry.
	var boundary models.AuditLog
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Order("id DESC").
		Offset(keep - 1).
		First(&boundary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}

	result := r.db.WithContext(ctx).
		Where("id < ?", boundary.ID).
		Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
