package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one append-only ledger entry. Entries are never updated or
// deleted individually; retention trimming removes whole entries from the
// oldest end only. ActorID is nil for system-initiated actions.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    *uint             `gorm:"index" json:"actor_id"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null;index" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Details    datatypes.JSONMap `gorm:"type:json" json:"details"`
	CreatedAt  time.Time         `json:"created_at"`
}
