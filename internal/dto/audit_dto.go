package dto

import (
	"time"

	"github.com/noah-isme/qpflow-api/internal/models"
)

// AuditListRequest filters the ledger query.
type AuditListRequest struct {
	Limit      int    `query:"limit"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
	ActorID    uint   `query:"actor_id"`
}

// AuditLogResponse is one ledger entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    *uint                  `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLogResponse maps a ledger entry into its response shape.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt,
	}
}

// NewAuditLogResponseSlice maps a slice of ledger entries.
func NewAuditLogResponseSlice(entries []models.AuditLog) []AuditLogResponse {
	responses := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewAuditLogResponse(entry))
	}
	return responses
}
