package audit

import (
	"time"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

// EntryDTO is the transport shape of an audit log row.
type EntryDTO struct {
	ID         uint              `json:"id"`
	PharmacyID *uint             `json:"pharmacyId,omitempty"`
	UserID     *uint             `json:"userId,omitempty"`
	Action     enums.AuditAction `json:"action"`
	Entity     string            `json:"entity"`
	EntityID   *uint             `json:"entityId,omitempty"`
	Details    *string           `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	PharmacyID *uint
	Action     *enums.AuditAction
	Entity     *string
	Limit      int
	Offset     int
}

func FromModel(e *models.AuditLog) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:         e.ID,
		PharmacyID: e.PharmacyID,
		UserID:     e.UserID,
		Action:     e.Action,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}
