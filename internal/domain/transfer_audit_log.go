package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransferEventType names one lifecycle event in a transfer's audit trail.
type TransferEventType string

const (
	EventInitiated TransferEventType = "initiated"
	EventAccepted  TransferEventType = "accepted"
	EventRejected  TransferEventType = "rejected"
	EventCancelled TransferEventType = "cancelled"
	EventExpired   TransferEventType = "expired"
)

// SystemActor is recorded as actor_id for expirations.
const SystemActor = "system"

// EventForStatus maps a terminal status to the audit event that records it.
func EventForStatus(s TransferStatus) (TransferEventType, bool) {
	switch s {
	case TransferAccepted:
		return EventAccepted, true
	case TransferRejected:
		return EventRejected, true
	case TransferCancelled:
		return EventCancelled, true
	case TransferExpired:
		return EventExpired, true
	}
	return "", false
}

// TransferAuditLog is append-only: rows are inserted once and never updated or deleted.
// Sequence orders entries within one transfer when timestamps tie.
type TransferAuditLog struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TransferID     uuid.UUID         `gorm:"column:transfer_id;type:uuid;not null;uniqueIndex:idx_transfer_audit_seq,priority:1" json:"transfer_id"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Sequence       int               `gorm:"column:sequence;not null;uniqueIndex:idx_transfer_audit_seq,priority:2" json:"sequence"`
	EventType      TransferEventType `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	ActorID        string            `gorm:"column:actor_id;type:varchar(64);not null" json:"actor_id"`
	Reason         *string           `gorm:"column:reason;type:text" json:"reason"`
	Metadata       datatypes.JSON    `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (TransferAuditLog) TableName() string {
	return "TransferAuditLogs"
}

func (a *TransferAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
