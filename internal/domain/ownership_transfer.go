package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferStatus is the lifecycle state of an OwnershipTransfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferAccepted  TransferStatus = "accepted"
	TransferRejected  TransferStatus = "rejected"
	TransferCancelled TransferStatus = "cancelled"
	TransferExpired   TransferStatus = "expired"
)

// transferTransitions is the complete transition table. Statuses missing from
// the map are terminal.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending: {TransferAccepted, TransferRejected, TransferCancelled, TransferExpired},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

// DefaultTransferExpiry is the answer window fixed at creation.
const DefaultTransferExpiry = 7 * 24 * time.Hour

// OwnershipTransfer is a request from the current owner to hand the organization
// to another member. Rows are never deleted.
//
// The partial unique index allows at most one pending row per organization; a
// second concurrent insert fails at the storage layer.
type OwnershipTransfer struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"column:organization_id;type:uuid;not null;index;uniqueIndex:idx_ownership_transfers_one_pending,where:status = 'pending'" json:"organization_id"`
	InitiatorID    uuid.UUID      `gorm:"column:initiator_id;type:uuid;not null" json:"initiator_id"`
	RecipientID    uuid.UUID      `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	Status         TransferStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	Reason         string         `gorm:"column:reason;type:text" json:"reason"`
	ResponseReason *string        `gorm:"column:response_reason;type:text" json:"response_reason"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
	RespondedAt    *time.Time     `gorm:"column:responded_at" json:"responded_at"`
	ExpiresAt      time.Time      `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (OwnershipTransfer) TableName() string {
	return "OwnershipTransfers"
}

func (t *OwnershipTransfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsOverdue is the single expiration predicate shared by the lazy path and the sweep.
func (t *OwnershipTransfer) IsOverdue(now time.Time) bool {
	return t.Status == TransferPending && now.After(t.ExpiresAt)
}
