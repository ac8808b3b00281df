package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the directory tenant. Ownership is not stored here; the owner
// is the single OrganizationMember row with role "owner".
type Organization struct {
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;primaryKey" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "Organizations"
}

// BeforeCreate ensures organization_id is set for DBs without default uuid.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.OrganizationID == uuid.Nil {
		o.OrganizationID = uuid.New()
	}
	return nil
}

// OrganizationMember is one (organization, user, role) row. The composite
// primary key keeps (organization_id, user_id) unique.
type OrganizationMember struct {
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;primaryKey" json:"organization_id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Role           string    `gorm:"column:role;type:varchar(20);not null;index" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (OrganizationMember) TableName() string {
	return "OrganizationMembers"
}
