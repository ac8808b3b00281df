package membership

import (
	"context"
	"errors"

	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotAMember  = errors.New("User is not a member of this organization")
	ErrInvalidRole = errors.New("Invalid role")
)

// Store reads and writes member roles. WithTx binds it to a transaction so role
// changes commit or roll back together with the caller's other writes.
type Store interface {
	WithTx(tx *gorm.DB) Store
	GetRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	SetRole(ctx context.Context, orgID, userID uuid.UUID, role string) error
}

// GormStore is the OrganizationMembers table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) WithTx(tx *gorm.DB) Store {
	return &GormStore{DB: tx}
}

// GetRole returns the member's role or ErrNotAMember.
func (s *GormStore) GetRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	var m domain.OrganizationMember
	err := s.DB.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotAMember
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// SetRole overwrites the role of an existing member.
func (s *GormStore) SetRole(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	if !constants.IsValidRole(role) {
		return ErrInvalidRole
	}
	result := s.DB.WithContext(ctx).Model(&domain.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAMember
	}
	return nil
}

// Owners lists the owner rows of an organization. Healthy data has exactly one.
func (s *GormStore) Owners(ctx context.Context, orgID uuid.UUID) ([]domain.OrganizationMember, error) {
	var owners []domain.OrganizationMember
	if err := s.DB.WithContext(ctx).
		Where("organization_id = ? AND role = ?", orgID, constants.Owner).
		Find(&owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}
