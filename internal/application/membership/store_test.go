package membership

import (
	"context"
	"testing"

	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"
	"orgchart-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*GormStore, *gorm.DB) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return NewGormStore(db), db
}

func TestGetRole(t *testing.T) {
	s, db := setupStore(t)
	orgID, userID := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: constants.Editor}).Error)

	role, err := s.GetRole(context.Background(), orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, constants.Editor, role)

	_, err = s.GetRole(context.Background(), uuid.New(), userID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestSetRole(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	orgID, userID := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: constants.Viewer}).Error)

	require.NoError(t, s.SetRole(ctx, orgID, userID, constants.Owner))
	role, err := s.GetRole(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, constants.Owner, role)

	assert.ErrorIs(t, s.SetRole(ctx, orgID, userID, "superadmin"), ErrInvalidRole)
	assert.ErrorIs(t, s.SetRole(ctx, orgID, uuid.New(), constants.Admin), ErrNotAMember)
}

func TestSetRole_RollsBackWithTransaction(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	orgID, userID := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: constants.Admin}).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, s.WithTx(tx).SetRole(ctx, orgID, userID, constants.Owner))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	role, err := s.GetRole(ctx, orgID, userID)
	require.NoError(t, err)
	assert.Equal(t, constants.Admin, role)
}

func TestOwners(t *testing.T) {
	s, db := setupStore(t)
	orgID := uuid.New()
	owner := uuid.New()
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: owner, Role: constants.Owner}).Error)
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: uuid.New(), Role: constants.Admin}).Error)

	owners, err := s.Owners(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, owner, owners[0].UserID)
}
