package policies

import (
	"context"
	"errors"

	"orgchart-backend/internal/application/membership"
	"orgchart-backend/internal/constants"
	"orgchart-backend/internal/domain"
	roles "orgchart-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guard answers "what role does this user hold" and nothing else. Transition
// rules live in the pure Validate* functions below so they can be tested
// without a database.
type Guard struct {
	Members membership.Store
}

// WithTx returns a Guard reading roles inside tx.
func (g *Guard) WithTx(tx *gorm.DB) *Guard {
	return &Guard{Members: g.Members.WithTx(tx)}
}

// RoleOf returns the user's role, or membership.ErrNotAMember.
func (g *Guard) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	return g.Members.GetRole(ctx, orgID, userID)
}

// MemberRole is RoleOf with non-members reported as "".
func (g *Guard) MemberRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	role, err := g.RoleOf(ctx, orgID, userID)
	if errors.Is(err, membership.ErrNotAMember) {
		return "", nil
	}
	return role, err
}

// Authorize checks that userID holds a role granted the permission.
func (g *Guard) Authorize(ctx context.Context, orgID, userID uuid.UUID, permission string) (string, error) {
	role, err := g.RoleOf(ctx, orgID, userID)
	if errors.Is(err, membership.ErrNotAMember) {
		return "", ErrNotOrganizationMember
	}
	if err != nil {
		return "", err
	}
	if !constants.AllowedRole(permission, role) {
		return role, domain.ErrForbidden
	}
	return role, nil
}

// ValidateInitiation checks the initiate preconditions in order: the actor
// must own the organization, then the recipient must be a different, non-owner member.
// recipientRole is "" when the recipient is not a member.
func ValidateInitiation(actorID, recipientID uuid.UUID, actorRole, recipientRole string) error {
	if actorRole != roles.Owner {
		return ErrOnlyOwnerCanInitiate
	}
	if recipientID == actorID {
		return ErrCannotTransferToYourself
	}
	if recipientRole == "" {
		return ErrRecipientNotMember
	}
	if recipientRole == roles.Owner {
		return ErrRecipientAlreadyOwner
	}
	return nil
}

// ValidateResponder checks that actorID may drive the transfer into next.
// Accept and reject belong to the recipient; cancel belongs to the initiator.
func ValidateResponder(t *domain.OwnershipTransfer, actorID uuid.UUID, next domain.TransferStatus) error {
	switch next {
	case domain.TransferAccepted, domain.TransferRejected:
		if actorID != t.RecipientID {
			return ErrOnlyRecipientCanRespond
		}
	case domain.TransferCancelled:
		if actorID != t.InitiatorID {
			return ErrOnlyInitiatorCanCancel
		}
	default:
		return domain.ErrForbidden
	}
	return nil
}
