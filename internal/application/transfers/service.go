package transfers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orgchart-backend/internal/application/membership"
	"orgchart-backend/internal/application/notifications"
	policies "orgchart-backend/internal/application/policies/transfers"
	"orgchart-backend/internal/application/transfers/metrics"
	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"
	"orgchart-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrOwnershipChanged is returned by Accept when the initiator no longer holds
// the owner role (membership edited outside this workflow).
var ErrOwnershipChanged = &domain.ConflictError{Code: "ownership_changed"}

// Manager is the ownership transfer state machine. Every public operation is a
// single transaction; notifications are dispatched only after commit.
type Manager struct {
	DB            *gorm.DB
	Members       membership.Store
	Guard         *policies.Guard
	Transfers     *Repository
	Audit         *AuditWriter
	Notifications *notifications.Dispatcher
	Metrics       *metrics.Metrics

	// Expiry is the answer window fixed at creation (default 7 days).
	Expiry time.Duration
	// SweepConcurrency bounds parallel sub-transactions in ExpireOverdue.
	SweepConcurrency int
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewManager wires a Manager over db with the GORM-backed stores.
func NewManager(db *gorm.DB, members membership.Store, dispatcher *notifications.Dispatcher, m *metrics.Metrics) *Manager {
	return &Manager{
		DB:               db,
		Members:          members,
		Guard:            &policies.Guard{Members: members},
		Transfers:        &Repository{DB: db},
		Audit:            &AuditWriter{DB: db},
		Notifications:    dispatcher,
		Metrics:          m,
		Expiry:           domain.DefaultTransferExpiry,
		SweepConcurrency: 4,
	}
}

func (m *Manager) now() time.Time {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	// Postgres keeps microseconds; truncating keeps in-memory and stored values equal.
	return now().UTC().Truncate(time.Microsecond)
}

func (m *Manager) expiry() time.Duration {
	if m.Expiry <= 0 {
		return domain.DefaultTransferExpiry
	}
	return m.Expiry
}

// InitiateInput is the payload of Initiate.
type InitiateInput struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	RecipientID    uuid.UUID
	Reason         string
}

// Initiate creates a pending transfer from the current owner to recipient.
func (m *Manager) Initiate(ctx context.Context, in InitiateInput) (*domain.OwnershipTransfer, error) {
	const op = "initiate"
	defer m.Metrics.ObserveOperation(op, time.Now())

	var created, superseded *domain.OwnershipTransfer
	var orgName string
	err := database.RunInTx(ctx, m.DB, func(tx *gorm.DB) error {
		created, superseded = nil, nil
		now := m.now()

		org, err := findOrganization(ctx, tx, in.OrganizationID)
		if err != nil {
			return err
		}
		orgName = org.Name

		guard := m.Guard.WithTx(tx)
		actorRole, err := guard.MemberRole(ctx, in.OrganizationID, in.ActorID)
		if err != nil {
			return err
		}
		recipientRole, err := guard.MemberRole(ctx, in.OrganizationID, in.RecipientID)
		if err != nil {
			return err
		}
		if err := policies.ValidateInitiation(in.ActorID, in.RecipientID, actorRole, recipientRole); err != nil {
			return err
		}

		repo := m.Transfers.WithTx(tx)
		pending, err := repo.FindPending(ctx, in.OrganizationID)
		switch {
		case err == nil && pending.IsOverdue(now):
			// An overdue row stops blocking once it is expired in this transaction.
			if err := m.expireLocked(ctx, tx, pending, now); err != nil {
				if errors.Is(err, ErrStaleTransition) {
					return domain.ErrTransferAlreadyPending
				}
				return err
			}
			superseded = pending
		case err == nil:
			return domain.ErrTransferAlreadyPending
		case !errors.Is(err, ErrTransferNotFound):
			return err
		}

		t := &domain.OwnershipTransfer{
			ID:             uuid.New(),
			OrganizationID: in.OrganizationID,
			InitiatorID:    in.ActorID,
			RecipientID:    in.RecipientID,
			Status:         domain.TransferPending,
			Reason:         strings.TrimSpace(in.Reason),
			CreatedAt:      now,
			ExpiresAt:      now.Add(m.expiry()),
		}
		if err := repo.Create(ctx, t); err != nil {
			if errors.Is(err, ErrPendingTransferExists) {
				return domain.ErrTransferAlreadyPending
			}
			return err
		}

		if _, err := m.Audit.WithTx(tx).Append(ctx, t, AuditEvent{
			Type:    domain.EventInitiated,
			ActorID: in.ActorID.String(),
			Reason:  optional(t.Reason),
			At:      now,
			Metadata: map[string]interface{}{
				"recipient_id":   t.RecipientID.String(),
				"recipient_role": recipientRole,
				"expires_at":     t.ExpiresAt,
			},
		}); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, m.fail(op, err)
	}

	if superseded != nil {
		m.Metrics.IncTransition(string(domain.TransferExpired))
		log.Info().
			Str("transfer_id", superseded.ID.String()).
			Str("organization_id", superseded.OrganizationID.String()).
			Msg("overdue ownership transfer expired on initiate")
	}
	m.Metrics.IncTransition(string(domain.TransferPending))
	log.Info().
		Str("transfer_id", created.ID.String()).
		Str("organization_id", created.OrganizationID.String()).
		Str("actor_id", in.ActorID.String()).
		Msg("ownership transfer initiated")
	m.Notifications.Dispatch(notifications.TransferInitiated, created.RecipientID, messageFor(created, orgName, in.ActorID))
	return created, nil
}

// Accept completes the transfer: the recipient becomes owner and the initiator
// becomes admin in the same transaction as the status change.
func (m *Manager) Accept(ctx context.Context, transferID, actorID uuid.UUID) (*domain.OwnershipTransfer, error) {
	return m.respond(ctx, "accept", transferID, actorID, domain.TransferAccepted, "")
}

// Reject declines the transfer. Roles are untouched.
func (m *Manager) Reject(ctx context.Context, transferID, actorID uuid.UUID, responseReason string) (*domain.OwnershipTransfer, error) {
	return m.respond(ctx, "reject", transferID, actorID, domain.TransferRejected, responseReason)
}

// Cancel withdraws the transfer. Only the initiator may cancel.
func (m *Manager) Cancel(ctx context.Context, transferID, actorID uuid.UUID, responseReason string) (*domain.OwnershipTransfer, error) {
	return m.respond(ctx, "cancel", transferID, actorID, domain.TransferCancelled, responseReason)
}

func (m *Manager) respond(ctx context.Context, op string, transferID, actorID uuid.UUID, next domain.TransferStatus, responseReason string) (*domain.OwnershipTransfer, error) {
	defer m.Metrics.ObserveOperation(op, time.Now())

	var result *domain.OwnershipTransfer
	var orgName string
	var lazilyExpired bool
	err := database.RunInTx(ctx, m.DB, func(tx *gorm.DB) error {
		result, lazilyExpired = nil, false
		now := m.now()
		repo := m.Transfers.WithTx(tx)

		t, err := repo.FindByIDForUpdate(ctx, transferID)
		if errors.Is(err, ErrTransferNotFound) {
			return fmt.Errorf("%w: transfer %s", domain.ErrNotFound, transferID)
		}
		if err != nil {
			return err
		}
		if t.Status != domain.TransferPending {
			return domain.ErrTransferNotPending
		}
		if t.IsOverdue(now) {
			// Commit the expiration; the caller still gets transfer_expired.
			if err := m.expireLocked(ctx, tx, t, now); err != nil {
				return err
			}
			result, lazilyExpired = t, true
			return nil
		}
		if err := policies.ValidateResponder(t, actorID, next); err != nil {
			return err
		}

		org, err := findOrganization(ctx, tx, t.OrganizationID)
		if err != nil {
			return err
		}
		orgName = org.Name

		var reason *string
		if next != domain.TransferAccepted {
			reason = optional(strings.TrimSpace(responseReason))
		}
		if err := repo.Transition(ctx, t, next, now, reason); err != nil {
			if errors.Is(err, ErrStaleTransition) {
				return domain.ErrTransferNotPending
			}
			return err
		}

		metadata := map[string]interface{}{}
		if next == domain.TransferAccepted {
			if err := swapOwner(ctx, m.Guard.WithTx(tx), m.Members.WithTx(tx), t); err != nil {
				return err
			}
			metadata["previous_owner_id"] = t.InitiatorID.String()
			metadata["previous_owner_role"] = constants.Admin
			metadata["new_owner_id"] = t.RecipientID.String()
		}

		event, _ := domain.EventForStatus(next)
		if _, err := m.Audit.WithTx(tx).Append(ctx, t, AuditEvent{
			Type:     event,
			ActorID:  actorID.String(),
			Reason:   reason,
			Metadata: metadata,
			At:       now,
		}); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, m.fail(op, err)
	}
	if lazilyExpired {
		m.Metrics.IncTransition(string(domain.TransferExpired))
		log.Info().
			Str("transfer_id", result.ID.String()).
			Str("actor_id", actorID.String()).
			Msg("ownership transfer expired on late " + op)
		return nil, m.fail(op, domain.ErrTransferExpired)
	}

	m.Metrics.IncTransition(string(next))
	log.Info().
		Str("transfer_id", result.ID.String()).
		Str("organization_id", result.OrganizationID.String()).
		Str("actor_id", actorID.String()).
		Str("status", string(next)).
		Msg("ownership transfer resolved")

	msg := messageFor(result, orgName, actorID)
	switch next {
	case domain.TransferAccepted:
		m.Notifications.Dispatch(notifications.TransferAccepted, result.InitiatorID, msg)
	case domain.TransferRejected:
		m.Notifications.Dispatch(notifications.TransferRejected, result.InitiatorID, msg)
	case domain.TransferCancelled:
		m.Notifications.Dispatch(notifications.TransferCancelled, result.RecipientID, msg)
	}
	return result, nil
}

// swapOwner demotes the initiator to admin and promotes the recipient to owner.
func swapOwner(ctx context.Context, guard *policies.Guard, members membership.Store, t *domain.OwnershipTransfer) error {
	initiatorRole, err := guard.RoleOf(ctx, t.OrganizationID, t.InitiatorID)
	if errors.Is(err, membership.ErrNotAMember) {
		return ErrOwnershipChanged
	}
	if err != nil {
		return err
	}
	if initiatorRole != constants.Owner {
		return ErrOwnershipChanged
	}
	if err := members.SetRole(ctx, t.OrganizationID, t.InitiatorID, constants.Admin); err != nil {
		return err
	}
	if err := members.SetRole(ctx, t.OrganizationID, t.RecipientID, constants.Owner); err != nil {
		if errors.Is(err, membership.ErrNotAMember) {
			return policies.ErrRecipientNotMember
		}
		return err
	}
	return nil
}

// expireLocked transitions a row already read under lock inside tx.
func (m *Manager) expireLocked(ctx context.Context, tx *gorm.DB, t *domain.OwnershipTransfer, now time.Time) error {
	if err := m.Transfers.WithTx(tx).Transition(ctx, t, domain.TransferExpired, now, nil); err != nil {
		return err
	}
	_, err := m.Audit.WithTx(tx).Append(ctx, t, AuditEvent{
		Type:    domain.EventExpired,
		ActorID: domain.SystemActor,
		At:      now,
		Metadata: map[string]interface{}{
			"expires_at": t.ExpiresAt,
		},
	})
	return err
}

// Get returns one transfer.
func (m *Manager) Get(ctx context.Context, transferID uuid.UUID) (*domain.OwnershipTransfer, error) {
	t, err := m.Transfers.FindByID(ctx, transferID)
	if errors.Is(err, ErrTransferNotFound) {
		return nil, fmt.Errorf("%w: transfer %s", domain.ErrNotFound, transferID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	return t, nil
}

// Pending returns the organization's outstanding transfer, or ErrNotFound.
func (m *Manager) Pending(ctx context.Context, orgID uuid.UUID) (*domain.OwnershipTransfer, error) {
	t, err := m.Transfers.FindPending(ctx, orgID)
	if errors.Is(err, ErrTransferNotFound) {
		return nil, fmt.Errorf("%w: no pending transfer", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	return t, nil
}

// fail classifies err for metrics and hides storage errors behind ErrInternal.
func (m *Manager) fail(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		m.Metrics.IncError(op, domain.ConflictCode(err))
		return err
	case errors.Is(err, domain.ErrNotFound):
		m.Metrics.IncError(op, "not_found")
		return err
	case errors.Is(err, domain.ErrForbidden):
		m.Metrics.IncError(op, "forbidden")
		return err
	case errors.Is(err, domain.ErrInvalidRecipient):
		m.Metrics.IncError(op, "invalid_recipient")
		return err
	}
	m.Metrics.IncError(op, "internal")
	log.Error().Err(err).Str("operation", op).Msg("ownership transfer operation failed")
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

func findOrganization(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	if err := tx.WithContext(ctx).Where("organization_id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, orgID)
		}
		return nil, err
	}
	return &org, nil
}

func messageFor(t *domain.OwnershipTransfer, orgName string, actorID uuid.UUID) notifications.Message {
	msg := notifications.Message{
		TransferID:       t.ID,
		OrganizationID:   t.OrganizationID,
		OrganizationName: orgName,
		ActorID:          actorID,
		Reason:           t.Reason,
		ExpiresAt:        t.ExpiresAt,
	}
	if t.ResponseReason != nil {
		msg.Reason = *t.ResponseReason
	}
	return msg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
