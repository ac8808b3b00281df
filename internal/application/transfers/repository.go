package transfers

import (
	"context"
	"errors"
	"time"

	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage facts returned by Repository; the Manager turns them into domain errors.
var (
	ErrTransferNotFound      = errors.New("Transfer not found")
	ErrPendingTransferExists = errors.New("A pending transfer already exists for this organization")
	ErrStaleTransition       = errors.New("Transfer is no longer pending")
)

// Repository is the only writer of the OwnershipTransfers table.
type Repository struct {
	DB *gorm.DB
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{DB: tx}
}

// Create inserts a pending transfer. The partial unique index turns a racing
// second insert for the same organization into ErrPendingTransferExists.
func (r *Repository) Create(ctx context.Context, t *domain.OwnershipTransfer) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrPendingTransferExists
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.OwnershipTransfer, error) {
	return r.find(r.DB.WithContext(ctx), id)
}

// FindByIDForUpdate reads the row with SELECT ... FOR UPDATE so two concurrent
// responders cannot both observe it pending. SQLite ignores the clause; its
// single writer gives the same guarantee.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.OwnershipTransfer, error) {
	return r.find(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *Repository) find(q *gorm.DB, id uuid.UUID) (*domain.OwnershipTransfer, error) {
	var t domain.OwnershipTransfer
	if err := q.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindPending returns the organization's pending transfer or ErrTransferNotFound.
func (r *Repository) FindPending(ctx context.Context, orgID uuid.UUID) (*domain.OwnershipTransfer, error) {
	var t domain.OwnershipTransfer
	err := r.DB.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, domain.TransferPending).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountPending counts pending rows; healthy data returns 0 or 1.
func (r *Repository) CountPending(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&domain.OwnershipTransfer{}).
		Where("organization_id = ? AND status = ?", orgID, domain.TransferPending).
		Count(&n).Error
	return n, err
}

// Transition moves t from pending to next. The update is conditional on the
// row still being pending, so a stale caller gets ErrStaleTransition instead
// of overwriting a terminal status.
func (r *Repository) Transition(ctx context.Context, t *domain.OwnershipTransfer, next domain.TransferStatus, at time.Time, responseReason *string) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrStaleTransition
	}
	result := r.DB.WithContext(ctx).Model(&domain.OwnershipTransfer{}).
		Where("id = ? AND status = ?", t.ID, domain.TransferPending).
		Updates(map[string]interface{}{
			"status":          next,
			"responded_at":    at,
			"response_reason": responseReason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleTransition
	}
	t.Status = next
	t.RespondedAt = &at
	t.ResponseReason = responseReason
	return nil
}

// ListOverdueIDs returns ids of pending transfers whose expires_at is before now,
// oldest deadline first.
func (r *Repository) ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).Model(&domain.OwnershipTransfer{}).
		Where("status = ? AND expires_at < ?", domain.TransferPending, now).
		Order("expires_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// PageCursor is the keyset position after the last row of a history page.
type PageCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ListByOrganization returns one page of an organization's transfers, newest
// first, strictly after cursor when cursor is non-nil.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, cursor *PageCursor, limit int) ([]domain.OwnershipTransfer, error) {
	q := r.DB.WithContext(ctx).Where("organization_id = ?", orgID)
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var page []domain.OwnershipTransfer
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// CountOverdue counts pending transfers whose deadline has passed.
func (r *Repository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&domain.OwnershipTransfer{}).
		Where("status = ? AND expires_at < ?", domain.TransferPending, now).
		Count(&n).Error
	return n, err
}
