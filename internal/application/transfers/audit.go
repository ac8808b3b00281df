package transfers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"orgchart-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAuditTrailClosed is returned when an event would break the trail shape:
// exactly one "initiated" entry first, then at most one terminal entry.
var ErrAuditTrailClosed = errors.New("audit trail does not accept this event")

// AuditWriter is the only writer of the TransferAuditLogs table. It inserts
// and reads; there is no update or delete path.
type AuditWriter struct {
	DB *gorm.DB
}

func (w *AuditWriter) WithTx(tx *gorm.DB) *AuditWriter {
	return &AuditWriter{DB: tx}
}

// AuditEvent is one entry to append.
type AuditEvent struct {
	Type     domain.TransferEventType
	ActorID  string
	Reason   *string
	Metadata map[string]interface{}
	At       time.Time
}

// Append writes ev as the next entry of t's trail.
func (w *AuditWriter) Append(ctx context.Context, t *domain.OwnershipTransfer, ev AuditEvent) (*domain.TransferAuditLog, error) {
	var last int
	if err := w.DB.WithContext(ctx).Model(&domain.TransferAuditLog{}).
		Where("transfer_id = ?", t.ID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return nil, err
	}
	// Sequence 1 is always "initiated" and sequence 2 the single terminal event.
	if (ev.Type == domain.EventInitiated) != (last == 0) || last >= 2 {
		return nil, ErrAuditTrailClosed
	}

	entry := &domain.TransferAuditLog{
		TransferID:     t.ID,
		OrganizationID: t.OrganizationID,
		Sequence:       last + 1,
		EventType:      ev.Type,
		ActorID:        ev.ActorID,
		Reason:         ev.Reason,
		CreatedAt:      ev.At,
	}
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return nil, err
		}
		entry.Metadata = datatypes.JSON(b)
	}
	if err := w.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Trail returns one transfer's entries in event order.
func (w *AuditWriter) Trail(ctx context.Context, transferID uuid.UUID) ([]domain.TransferAuditLog, error) {
	var entries []domain.TransferAuditLog
	if err := w.DB.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("created_at ASC").Order("sequence ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// TrailsFor loads the trails of several transfers in one query.
func (w *AuditWriter) TrailsFor(ctx context.Context, transferIDs []uuid.UUID) (map[uuid.UUID][]domain.TransferAuditLog, error) {
	out := make(map[uuid.UUID][]domain.TransferAuditLog, len(transferIDs))
	if len(transferIDs) == 0 {
		return out, nil
	}
	var entries []domain.TransferAuditLog
	if err := w.DB.WithContext(ctx).
		Where("transfer_id IN ?", transferIDs).
		Order("created_at ASC").Order("sequence ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		out[e.TransferID] = append(out[e.TransferID], e)
	}
	return out, nil
}
