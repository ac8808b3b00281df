package transfers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// errNoLongerOverdue marks a row that was resolved between listing and locking.
var errNoLongerOverdue = errors.New("transfer no longer overdue")

// ExpireOverdue expires every pending transfer with expires_at before now.
// Each row gets its own transaction so one failure does not block the rest;
// the returned count covers successful expirations only. Rows already
// terminal are skipped, so a second run over the same data returns 0.
func (m *Manager) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	const op = "expire_overdue"
	defer m.Metrics.ObserveOperation(op, time.Now())

	now = now.UTC().Truncate(time.Microsecond)
	ids, err := m.Transfers.ListOverdueIDs(ctx, now)
	if err != nil {
		return 0, m.fail(op, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var expired, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	limit := m.SweepConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			err := m.expireOne(gctx, id, now)
			switch {
			case err == nil:
				expired.Add(1)
			case errors.Is(err, errNoLongerOverdue):
			default:
				failed.Add(1)
				log.Error().Err(err).Str("transfer_id", id.String()).Msg("failed to expire overdue ownership transfer")
			}
			return nil
		})
	}
	_ = g.Wait()

	n, f := int(expired.Load()), int(failed.Load())
	m.Metrics.AddSweep(n, f)
	log.Info().Int("expired", n).Int("failed", f).Int("overdue", len(ids)).Msg("ownership transfer expiration sweep finished")
	if f > 0 {
		return n, fmt.Errorf("%w: %d of %d overdue transfers failed to expire", domain.ErrInternal, f, len(ids))
	}
	return n, nil
}

func (m *Manager) expireOne(ctx context.Context, id uuid.UUID, now time.Time) error {
	return database.RunInTx(ctx, m.DB, func(tx *gorm.DB) error {
		t, err := m.Transfers.WithTx(tx).FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !t.IsOverdue(now) {
			return errNoLongerOverdue
		}
		if err := m.expireLocked(ctx, tx, t, now); err != nil {
			if errors.Is(err, ErrStaleTransition) {
				return errNoLongerOverdue
			}
			return err
		}
		return nil
	})
}
