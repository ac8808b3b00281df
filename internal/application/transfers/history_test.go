package transfers

import (
	"context"
	"testing"
	"time"

	"orgchart-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHistory_NewestFirstWithTrails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.initiate(t, f.admin)
	_, err := f.m.Reject(ctx, first.ID, f.admin, "Not interested")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second := f.initiate(t, f.viewer)
	_, err = f.m.Cancel(ctx, second.ID, f.owner, "Changed mind")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	third := f.initiate(t, f.admin)

	h, err := f.m.ListHistory(ctx, f.orgID)
	require.NoError(t, err)
	entries, err := h.Collect(ctx)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].Transfer.ID)
	assert.Equal(t, second.ID, entries[1].Transfer.ID)
	assert.Equal(t, first.ID, entries[2].Transfer.ID)

	assert.Equal(t, []domain.TransferEventType{domain.EventInitiated}, eventTypes(entries[0].Trail))
	assert.Equal(t, []domain.TransferEventType{domain.EventInitiated, domain.EventCancelled}, eventTypes(entries[1].Trail))
	assert.Equal(t, []domain.TransferEventType{domain.EventInitiated, domain.EventRejected}, eventTypes(entries[2].Trail))

	// single pass
	assert.False(t, h.Next(ctx))
	assert.NoError(t, h.Err())
}

func TestListHistory_PagesPastOnePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clock.Now().Add(-30 * 24 * time.Hour)

	total := historyPageSize + 7
	for i := 0; i < total; i++ {
		tr := newPending(f.orgID, base.Add(time.Duration(i)*time.Minute))
		tr.Status = domain.TransferCancelled
		require.NoError(t, f.m.Transfers.Create(ctx, tr))
	}
	// two rows sharing a timestamp are ordered by id and neither is skipped
	tie := base.Add(time.Duration(total) * time.Minute)
	for i := 0; i < 2; i++ {
		tr := newPending(f.orgID, tie)
		tr.Status = domain.TransferRejected
		require.NoError(t, f.m.Transfers.Create(ctx, tr))
	}

	h, err := f.m.ListHistory(ctx, f.orgID)
	require.NoError(t, err)

	seen := map[uuid.UUID]bool{}
	var prev *domain.OwnershipTransfer
	for h.Next(ctx) {
		tr := h.Entry().Transfer
		assert.False(t, seen[tr.ID], "duplicate %s", tr.ID)
		seen[tr.ID] = true
		if prev != nil {
			assert.False(t, tr.CreatedAt.After(prev.CreatedAt), "not newest first")
		}
		prev = &tr
	}
	require.NoError(t, h.Err())
	assert.Len(t, seen, total+2)
}

func TestListHistory_UnknownOrganization(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.ListHistory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListHistory_EmptyOrganization(t *testing.T) {
	f := newFixture(t)
	h, err := f.m.ListHistory(context.Background(), f.orgID)
	require.NoError(t, err)
	entries, err := h.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
