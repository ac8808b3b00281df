package transfers

import (
	"context"
	"fmt"

	"orgchart-backend/internal/domain"

	"github.com/google/uuid"
)

const historyPageSize = 50

// HistoryEntry is one transfer with its full audit trail in event order.
type HistoryEntry struct {
	Transfer domain.OwnershipTransfer `json:"transfer"`
	Trail    []domain.TransferAuditLog `json:"audit_trail"`
}

// History iterates an organization's transfers newest first, loading pages on
// demand. It is single-pass: once exhausted it stays exhausted.
//
//	h, err := m.ListHistory(ctx, orgID)
//	for h.Next(ctx) {
//		e := h.Entry()
//	}
//	err = h.Err()
type History struct {
	repo   *Repository
	audit  *AuditWriter
	orgID  uuid.UUID
	cursor *PageCursor
	buf    []HistoryEntry
	cur    HistoryEntry
	done   bool
	err    error
}

// ListHistory returns a lazy iterator over the organization's transfer history.
// It has no side effects.
func (m *Manager) ListHistory(ctx context.Context, orgID uuid.UUID) (*History, error) {
	if _, err := findOrganization(ctx, m.DB, orgID); err != nil {
		return nil, m.fail("list_history", err)
	}
	return &History{repo: m.Transfers, audit: m.Audit, orgID: orgID}, nil
}

// Next advances to the next entry, fetching a page when the buffer is empty.
func (h *History) Next(ctx context.Context) bool {
	if h.err != nil {
		return false
	}
	if len(h.buf) == 0 && !h.done {
		h.fill(ctx)
	}
	if len(h.buf) == 0 {
		return false
	}
	h.cur, h.buf = h.buf[0], h.buf[1:]
	return true
}

// Entry returns the entry Next advanced to.
func (h *History) Entry() HistoryEntry {
	return h.cur
}

// Err returns the first error encountered while paging.
func (h *History) Err() error {
	return h.err
}

func (h *History) fill(ctx context.Context) {
	page, err := h.repo.ListByOrganization(ctx, h.orgID, h.cursor, historyPageSize)
	if err != nil {
		h.err = fmt.Errorf("%w: %v", domain.ErrInternal, err)
		return
	}
	if len(page) < historyPageSize {
		h.done = true
	}
	if len(page) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(page))
	for i, t := range page {
		ids[i] = t.ID
	}
	trails, err := h.audit.TrailsFor(ctx, ids)
	if err != nil {
		h.err = fmt.Errorf("%w: %v", domain.ErrInternal, err)
		return
	}
	for _, t := range page {
		h.buf = append(h.buf, HistoryEntry{Transfer: t, Trail: trails[t.ID]})
	}
	last := page[len(page)-1]
	h.cursor = &PageCursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

// Collect drains the iterator. Convenience for callers that need a slice.
func (h *History) Collect(ctx context.Context) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for h.Next(ctx) {
		out = append(out, h.Entry())
	}
	return out, h.Err()
}
