package transfers

import (
	"context"
	"sync"
	"testing"
	"time"

	"orgchart-backend/internal/application/membership"
	"orgchart-backend/internal/application/notifications"
	"orgchart-backend/internal/application/transfers/metrics"
	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"
	"orgchart-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentNotification struct {
	Kind notifications.Kind
	To   uuid.UUID
	Msg  notifications.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, kind notifications.Kind, to uuid.UUID, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Kind: kind, To: to, Msg: msg})
	return n.err
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

// testClock is a settable clock shared by the Manager and the test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *gorm.DB
	m        *Manager
	members  *membership.GormStore
	notifier *recordingNotifier
	clock    *testClock
	registry *prometheus.Registry

	orgID  uuid.UUID
	owner  uuid.UUID
	admin  uuid.UUID
	viewer uuid.UUID
	// outsider is a user with no membership in orgID.
	outsider uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		db:       db,
		members:  membership.NewGormStore(db),
		notifier: &recordingNotifier{},
		clock:    &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		registry: prometheus.NewRegistry(),
		orgID:    uuid.New(),
		owner:    uuid.New(),
		admin:    uuid.New(),
		viewer:   uuid.New(),
		outsider: uuid.New(),
	}
	dispatcher := notifications.NewDispatcher(f.notifier)
	f.m = NewManager(db, f.members, dispatcher, metrics.New(f.registry))
	f.m.Now = f.clock.Now
	t.Cleanup(dispatcher.Wait)

	require.NoError(t, db.Create(&domain.Organization{OrganizationID: f.orgID, Name: "Acme"}).Error)
	for id, role := range map[uuid.UUID]string{
		f.owner:  constants.Owner,
		f.admin:  constants.Admin,
		f.viewer: constants.Viewer,
	} {
		require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: f.orgID, UserID: id, Role: role}).Error)
	}
	return f
}

func (f *fixture) initiate(t *testing.T, recipient uuid.UUID) *domain.OwnershipTransfer {
	t.Helper()
	tr, err := f.m.Initiate(context.Background(), InitiateInput{
		OrganizationID: f.orgID,
		ActorID:        f.owner,
		RecipientID:    recipient,
		Reason:         "stepping down",
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) role(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	role, err := f.members.GetRole(context.Background(), f.orgID, userID)
	require.NoError(t, err)
	return role
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *domain.OwnershipTransfer {
	t.Helper()
	tr, err := f.m.Get(context.Background(), id)
	require.NoError(t, err)
	return tr
}

func (f *fixture) trail(t *testing.T, id uuid.UUID) []domain.TransferAuditLog {
	t.Helper()
	entries, err := f.m.Audit.Trail(context.Background(), id)
	require.NoError(t, err)
	return entries
}

// settled waits for dispatched notifications and returns them.
func (f *fixture) settled() []sentNotification {
	f.m.Notifications.Wait()
	return f.notifier.all()
}

// sentOf returns the single notification of kind. Dispatch order is not fixed.
func sentOf(t *testing.T, sent []sentNotification, kind notifications.Kind) sentNotification {
	t.Helper()
	var found []sentNotification
	for _, n := range sent {
		if n.Kind == kind {
			found = append(found, n)
		}
	}
	require.Len(t, found, 1, "notifications of kind %s", kind)
	return found[0]
}

func (f *fixture) requireSingleOwner(t *testing.T, want uuid.UUID) {
	t.Helper()
	owners, err := f.members.Owners(context.Background(), f.orgID)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	require.Equal(t, want, owners[0].UserID)
}

func (f *fixture) requirePendingAtMostOne(t *testing.T) int64 {
	t.Helper()
	n, err := f.m.Transfers.CountPending(context.Background(), f.orgID)
	require.NoError(t, err)
	require.LessOrEqual(t, n, int64(1))
	return n
}
