package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"orgchart-backend/internal/app"
	"orgchart-backend/internal/application/notifications"
	"orgchart-backend/internal/domain"
	"orgchart-backend/internal/infrastructure/database"
	"orgchart-backend/internal/middleware"
	"orgchart-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	mu    sync.Mutex
	kinds []notifications.Kind
}

func (n *countingNotifier) Notify(_ context.Context, kind notifications.Kind, _ uuid.UUID, _ notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}

type testEnv struct {
	app      *fiber.App
	c        *app.Container
	orgID    uuid.UUID
	owner    uuid.UUID
	member   uuid.UUID
	outsider uuid.UUID
}

func setupRouterTest(t *testing.T) *testEnv {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	c := app.Wire(db, rdb, &countingNotifier{})
	t.Cleanup(c.Dispatcher.Wait)

	env := &testEnv{
		app:      NewApp(c, ".orgchart.app"),
		c:        c,
		orgID:    uuid.New(),
		owner:    uuid.New(),
		member:   uuid.New(),
		outsider: uuid.New(),
	}
	require.NoError(t, db.Create(&domain.Organization{OrganizationID: env.orgID, Name: "Acme"}).Error)
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: env.orgID, UserID: env.owner, Role: constants.Owner}).Error)
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: env.orgID, UserID: env.member, Role: constants.Editor}).Error)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, actor uuid.UUID, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != uuid.Nil {
		req.Header.Set(middleware.ActorHeader, actor.String())
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (e *testEnv) initiate(t *testing.T) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/orgs/"+e.orgID.String()+"/ownership-transfers", e.owner,
		map[string]string{"recipient_id": e.member.String(), "reason": "Happy Path Transfer"})
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	return data["id"].(string)
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	details, _ := e["details"].(map[string]interface{})
	code, _ := details["code"].(string)
	return code
}

func TestTransfers_RequireActor(t *testing.T) {
	env := setupRouterTest(t)
	status, _ := env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+uuid.NewString()+"/accept", uuid.Nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orgs/"+env.orgID.String()+"/ownership-transfers", nil)
	req.Header.Set(middleware.ActorHeader, "not-a-uuid")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTransfers_AcceptFlow(t *testing.T) {
	env := setupRouterTest(t)
	id := env.initiate(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/orgs/"+env.orgID.String()+"/ownership-transfers", env.owner,
		map[string]string{"recipient_id": env.member.String()})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "transfer_already_pending", errorCode(body))

	status, _ = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/accept", env.owner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/accept", env.member, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "accepted", body["data"].(map[string]interface{})["status"])

	status, body = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/accept", env.member, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "transfer_not_pending", errorCode(body))

	role, err := env.c.Members.GetRole(context.Background(), env.orgID, env.member)
	require.NoError(t, err)
	assert.Equal(t, constants.Owner, role)
}

func TestTransfers_RejectAndCancelBodies(t *testing.T) {
	env := setupRouterTest(t)
	id := env.initiate(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/reject", env.member,
		map[string]string{"response_reason": "Not interested"})
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "rejected", data["status"])
	assert.Equal(t, "Not interested", data["response_reason"])

	id = env.initiate(t)
	status, body = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/cancel", env.owner, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "cancelled", body["data"].(map[string]interface{})["status"])
}

func TestTransfers_InitiateValidation(t *testing.T) {
	env := setupRouterTest(t)
	path := "/api/v1/orgs/" + env.orgID.String() + "/ownership-transfers"

	status, _ := env.do(t, http.MethodPost, path, env.owner, map[string]string{"recipient_id": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, path, env.owner, map[string]string{"recipient_id": env.outsider.String()})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = env.do(t, http.MethodPost, path, env.member, map[string]string{"recipient_id": env.owner.String()})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/orgs/"+uuid.NewString()+"/ownership-transfers", env.owner,
		map[string]string{"recipient_id": env.member.String()})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+uuid.NewString()+"/accept", env.member, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/bad-id/cancel", env.owner, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestTransfers_BadRequestsShareErrorBody(t *testing.T) {
	env := setupRouterTest(t)
	id := env.initiate(t)
	message := func(body map[string]interface{}) string {
		e, _ := body["error"].(map[string]interface{})
		m, _ := e["message"].(string)
		return m
	}

	status, body := env.do(t, http.MethodPost, "/api/v1/ownership-transfers/bad-id/accept", env.member, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid transfer id", message(body))

	status, body = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/bad-id/reject", env.member, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid transfer id", message(body))

	// a JSON string where an object is expected
	status, body = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/cancel", env.owner, "not an object")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", message(body))

	status, body = env.do(t, http.MethodPost, "/api/v1/orgs/"+env.orgID.String()+"/ownership-transfers", env.owner,
		map[string]string{"recipient_id": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "recipient_id is required", message(body))
}

func TestTransfers_LateAcceptReportsExpired(t *testing.T) {
	env := setupRouterTest(t)
	id := env.initiate(t)
	env.c.Manager.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	status, body := env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/accept", env.member, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "transfer_expired", errorCode(body))

	tr, err := env.c.Manager.Get(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	assert.Equal(t, domain.TransferExpired, tr.Status)
}

func TestTransfers_History(t *testing.T) {
	env := setupRouterTest(t)
	id := env.initiate(t)
	_, _ = env.do(t, http.MethodPost, "/api/v1/ownership-transfers/"+id+"/reject", env.member, nil)
	env.c.Manager.Now = func() time.Time { return time.Now().Add(time.Minute) }
	env.initiate(t)

	path := "/api/v1/orgs/" + env.orgID.String() + "/ownership-transfers"
	status, body := env.do(t, http.MethodGet, path, env.member, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, 2.0, body["metadata"].(map[string]interface{})["count"])
	oldest := entries[1].(map[string]interface{})
	assert.Equal(t, id, oldest["transfer"].(map[string]interface{})["id"])
	assert.Len(t, oldest["audit_trail"], 2)

	status, _ = env.do(t, http.MethodGet, path, env.outsider, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupRouterTest(t)
	env.initiate(t)

	status, body := env.do(t, http.MethodGet, "/health/json", uuid.Nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `orgchart_ownership_transfer_transitions_total{status="pending"} 1`)
}

func TestTracingHeaderEchoed(t *testing.T) {
	env := setupRouterTest(t)
	trace := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health/json", nil)
	req.Header.Set("X-Trace-Id", trace)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, trace, resp.Header.Get("X-Trace-Id"))
}
