package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/account"
	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/inventory"
	"github.com/erazemk/kristalball/internal/metrics"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	accounts *account.Service
	admin    model.Principal
	token    string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	m := metrics.New(prometheus.NewRegistry())
	accounts := account.New(database, m, testJWTSecret, time.Hour)

	router := NewRouter(Options{
		DB:             database,
		Inventory:      inventory.New(database, m),
		Accounts:       accounts,
		Metrics:        m,
		Logger:         zerolog.Nop(),
		JWTSecret:      testJWTSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	admin, err := accounts.Bootstrap(context.Background(), "admin", "password")
	require.NoError(t, err)

	ts := &testServer{
		Server:   server,
		accounts: accounts,
		admin:    model.Principal{ID: admin.ID, Username: admin.Username, Role: admin.Role},
	}
	ts.token = ts.login(t, "admin", "password")
	return ts
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess struct {
		Token string `json:"token"`
	}
	decode(t, resp, &sess)
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func errorOf(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decode(t, resp, &body)
	return errorBody{Error: body.Error, Details: body.Details}
}

func auditEntries(t *testing.T, ts *testServer) int {
	t.Helper()
	resp := ts.do(t, http.MethodGet, "/api/audit", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []model.AuditEntry
	decode(t, resp, &entries)
	return len(entries)
}

func TestRegisterEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "pw1234",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, resp, &sess)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, model.RoleUser, sess.User.Role)

	resp = ts.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "pw1234",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "username already exists", errorOf(t, resp).Error)

	resp = ts.do(t, http.MethodGet, "/profile", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile model.User
	decode(t, resp, &profile)
	assert.Equal(t, "alice", profile.Username)
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	before := auditEntries(t, ts)

	resp := ts.do(t, http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", errorOf(t, resp).Error)

	assert.Equal(t, before, auditEntries(t, ts))
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/assets", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid token", errorOf(t, resp).Error)
}

func TestValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/bases", ts.token, map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := errorOf(t, resp)
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, map[string]string{"name": "is required", "location": "is required"}, body.Details)

	resp = ts.do(t, http.MethodPost, "/api/bases", ts.token, map[string]string{"name": "A", "location": "B", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/assets/abc", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/assets/42", ts.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "asset not found", errorOf(t, resp).Error)
}

func TestTransferFlow(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	var alpha, bravo model.Base
	resp := ts.do(t, http.MethodPost, "/api/bases", ts.token, map[string]string{"name": "Alpha", "location": "North"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &alpha)
	resp = ts.do(t, http.MethodPost, "/api/bases", ts.token, map[string]string{"name": "Bravo", "location": "South"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &bravo)

	var rifle model.AssetType
	resp = ts.do(t, http.MethodPost, "/api/asset-types", ts.token, map[string]string{"name": "Rifle", "category": "weapon"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &rifle)

	var asset model.Asset
	resp = ts.do(t, http.MethodPost, "/api/assets", ts.token, map[string]any{
		"asset_type_id": rifle.ID, "model_name": "M4", "serial_number": "RIF100", "base_id": alpha.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &asset)

	_, err := ts.accounts.CreateUser(ctx, ts.admin, account.UserInput{
		Username: "cmdr", Password: "secret1", Role: model.RoleBaseCommander, BaseID: &alpha.ID,
	})
	require.NoError(t, err)
	cmdr := ts.login(t, "cmdr", "secret1")

	var transfer model.Transfer
	resp = ts.do(t, http.MethodPost, "/api/transfers", cmdr, map[string]any{
		"asset_id": asset.ID, "destination_base_id": bravo.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &transfer)
	assert.Equal(t, model.LedgerPending, transfer.Status)

	resp = ts.do(t, http.MethodGet, "/api/assets/"+itoa(asset.ID), cmdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &asset)
	assert.Equal(t, model.AssetPendingTransfer, asset.Status)

	resp = ts.do(t, http.MethodPost, "/api/transfers", cmdr, map[string]any{
		"asset_id": asset.ID, "destination_base_id": bravo.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp).Error, "not available")

	resp = ts.do(t, http.MethodPatch, "/api/transfers/"+itoa(transfer.ID)+"/status", ts.token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &transfer)
	assert.Equal(t, model.LedgerCompleted, transfer.Status)

	resp = ts.do(t, http.MethodGet, "/api/assets/"+itoa(asset.ID), ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &asset)
	assert.Equal(t, model.AssetAvailable, asset.Status)
	assert.Equal(t, bravo.ID, asset.BaseID)

	// The asset left alpha, so the alpha commander no longer sees it.
	resp = ts.do(t, http.MethodGet, "/api/assets", cmdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visible []model.Asset
	decode(t, resp, &visible)
	assert.Empty(t, visible)

	resp = ts.do(t, http.MethodGet, "/api/assets?base_id="+itoa(bravo.ID), cmdr, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/audit", cmdr, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	n, err := store.CountAudit(ctx, ts.accounts.DB, model.EntityTransfer, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDashboardEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/dashboard/metrics?start_date=2024-01-01&end_date=2024-12-31", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m model.Metrics
	decode(t, resp, &m)
	assert.Equal(t, model.Metrics{}, m)

	resp = ts.do(t, http.MethodGet, "/api/dashboard/metrics?start_date=yesterday", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMaintenanceAndReportRoutes(t *testing.T) {
	ts := setupTestServer(t)

	var base model.Base
	resp := ts.do(t, http.MethodPost, "/api/bases", ts.token, map[string]string{"name": "Alpha", "location": "North"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &base)
	var truck model.AssetType
	resp = ts.do(t, http.MethodPost, "/api/asset-types", ts.token, map[string]string{"name": "Truck", "category": "vehicle"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &truck)
	var asset model.Asset
	resp = ts.do(t, http.MethodPost, "/api/assets", ts.token, map[string]any{
		"asset_type_id": truck.ID, "model_name": "HMMWV", "serial_number": "TRK001", "base_id": base.ID, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &asset)

	var record model.MaintenanceRecord
	resp = ts.do(t, http.MethodPost, "/api/maintenance", ts.token, map[string]any{
		"asset_id": asset.ID, "maintenance_date": "2024-03-01", "type": "service", "cost": "99.90",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &record)
	assert.Equal(t, "service", record.Type)

	resp = ts.do(t, http.MethodPost, "/api/maintenance", ts.token, map[string]any{"asset_id": asset.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var history []model.MaintenanceRecord
	resp = ts.do(t, http.MethodGet, "/api/maintenance/asset/"+itoa(asset.ID), ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &history)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)

	var atBase []model.Asset
	resp = ts.do(t, http.MethodGet, "/api/bases/"+itoa(base.ID)+"/assets", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &atBase)
	require.Len(t, atBase, 1)
	assert.Equal(t, "TRK001", atBase[0].SerialNumber)

	resp = ts.do(t, http.MethodPost, "/api/purchases", ts.token, map[string]any{
		"asset_id": asset.ID, "quantity": 2, "unit_cost": "5", "purchase_date": "2024-03-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary model.PurchaseSummary
	resp = ts.do(t, http.MethodGet, "/api/purchases/stats/summary?base_id="+itoa(base.ID), ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &summary)
	assert.Equal(t, 1, summary.TotalPurchases)
	assert.Equal(t, 2, summary.TotalQuantity)
	assert.Equal(t, "10", summary.TotalCost.String())

	var activities []model.Activity
	resp = ts.do(t, http.MethodGet, "/api/dashboard/activities?limit=5", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityPurchase, activities[0].Type)

	resp = ts.do(t, http.MethodGet, "/api/dashboard/activities?limit=0", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var dist []model.AssetDistribution
	resp = ts.do(t, http.MethodGet, "/api/dashboard/asset-distribution", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &dist)
	require.Len(t, dist, 1)
	assert.Equal(t, 5, dist[0].Quantity)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	resp = ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, string(data), `audit_entries_total{action="create",entity="user"} 1`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
