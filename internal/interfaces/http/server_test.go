package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/application/service"
	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/infrastructure/export"
	"github.com/billed/bill-review/internal/infrastructure/metrics"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type memoryStore struct {
	mu      sync.Mutex
	bills   []entity.Bill
	listErr error
	updates []port.UpdateRequest
}

func (m *memoryStore) List(ctx context.Context) ([]entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return entity.CloneBills(m.bills), nil
}

func (m *memoryStore) Update(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, req)

	var b entity.Bill
	if err := json.Unmarshal([]byte(req.Data), &b); err != nil {
		return nil, err
	}
	for i := range m.bills {
		if m.bills[i].ID == req.Selector {
			m.bills[i] = b
		}
	}
	return &b, nil
}

func amount(f float64) *float64 { return &f }

func seedBills() []entity.Bill {
	return []entity.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Name: "encore", Date: "2004-04-04", Amount: amount(400), Status: entity.StatusPending, Email: "a@a"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Name: "test1", Date: "2001-01-01", Amount: amount(100), Status: entity.StatusAccepted, Email: "a@a"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Name: "test3", Date: "2003-03-03", Amount: amount(300), Status: entity.StatusRefused, Email: "a@a"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Name: "test2", Date: "2002-02-02", Amount: amount(200), Status: entity.StatusRefused, Email: "a@a"},
		{ID: "other", Name: "autre", Date: "2005-05-05", Status: entity.StatusPending, Email: "b@b"},
	}
}

type testEnv struct {
	server *Server
	store  *memoryStore
	tokens *auth.JWTManager
}

func newTestEnv(t *testing.T, store *memoryStore) *testEnv {
	t.Helper()

	tokens := auth.NewJWTManager("0123456789abcdef0123", "bill-review", time.Hour)
	recorder := metrics.NewRecorder()
	disp := dispatcher.NewDispatcher()
	recorder.Subscribe(disp)

	var billStore port.BillStore
	if store != nil {
		billStore = store
	}

	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode

	server := NewServer(
		cfg,
		service.NewBillsService(billStore, auth.ContextResolver{}, nopLogger{}),
		service.NewDashboardService(billStore, nil, export.NewReportWriter(zap.NewNop()), disp, nopLogger{}),
		tokens,
		recorder,
		nopLogger{},
	)
	return &testEnv{server: server, store: store, tokens: tokens}
}

func (e *testEnv) token(t *testing.T, email string, role entity.Role, automated bool) string {
	t.Helper()
	tok, err := e.tokens.Generate(email, role, automated)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func groupCounts(v service.DashboardView) []int {
	out := make([]int, len(v.Groups))
	for i, g := range v.Groups {
		out[i] = g.Count
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, &memoryStore{})

	w := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing token", "/api/bills", "", http.StatusUnauthorized},
		{"garbage token", "/api/bills", "not-a-jwt", http.StatusUnauthorized},
		{"employee on dashboard", "/api/dashboard", env.token(t, "a@a", entity.RoleEmployee, false), http.StatusForbidden},
		{"employee on bills", "/api/bills", env.token(t, "a@a", entity.RoleEmployee, false), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.path, tt.header, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestListBills_OwnBillsMostRecentFirst(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	w := env.do(http.MethodGet, "/api/bills", env.token(t, "a@a", entity.RoleEmployee, false), "")

	require.Equal(t, http.StatusOK, w.Code)
	var rows []service.BillRow
	decode(t, w, &rows)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2004-04-04", "2003-03-03", "2002-02-02", "2001-01-01"},
		[]string{rows[0].Date, rows[1].Date, rows[2].Date, rows[3].Date})
}

func TestGetDashboard(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	t.Run("human reviewer", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/dashboard", env.token(t, "b@b", entity.RoleAdmin, false), "")
		require.Equal(t, http.StatusOK, w.Code)

		var view service.DashboardView
		decode(t, w, &view)
		// b@b's own pending bill is hidden from them
		assert.Equal(t, []int{1, 1, 2}, groupCounts(view))
	})

	t.Run("automated admin sees every bill", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/dashboard", env.token(t, "b@b", entity.RoleAdmin, true), "")
		require.Equal(t, http.StatusOK, w.Code)

		var view service.DashboardView
		decode(t, w, &view)
		assert.Equal(t, []int{2, 1, 2}, groupCounts(view))
	})
}

func TestGetDashboard_StoreErrorRendersErrorPage(t *testing.T) {
	env := newTestEnv(t, &memoryStore{listErr: errors.New("Erreur 500")})

	w := env.do(http.MethodGet, "/api/dashboard", env.token(t, "admin@billed.com", entity.RoleAdmin, false), "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	res := decode(t, w, nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Erreur 500")
}

func TestToggleGroup(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})
	admin := env.token(t, "admin@billed.com", entity.RoleAdmin, false)

	w := env.do(http.MethodPost, "/api/dashboard/groups/3/toggle", admin, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res ToggleResponse
	decode(t, w, &res)
	assert.Equal(t, entity.StatusRefused, res.Status)
	assert.True(t, res.Expanded)
	assert.Equal(t, 1, res.Counter)
	assert.Len(t, res.Dashboard.Groups[2].Cards, 2)

	w = env.do(http.MethodPost, "/api/dashboard/groups/3/toggle", admin, "")
	decode(t, w, &res)
	assert.False(t, res.Expanded)
	assert.Equal(t, 2, res.Counter)
	assert.Empty(t, res.Dashboard.Groups[2].Cards)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/groups/7/toggle", admin, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/dashboard/groups/x/toggle", admin, "").Code)
}

func TestSelectBill(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})
	admin := env.token(t, "admin@billed.com", entity.RoleAdmin, false)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/bills/47qAXb6fIm2zOKkLzMro/select", admin, "").Code,
		"cards of a collapsed group cannot be selected")
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/dashboard/groups/1/toggle", admin, "").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/dashboard/groups/2/toggle", admin, "").Code)

	var res SelectResponse
	w := env.do(http.MethodPost, "/api/dashboard/bills/47qAXb6fIm2zOKkLzMro/select", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.True(t, res.Opened)
	assert.True(t, res.Dashboard.Edit.Open)
	assert.True(t, res.Dashboard.Edit.Decidable)

	w = env.do(http.MethodPost, "/api/dashboard/bills/BeKy5Mo4jkmdfPGYpTxZ/select", admin, "")
	decode(t, w, &res)
	assert.True(t, res.Opened)
	assert.Equal(t, "47qAXb6fIm2zOKkLzMro", res.Previous)
	assert.False(t, res.Dashboard.Edit.Decidable)

	w = env.do(http.MethodPost, "/api/dashboard/bills/BeKy5Mo4jkmdfPGYpTxZ/select", admin, "")
	decode(t, w, &res)
	assert.False(t, res.Opened)
	assert.False(t, res.Dashboard.Edit.Open)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/bills/missing/select", admin, "").Code)
}

func TestAcceptBill(t *testing.T) {
	store := &memoryStore{bills: seedBills()}
	env := newTestEnv(t, store)
	admin := env.token(t, "admin@billed.com", entity.RoleAdmin, false)

	w := env.do(http.MethodPost, "/api/dashboard/bills/47qAXb6fIm2zOKkLzMro/accept", admin, `{"commentAdmin":"ok pour moi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view service.DashboardView
	decode(t, w, &view)
	assert.Equal(t, []int{1, 2, 2}, groupCounts(view))
	assert.Equal(t, "#admin/dashboard", view.Route)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "47qAXb6fIm2zOKkLzMro", store.updates[0].Selector)
	var saved entity.Bill
	require.NoError(t, json.Unmarshal([]byte(store.updates[0].Data), &saved))
	assert.Equal(t, entity.StatusAccepted, saved.Status)
	assert.Equal(t, "ok pour moi", saved.CommentAdmin)

	w = env.do(http.MethodPost, "/api/dashboard/bills/47qAXb6fIm2zOKkLzMro/refuse", admin, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDecision_HiddenBillsNotFound(t *testing.T) {
	bills := append(seedBills(),
		entity.Bill{ID: "own", Name: "mine", Date: "2006-06-06", Status: entity.StatusPending, Email: "admin@billed.com"},
		entity.Bill{ID: "qa", Name: "qa", Date: "2006-06-07", Status: entity.StatusPending, Email: "joanna.binet@billed.com"},
	)
	store := &memoryStore{bills: bills}
	env := newTestEnv(t, store)
	admin := env.token(t, "Admin@billed.com", entity.RoleAdmin, false)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/dashboard/groups/1/toggle", admin, "").Code)

	for _, id := range []string{"own", "qa"} {
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/bills/"+id+"/select", admin, "").Code, id)
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/bills/"+id+"/accept", admin, `{"commentAdmin":"ok"}`).Code, id)
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/dashboard/bills/"+id+"/refuse", admin, "").Code, id)
	}
	assert.Empty(t, store.updates)

	robot := env.token(t, "admin@billed.com", entity.RoleAdmin, true)
	w := env.do(http.MethodPost, "/api/dashboard/bills/own/accept", robot, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.updates, 1)
	assert.Equal(t, "own", store.updates[0].Selector)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})
	admin := env.token(t, "admin@billed.com", entity.RoleAdmin, false)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/dashboard/groups/1/toggle", admin, "").Code)

	var out LogoutResponse
	w := env.do(http.MethodPost, "/api/logout", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &out)
	assert.Equal(t, "/", out.Route)

	var view service.DashboardView
	w = env.do(http.MethodGet, "/api/dashboard", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.False(t, view.Groups[0].Expanded, "a new session starts collapsed")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/logout", "", "").Code)
}

func TestRefuseBill_EmptyBody(t *testing.T) {
	store := &memoryStore{bills: seedBills()}
	env := newTestEnv(t, store)

	w := env.do(http.MethodPost, "/api/dashboard/bills/other/refuse", env.token(t, "admin@billed.com", entity.RoleAdmin, false), "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.updates, 1)
	assert.Contains(t, store.updates[0].Data, `"status":"refused"`)
}

func TestDecision_InvalidBody(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	w := env.do(http.MethodPost, "/api/dashboard/bills/other/accept", env.token(t, "admin@billed.com", entity.RoleAdmin, false), "{")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceipt_NotConfigured(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	w := env.do(http.MethodGet, "/api/dashboard/bills/other/receipt", env.token(t, "admin@billed.com", entity.RoleAdmin, false), "")

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestExportReport(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})

	w := env.do(http.MethodGet, "/api/dashboard/export", env.token(t, "admin@billed.com", entity.RoleAdmin, false), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bills-review.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &memoryStore{bills: seedBills()})
	admin := env.token(t, "admin@billed.com", entity.RoleAdmin, false)
	env.do(http.MethodPost, "/api/dashboard/groups/1/toggle", admin, "")

	w := env.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "bill_review_group_toggles_total")
	assert.Contains(t, body, "bill_review_http_request_duration_seconds")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrBillNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(service.ErrNotReviewable))
	assert.Equal(t, http.StatusNotImplemented, statusFor(service.ErrUnavailable))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.New("boom")))
}

func TestServer_StartStop(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.config.Host = "127.0.0.1"
	env.server.config.Port = 0

	require.NoError(t, env.server.Start(context.Background()))
	assert.Error(t, env.server.Start(context.Background()))
	require.NoError(t, env.server.Stop())

	_, open := <-env.server.Err()
	assert.False(t, open)
	assert.NoError(t, env.server.Stop())
}
