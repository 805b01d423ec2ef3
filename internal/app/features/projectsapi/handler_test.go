package projectsapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/projectdash/internal/app/features/projectsapi"
	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/store/sqliteledger"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const token = "test-api-token"

var today = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seededStore(t *testing.T) ledger.Store {
	t.Helper()
	db, err := sqliteledger.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := sqliteledger.New(db)

	ctx := context.Background()
	end := day("2024-03-31")
	depot, err := store.CreateProject(ctx, "acme", ledger.NewProject{Name: "Depot", StartDate: day("2024-01-01"), EndDate: &end})
	require.NoError(t, err)
	require.NoError(t, store.AddIncome(ctx, depot, 1000, "Invoice", day("2024-02-01")))
	require.NoError(t, store.AddExpense(ctx, depot, 400, "Steel", day("2024-02-02")))
	require.NoError(t, store.AddTask(ctx, depot, "Plan", true, nil))
	require.NoError(t, store.AddTask(ctx, depot, "Build", false, nil))
	require.NoError(t, store.AddTask(ctx, depot, "Hand over", false, nil))

	_, err = store.CreateProject(ctx, "globex", ledger.NewProject{Name: "Secret", StartDate: day("2024-07-01")})
	require.NoError(t, err)
	return store
}

func newHandler(store ledger.Store, audit *auditlog.Logger) *projectsapi.Handler {
	h := projectsapi.NewHandler(store, token, audit, zap.NewNop())
	h.SetClock(func() time.Time { return today })
	return h
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) []models.Project {
	t.Helper()
	var out []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServeDashboardData_Session(t *testing.T) {
	h := newHandler(seededStore(t), auditlog.NewNopLogger())

	req := httptest.NewRequest("GET", "/api/project-dashboard-data", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", CompanyID: "acme"})
	rec := httptest.NewRecorder()
	h.ServeDashboardData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	projects := decode(t, rec)
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "Depot", p.Name)
	assert.Equal(t, 1000.0, p.Income)
	assert.Equal(t, 400.0, p.Expenses)
	assert.Equal(t, 600.0, p.Profit)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, 33, p.Completion)
	require.NotNil(t, p.EndDate)
	assert.Equal(t, "2024-03-31", *p.EndDate)
}

func TestServeDashboardData_Bearer(t *testing.T) {
	h := newHandler(seededStore(t), auditlog.NewNopLogger())

	req := httptest.NewRequest("GET", "/api/project-dashboard-data?company=globex", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeDashboardData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode(t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "Secret", projects[0].Name)
	assert.Equal(t, models.StatusNotStarted, projects[0].Status)
	assert.Nil(t, projects[0].EndDate)
	assert.Equal(t, 0, projects[0].Completion)
}

func TestServeDashboardData_EmptyIsArray(t *testing.T) {
	h := newHandler(seededStore(t), auditlog.NewNopLogger())

	req := httptest.NewRequest("GET", "/api/project-dashboard-data?company=initech", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeDashboardData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServeDashboardData_AuthFailures(t *testing.T) {
	h := newHandler(seededStore(t), auditlog.NewNopLogger())

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"anonymous", "/api/project-dashboard-data", "", http.StatusUnauthorized},
		{"wrong token", "/api/project-dashboard-data?company=acme", "Bearer nope", http.StatusUnauthorized},
		{"token without company", "/api/project-dashboard-data", "Bearer " + token, http.StatusBadRequest},
		{"basic auth is not a token", "/api/project-dashboard-data?company=acme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeDashboardData(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServeDashboardData_CrossCompanyDenied(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.DestOff, Data: auditlog.DestLog})
	h := newHandler(seededStore(t), audit)

	req := httptest.NewRequest("GET", "/api/project-dashboard-data?company=globex", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", CompanyID: "acme"})
	rec := httptest.NewRecorder()
	h.ServeDashboardData(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Secret")
	assert.Equal(t, 1, logs.FilterField(zap.String("detail_requested_company", "globex")).Len())
}

type failingStore struct {
	ledger.Store
}

func (failingStore) ListFinancials(context.Context, string, time.Time) ([]models.Project, error) {
	return nil, errors.New("database is locked")
}

func TestServeDashboardData_StoreError(t *testing.T) {
	h := newHandler(failingStore{}, auditlog.NewNopLogger())

	req := httptest.NewRequest("GET", "/api/project-dashboard-data", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", CompanyID: "acme"})
	rec := httptest.NewRecorder()
	h.ServeDashboardData(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"database is locked"}`, rec.Body.String())
}
