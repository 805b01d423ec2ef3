package auditlog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilIsNoop(t *testing.T) {
	var l *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	r := httptest.NewRequest(http.MethodPost, "/project/new", nil)

	assert.NotPanics(t, func() {
		l.Log(ctx, audit.Event{EventType: audit.EventProjectCreated})
		l.LoginSuccess(ctx, r, primitive.NewObjectID(), nil, "anna@budimex.pl")
		l.ProjectCreated(ctx, r, "", "", "p1", "Warsaw Ring Road")
		l.DataRefreshFailed(ctx, "", "HTTP 503")
	})
}

func TestLogger_Destinations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)

	tests := []struct {
		dest       string
		wantStored int
		wantLogged int
	}{
		{auditlog.DestOff, 0, 0},
		{"", 0, 0},
		{auditlog.DestDB, 1, 0},
		{auditlog.DestLog, 0, 1},
		{auditlog.DestAll, 1, 1},
	}
	for _, tt := range tests {
		t.Run("dest="+tt.dest, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			core, logs := observer.New(zap.InfoLevel)
			companyID := primitive.NewObjectID()
			l := auditlog.New(store, zap.New(core), auditlog.Config{Auth: auditlog.DestAll, Data: tt.dest})

			l.Log(ctx, audit.Event{
				Category:  audit.CategoryData,
				EventType: audit.EventProjectCreated,
				CompanyID: &companyID,
				Success:   true,
			})

			events, err := store.Query(ctx, audit.QueryFilter{CompanyID: &companyID})
			require.NoError(t, err)
			assert.Len(t, events, tt.wantStored)
			assert.Equal(t, tt.wantLogged, logs.FilterMessage("audit event").Len())
		})
	}
}

func TestLogger_ZapFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.DestLog, Data: auditlog.DestLog})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	l.LoginFailedRateLimit(ctx, r, "anna@budimex.pl", "email")
	l.Logout(ctx, r, primitive.NewObjectID().Hex(), "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level, "failures log at warn")
	fields := entries[0].ContextMap()
	assert.Equal(t, audit.EventLoginFailedRateLimit, fields["event_type"])
	assert.Equal(t, "rate limit exceeded", fields["failure_reason"])
	assert.Equal(t, "email", fields["detail_limit_type"])

	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "company_id")
}

func TestLogger_EventHelpers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB, Data: auditlog.DestDB})

	user := primitive.NewObjectID()
	company := primitive.NewObjectID()

	tests := []struct {
		name     string
		call     func(ctx context.Context, r *http.Request)
		category string
		event    string
		success  bool
		details  map[string]string
	}{
		{"login success", func(ctx context.Context, r *http.Request) {
			l.LoginSuccess(ctx, r, user, &company, "anna@budimex.pl")
		}, audit.CategoryAuth, audit.EventLoginSuccess, true, map[string]string{"email": "anna@budimex.pl"}},
		{"wrong password", func(ctx context.Context, r *http.Request) {
			l.LoginFailedWrongPassword(ctx, r, user, &company, "anna@budimex.pl")
		}, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false, map[string]string{"email": "anna@budimex.pl"}},
		{"company registered", func(ctx context.Context, r *http.Request) {
			l.CompanyRegistered(ctx, r, user, company, "Budimex S.A.")
		}, audit.CategoryAuth, audit.EventCompanyRegistered, true, map[string]string{"company_name": "Budimex S.A."}},
		{"export", func(ctx context.Context, r *http.Request) {
			l.DashboardExported(ctx, r, user.Hex(), company.Hex(), "Completed", 4)
		}, audit.CategoryData, audit.EventDashboardExported, true, map[string]string{"filter": "Completed", "rows": "4"}},
		{"project created", func(ctx context.Context, r *http.Request) {
			l.ProjectCreated(ctx, r, user.Hex(), company.Hex(), "p1", "Warsaw Ring Road")
		}, audit.CategoryData, audit.EventProjectCreated, true, map[string]string{"project_id": "p1", "name": "Warsaw Ring Road"}},
		{"ledger entry", func(ctx context.Context, r *http.Request) {
			l.LedgerEntryAdded(ctx, r, user.Hex(), company.Hex(), "p1", "expense", "1250.00")
		}, audit.CategoryData, audit.EventLedgerEntryAdded, true, map[string]string{"project_id": "p1", "kind": "expense", "amount": "1250.00"}},
		{"task", func(ctx context.Context, r *http.Request) {
			l.TaskAdded(ctx, r, user.Hex(), company.Hex(), "p1", "Pour foundations")
		}, audit.CategoryData, audit.EventTaskAdded, true, map[string]string{"project_id": "p1", "task": "Pour foundations"}},
		{"cross company", func(ctx context.Context, r *http.Request) {
			l.CrossCompanyDenied(ctx, r, user.Hex(), company.Hex(), "other")
		}, audit.CategorySecurity, audit.EventCrossCompanyDenied, false, map[string]string{"requested_company": "other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.RemoteAddr = "192.0.2.10:5123"
			r.Header.Set("User-Agent", "Firefox/128.0")

			tt.call(ctx, r)

			events, err := store.Query(ctx, audit.QueryFilter{EventType: tt.event, Limit: 1})
			require.NoError(t, err)
			require.Len(t, events, 1)
			e := events[0]
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.success, e.Success)
			assert.Equal(t, tt.details, e.Details)
			assert.Equal(t, "192.0.2.10", e.IP)
			assert.Equal(t, "Firefox/128.0", e.UserAgent)
			require.NotNil(t, e.UserID)
			assert.Equal(t, user, *e.UserID)
			require.NotNil(t, e.CompanyID)
			assert.Equal(t, company, *e.CompanyID)
		})
	}
}

func TestLogger_LoginFailuresQueryable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})
	r := httptest.NewRequest(http.MethodPost, "/login", nil)

	l.LoginFailedUserNotFound(ctx, r, "ghost@budimex.pl")
	l.LoginFailedWrongPassword(ctx, r, primitive.NewObjectID(), nil, "anna@budimex.pl")
	l.LoginFailedRateLimit(ctx, r, "anna@budimex.pl", "ip")
	l.LoginSuccess(ctx, r, primitive.NewObjectID(), nil, "anna@budimex.pl")

	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	require.NoError(t, err)
	reasons := map[string]string{}
	for _, e := range events {
		if !e.Success {
			reasons[e.EventType] = e.FailureReason
		}
	}
	assert.Equal(t, map[string]string{
		audit.EventLoginFailedUserNotFound:  "user not found",
		audit.EventLoginFailedWrongPassword: "wrong password",
		audit.EventLoginFailedRateLimit:     "rate limit exceeded",
	}, reasons)
}

func TestLogger_SessionIDsMayBeInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB, Data: auditlog.DestDB})

	l.Logout(ctx, httptest.NewRequest(http.MethodPost, "/logout", nil), "not-hex", "")
	l.DataRefreshFailed(ctx, "also-not-hex", "HTTP 503")

	events, err := store.Query(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Nil(t, e.UserID, e.EventType)
		assert.Nil(t, e.CompanyID, e.EventType)
	}
}

func TestLogger_SecurityIgnoresConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := primitive.NewObjectID()
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestOff, Data: auditlog.DestOff})

	l.CrossCompanyDenied(ctx, httptest.NewRequest(http.MethodGet, "/api/project-dashboard-data?company=x", nil), user.Hex(), "", "x")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: &user, Category: audit.CategorySecurity})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLogger_ClientIP(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain uses first hop", map[string]string{"X-Forwarded-For": "203.0.113.195, 10.0.0.1", "X-Real-IP": "192.168.1.1"}, "127.0.0.1:1", "203.0.113.195"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "127.0.0.1:1", "198.51.100.7"},
		{"remote addr", nil, "10.0.0.5:12345", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			user := primitive.NewObjectID()
			r := httptest.NewRequest(http.MethodPost, "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			l.LoginSuccess(ctx, r, user, nil, "anna@budimex.pl")

			events, err := store.Query(ctx, audit.QueryFilter{UserID: &user})
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].IP)
		})
	}
}

func TestValidDestination(t *testing.T) {
	for _, v := range []string{"all", "db", "log", "off"} {
		assert.True(t, auditlog.ValidDestination(v), v)
	}
	for _, v := range []string{"", "ALL", "both", "mongo"} {
		assert.False(t, auditlog.ValidDestination(v), v)
	}
}
