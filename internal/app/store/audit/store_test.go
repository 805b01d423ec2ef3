package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogFillsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}))

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].ID.IsZero())
	assert.True(t, events[0].Timestamp.After(before))
	assert.Equal(t, "TestBrowser/1.0", events[0].UserAgent)
}

func TestStore_LogKeepsDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	companyID := primitive.NewObjectID()
	require.NoError(t, store.Log(ctx, audit.Event{
		Category:  audit.CategoryData,
		EventType: audit.EventLedgerEntryAdded,
		CompanyID: &companyID,
		Success:   true,
		Details:   map[string]string{"kind": "income", "amount": "1250.00"},
	}))

	events, err := store.Query(ctx, audit.QueryFilter{CompanyID: &companyID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "income", events[0].Details["kind"])
	assert.Equal(t, "1250.00", events[0].Details["amount"])
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acme := primitive.NewObjectID()
	globex := primitive.NewObjectID()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := []audit.Event{
		{CompanyID: &acme, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: base},
		{CompanyID: &acme, Category: audit.CategoryData, EventType: audit.EventProjectCreated, Success: true, Timestamp: base.Add(time.Hour)},
		{CompanyID: &acme, Category: audit.CategoryData, EventType: audit.EventDashboardExported, Success: true, Timestamp: base.Add(2 * time.Hour)},
		{CompanyID: &acme, Category: audit.CategorySecurity, EventType: audit.EventCrossCompanyDenied, Timestamp: base.Add(3 * time.Hour)},
		{CompanyID: &globex, Category: audit.CategoryData, EventType: audit.EventProjectCreated, Success: true, Timestamp: base.Add(4 * time.Hour)},
	}
	for _, e := range seed {
		require.NoError(t, store.Log(ctx, e))
	}

	start, end := base.Add(30*time.Minute), base.Add(150*time.Minute)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   []string
	}{
		{"company newest first", audit.QueryFilter{CompanyID: &acme}, []string{
			audit.EventCrossCompanyDenied, audit.EventDashboardExported, audit.EventProjectCreated, audit.EventLoginSuccess,
		}},
		{"category", audit.QueryFilter{CompanyID: &acme, Category: audit.CategoryData}, []string{
			audit.EventDashboardExported, audit.EventProjectCreated,
		}},
		{"event type across companies", audit.QueryFilter{EventType: audit.EventProjectCreated}, []string{
			audit.EventProjectCreated, audit.EventProjectCreated,
		}},
		{"time range", audit.QueryFilter{CompanyID: &acme, StartTime: &start, EndTime: &end}, []string{
			audit.EventDashboardExported, audit.EventProjectCreated,
		}},
		{"limit and offset", audit.QueryFilter{CompanyID: &acme, Limit: 2, Offset: 1}, []string{
			audit.EventDashboardExported, audit.EventProjectCreated,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]string, len(events))
			for i, e := range events {
				got[i] = e.EventType
			}
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{CompanyID: &acme, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n, "count ignores limit")

	n, err = store.CountByFilter(ctx, audit.QueryFilter{CompanyID: &acme, Category: audit.CategorySecurity})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_QueryEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.Query(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_EnsureIndexesTwice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.EnsureIndexes(ctx))
}
