// Package audit persists security and data-change events for the activity
// page.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryData     = "data"
	CategorySecurity = "security"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventCompanyRegistered        = "company_registered"
)

// Data event types
const (
	EventDashboardExported = "dashboard_exported"
	EventDataRefreshFailed = "data_refresh_failed"
	EventProjectCreated    = "project_created"
	EventLedgerEntryAdded  = "ledger_entry_added"
	EventTaskAdded         = "task_added"
)

// Security event types
const (
	EventCrossCompanyDenied = "cross_company_denied"
)

// Categories lists every event category, in display order.
var Categories = []string{CategoryAuth, CategoryData, CategorySecurity}

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp time.Time           `bson:"timestamp"`
	CompanyID *primitive.ObjectID `bson:"company_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	UserID *primitive.ObjectID `bson:"user_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Details varies by event type.
	Details map[string]string `bson:"details,omitempty"`
}

// Collection holds one document per Event.
const Collection = "audit_events"

// DefaultQueryLimit caps Query when the filter sets no limit.
const DefaultQueryLimit = 100

// QueryFilter narrows Query and CountByFilter. Zero fields match anything.
type QueryFilter struct {
	CompanyID *primitive.ObjectID
	UserID    *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	for field, v := range map[string]*primitive.ObjectID{"company_id": f.CompanyID, "user_id": f.UserID} {
		if v != nil {
			q[field] = *v
		}
	}
	for field, v := range map[string]string{"category": f.Category, "event_type": f.EventType} {
		if v != "" {
			q[field] = v
		}
	}
	window := bson.M{}
	if f.StartTime != nil {
		window["$gte"] = *f.StartTime
	}
	if f.EndTime != nil {
		window["$lte"] = *f.EndTime
	}
	if len(window) > 0 {
		q["timestamp"] = window
	}
	return q
}

// Store reads and writes audit events.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// EnsureIndexes builds the newest-first indexes behind each QueryFilter
// combination the activity page uses.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	newest := bson.E{Key: "timestamp", Value: -1}
	models := []mongo.IndexModel{
		{Keys: bson.D{newest}, Options: options.Index().SetName("idx_audit_ts")},
		{Keys: bson.D{{Key: "company_id", Value: 1}, newest}, Options: options.Index().SetName("idx_audit_company_ts")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, newest}, Options: options.Index().SetName("idx_audit_user_ts")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, newest}, Options: options.Index().SetName("idx_audit_category_type_ts")},
	}
	_, err := s.c.Indexes().CreateMany(ctx, models)
	return err
}

// Log stores e, filling in the id and timestamp when unset.
func (s *Store) Log(ctx context.Context, e Event) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Query returns matching events, newest first, paged by Limit and Offset.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Offset).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) CountByFilter(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}
