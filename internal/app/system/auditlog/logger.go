// Package auditlog routes audit events to the audit store and the
// application log, per category.
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config picks a destination per event category. Security events ignore it
// and always go everywhere; an empty value means off.
type Config struct {
	// Auth covers login, logout and registration.
	Auth string
	// Data covers exports, refresh failures and project edits.
	Data string
}

// ValidDestination reports whether v is one of the accepted destinations.
func ValidDestination(v string) bool {
	switch v {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Logger writes audit events to the audit store and to zap. Its methods are
// safe to call on a nil *Logger.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// NewNopLogger returns a Logger that records nothing. Tests use it.
func NewNopLogger() *Logger {
	return New(nil, zap.NewNop(), Config{Auth: DestOff, Data: DestOff})
}

// destination reports where events of category go.
func (l *Logger) destination(category string) (toDB, toLog bool) {
	dest := DestAll
	switch category {
	case audit.CategoryAuth:
		dest = l.config.Auth
	case audit.CategoryData:
		dest = l.config.Data
	}
	return dest == DestAll || dest == DestDB, dest == DestAll || dest == DestLog
}

// Log records e according to its category's destination.
func (l *Logger) Log(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	toDB, toLog := l.destination(e.Category)
	if toLog {
		level := zap.InfoLevel
		if !e.Success {
			level = zap.WarnLevel
		}
		l.zapLog.Log(level, "audit event", zapFields(e)...)
	}
	if toDB && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("audit store write failed", zap.String("event_type", e.EventType), zap.Error(err))
		}
	}
}

func zapFields(e audit.Event) []zap.Field {
	fields := make([]zap.Field, 0, 8+len(e.Details))
	fields = append(fields,
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	)
	for name, id := range map[string]*primitive.ObjectID{"user_id": e.UserID, "company_id": e.CompanyID} {
		if id != nil {
			fields = append(fields, zap.String(name, id.Hex()))
		}
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	return fields
}

// hexID parses an ObjectID from a session string; invalid input yields nil.
func hexID(s string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &oid
}

func requestEvent(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, companyID *primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.CompanyID = companyID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login attempt for an email with no account.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a failed login due to a wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, companyID *primitive.ObjectID, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = &userID
	e.CompanyID = companyID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login rejected by the login limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{
		"email":      email,
		"limit_type": limitType,
	}
	l.Log(ctx, e)
}

// Logout logs a user logout. IDs come from the session as hex strings.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr, companyIDStr string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	l.Log(ctx, e)
}

// CompanyRegistered logs a new company and its first admin.
func (l *Logger) CompanyRegistered(ctx context.Context, r *http.Request, userID, companyID primitive.ObjectID, companyName string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventCompanyRegistered, true)
	e.UserID = &userID
	e.CompanyID = &companyID
	e.Details = map[string]string{"company_name": companyName}
	l.Log(ctx, e)
}

// DashboardExported logs a CSV export of the dashboard view.
func (l *Logger) DashboardExported(ctx context.Context, r *http.Request, userIDStr, companyIDStr, filter string, rows int) {
	e := requestEvent(r, audit.CategoryData, audit.EventDashboardExported, true)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	e.Details = map[string]string{
		"filter": filter,
		"rows":   strconv.Itoa(rows),
	}
	l.Log(ctx, e)
}

// DataRefreshFailed logs a background refresh that could not load a
// company's projects. There is no request, so IP is left empty.
func (l *Logger) DataRefreshFailed(ctx context.Context, companyIDStr string, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryData,
		EventType:     audit.EventDataRefreshFailed,
		CompanyID:     hexID(companyIDStr),
		Success:       false,
		FailureReason: reason,
	})
}

// ProjectCreated logs a new project.
func (l *Logger) ProjectCreated(ctx context.Context, r *http.Request, userIDStr, companyIDStr, projectID, name string) {
	e := requestEvent(r, audit.CategoryData, audit.EventProjectCreated, true)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	e.Details = map[string]string{"project_id": projectID, "name": name}
	l.Log(ctx, e)
}

// LedgerEntryAdded logs an income or expense line. kind is "income" or
// "expense"; amount is the submitted text.
func (l *Logger) LedgerEntryAdded(ctx context.Context, r *http.Request, userIDStr, companyIDStr, projectID, kind, amount string) {
	e := requestEvent(r, audit.CategoryData, audit.EventLedgerEntryAdded, true)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	e.Details = map[string]string{"project_id": projectID, "kind": kind, "amount": amount}
	l.Log(ctx, e)
}

func (l *Logger) TaskAdded(ctx context.Context, r *http.Request, userIDStr, companyIDStr, projectID, name string) {
	e := requestEvent(r, audit.CategoryData, audit.EventTaskAdded, true)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	e.Details = map[string]string{"project_id": projectID, "task": name}
	l.Log(ctx, e)
}

// CrossCompanyDenied logs a request that asked for another company's data.
func (l *Logger) CrossCompanyDenied(ctx context.Context, r *http.Request, userIDStr, companyIDStr, requested string) {
	e := requestEvent(r, audit.CategorySecurity, audit.EventCrossCompanyDenied, false)
	e.UserID = hexID(userIDStr)
	e.CompanyID = hexID(companyIDStr)
	e.FailureReason = "company mismatch"
	e.Details = map[string]string{"requested_company": requested}
	l.Log(ctx, e)
}
