// internal/app/features/activity/list.go
package activity

import (
	"context"
	"net/http"
	"slices"
	"sort"
	"strings"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/paging"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// eventLabels are the human-readable names of the recorded event types.
var eventLabels = map[string]string{
	audit.EventLoginSuccess:             "Signed in",
	audit.EventLoginFailedUserNotFound:  "Sign-in failed (unknown email)",
	audit.EventLoginFailedWrongPassword: "Sign-in failed (wrong password)",
	audit.EventLoginFailedRateLimit:     "Sign-in blocked (too many attempts)",
	audit.EventLogout:                   "Signed out",
	audit.EventCompanyRegistered:        "Company registered",
	audit.EventDashboardExported:        "Dashboard exported",
	audit.EventDataRefreshFailed:        "Dashboard refresh failed",
	audit.EventProjectCreated:           "Project created",
	audit.EventLedgerEntryAdded:         "Ledger entry added",
	audit.EventTaskAdded:                "Task added",
	audit.EventCrossCompanyDenied:       "Cross-company request denied",
}

// ServeList handles GET /activity.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	companyID, err := primitive.ObjectIDFromHex(u.CompanyID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "session company id is not an ObjectID", err, "Your session is invalid. Please sign in again.", "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	category := ParseCategory(r.URL.Query().Get("category"))
	data, err := h.list(ctx, companyID, category, paging.ParsePage(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit query failed", err, "Could not load activity.", "/dashboard")
		return
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Activity", "/dashboard")
	templates.Render(w, r, "activity_list", data)
}

// list loads one page of the company's events.
func (h *Handler) list(ctx context.Context, companyID primitive.ObjectID, category string, page int) (listData, error) {
	filter := audit.QueryFilter{CompanyID: &companyID, Category: category}

	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		return listData{}, err
	}
	cursor := paging.NewCursor(paging.TotalPages(int(total), pageSize))
	if page > cursor.TotalPages {
		page = cursor.TotalPages
	}
	cursor.Page = page

	filter.Limit = pageSize
	filter.Offset = int64((page - 1) * pageSize)
	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		return listData{}, err
	}
	h.Log.Debug("activity page loaded",
		zap.String("company_id", companyID.Hex()),
		zap.String("category", category),
		zap.Int("page", page),
		zap.Int("events", len(events)))

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}

	return listData{
		Items:      items,
		Category:   category,
		Categories: categoryOptions(category),
		Page:       page,
		Pages:      cursor.TotalPages,
		Total:      total,
		Range:      paging.ComputeRange(page, pageSize, len(items), int(total)),
		HasPrev:    cursor.HasPrev(),
		HasNext:    cursor.HasNext(),
		PrevPage:   cursor.Previous().Page,
		NextPage:   cursor.Next().Page,
	}, nil
}

// ParseCategory keeps known categories and maps anything else to "" (all).
func ParseCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if slices.Contains(audit.Categories, c) {
		return c
	}
	return ""
}

func categoryOptions(selected string) []categoryOption {
	out := make([]categoryOption, 0, len(audit.Categories))
	for _, c := range audit.Categories {
		out = append(out, categoryOption{Value: c, Selected: c == selected})
	}
	return out
}

func toItem(e audit.Event) listItem {
	label, ok := eventLabels[e.EventType]
	if !ok {
		label = e.EventType
	}
	item := listItem{
		When:      e.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"),
		Category:  e.Category,
		EventType: e.EventType,
		Label:     label,
		IP:        e.IP,
		Success:   e.Success,
		Reason:    e.FailureReason,
	}
	for k, v := range e.Details {
		item.Details = append(item.Details, detail{Key: strings.ReplaceAll(k, "_", " "), Value: v})
	}
	sort.Slice(item.Details, func(i, j int) bool { return item.Details[i].Key < item.Details[j].Key })
	return item
}
