// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	dashview "github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often an idle page asks whether its region
// changed (for example after an auto-refresh).
const DefaultPollInterval = 30 * time.Second

type Handler struct {
	Registry     *dashview.Registry
	ErrLog       *uierrors.ErrorLogger
	AuditLog     *auditlog.Logger
	Currency     string
	PollInterval time.Duration
	Log          *zap.Logger

	clock func() time.Time
}

func NewHandler(reg *dashview.Registry, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, currency string, pollInterval time.Duration, logger *zap.Logger) *Handler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Handler{
		Registry:     reg,
		ErrLog:       errLog,
		AuditLog:     audit,
		Currency:     currency,
		PollInterval: pollInterval,
		Log:          logger,
		clock:        time.Now,
	}
}

// SetClock replaces the time source. Tests pair it with Registry.SetClock.
func (h *Handler) SetClock(now func() time.Time) { h.clock = now }

func (h *Handler) now() time.Time { return h.clock() }

/*─────────────────────────────────────────────────────────────────────────────*
| View lookup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// viewFor returns the caller's view named by the "view" query or form value.
// When it is gone (evicted, restarted, or another company's id) the page is
// sent back to /dashboard for a fresh view and ok is false.
func (h *Handler) viewFor(w http.ResponseWriter, r *http.Request) (*dashview.View, *auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return nil, nil, false
	}
	v, ok := h.Registry.Get(r.FormValue("view"), u.CompanyID)
	if !ok {
		h.Log.Debug("dashboard view not found", zap.String("view_id", r.FormValue("view")))
		redirect(w, r, "/dashboard")
		return nil, u, false
	}
	return v, u, true
}

// initialSize uses the width the page reported when it has one.
func initialSize(r *http.Request) dashview.SizeClass {
	if c, ok := dashview.ParseSizeClass(query.Get(r, "size")); ok {
		return c
	}
	if width, err := strconv.Atoi(query.Get(r, "w")); err == nil && width > 0 {
		return dashview.Classify(width)
	}
	return dashview.DefaultSizeClass
}

/*─────────────────────────────────────────────────────────────────────────────*
| Loading                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// startLoad runs the first load of a new view without holding up the page.
func (h *Handler) startLoad(v *dashview.View) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		_ = h.load(ctx, v)
	}()
}

// load fetches through the view's controller. A failure is already shown
// as the error state, so it is only logged here.
func (h *Handler) load(ctx context.Context, v *dashview.View) error {
	start := time.Now()
	err := v.Controller.Load(ctx)
	if err != nil {
		h.Log.Warn("dashboard load failed",
			zap.String("view_id", v.ID),
			zap.String("company_id", v.CompanyID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		h.AuditLog.DataRefreshFailed(ctx, v.CompanyID, err.Error())
		return err
	}
	h.Log.Debug("dashboard loaded",
		zap.String("view_id", v.ID),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
