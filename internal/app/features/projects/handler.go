// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/limits"
	"go.uber.org/zap"
)

// ChangeFunc is told when a company's ledger changed so open dashboards can
// reload.
type ChangeFunc func(companyID string)

type Handler struct {
	Ledger   ledger.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Currency string
	Changed  ChangeFunc
	Log      *zap.Logger

	clock func() time.Time
}

func NewHandler(store ledger.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, currency string, changed ChangeFunc, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:   store,
		ErrLog:   errLog,
		AuditLog: audit,
		Currency: currency,
		Changed:  changed,
		Log:      logger,
		clock:    time.Now,
	}
}

// SetClock replaces the time source used for status and completion.
func (h *Handler) SetClock(now func() time.Time) { h.clock = now }

func (h *Handler) today() time.Time { return h.clock().UTC() }

func (h *Handler) notify(companyID string) {
	if h.Changed != nil {
		h.Changed(companyID)
	}
}

// loadProject fetches the caller's project named by the {id} route param.
// Unknown ids and other companies' projects both render 404.
func (h *Handler) loadProject(ctx context.Context, w http.ResponseWriter, r *http.Request, u *auth.SessionUser, id string) (ledger.Detail, bool) {
	d, err := h.Ledger.GetProject(ctx, u.CompanyID, id, h.today())
	if errors.Is(err, ledger.ErrProjectNotFound) {
		uierrors.RenderNotFound(w, r, "Project not found.", "/dashboard")
		return ledger.Detail{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project failed", err, "The project could not be loaded.", "/dashboard")
		return ledger.Detail{}, false
	}
	return d, true
}

// parseForm limits and parses a project form.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, backURL string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxProjectFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", backURL)
		return false
	}
	return true
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
