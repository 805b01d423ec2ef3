// Package projectsapi serves the dashboard-data endpoint the dashboard
// fetcher reads: GET /api/project-dashboard-data.
package projectsapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/normalize"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type Handler struct {
	Ledger   ledger.Store
	APIToken string
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	clock func() time.Time
}

func NewHandler(store ledger.Store, apiToken string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:   store,
		APIToken: apiToken,
		AuditLog: audit,
		Log:      logger,
		clock:    time.Now,
	}
}

// SetClock replaces the time source that decides status.
func (h *Handler) SetClock(now func() time.Time) { h.clock = now }

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bearer returns the token of an "Authorization: Bearer" header.
func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// companyFor resolves which company the request may read. A bearer token
// names the company with ?company=; a session is pinned to its own company.
func (h *Handler) companyFor(w http.ResponseWriter, r *http.Request) (string, bool) {
	requested := normalize.CompanyID(r.URL.Query().Get("company"))

	if token, ok := bearer(r); ok {
		if h.APIToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.APIToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return "", false
		}
		if requested == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "company is required"})
			return "", false
		}
		return requested, true
	}

	u, ok := auth.CurrentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return "", false
	}
	if requested != "" && requested != u.CompanyID {
		h.AuditLog.CrossCompanyDenied(r.Context(), r, u.ID, u.CompanyID, requested)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
		return "", false
	}
	return u.CompanyID, true
}

// ServeDashboardData handles GET /api/project-dashboard-data.
//
// 200 with the JSON array of projects (possibly []), 401/403 on auth
// failures and 500 with {"error": ...} when the ledger fails.
func (h *Handler) ServeDashboardData(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	start := time.Now()
	projects, err := h.Ledger.ListFinancials(ctx, companyID, h.clock().UTC())
	if err != nil {
		h.Log.Error("list project financials failed",
			zap.String("company_id", companyID),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	h.Log.Debug("dashboard data served",
		zap.String("company_id", companyID),
		zap.Int("projects", len(projects)),
		zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, projects)
}
