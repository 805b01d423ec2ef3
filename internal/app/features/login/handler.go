// Package login serves the sign-in form and starts sessions.
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/projectdash/internal/app/features/errors"
	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/limits"
	"github.com/dalemusser/projectdash/internal/app/system/navigation"
	"github.com/dalemusser/projectdash/internal/app/system/normalize"
	"github.com/dalemusser/projectdash/internal/app/system/ratelimit"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// genericLoginError is shown for both an unknown email and a wrong password.
const genericLoginError = "Invalid email or password."

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(
	accounts *accountstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data loginFormData) {
	data.BaseVM = viewdata.NewBaseVM(r, "Log in", "/")
	templates.Render(w, r, "login", data)
}

// ServeLogin shows the form, or skips it for a user who is already signed in.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AfterSignIn), http.StatusSeeOther)
		return
	}
	h.render(w, r, loginFormData{ReturnURL: query.Get(r, "return")})
}

// HandleLoginPost checks the rate limiter and credentials, then stores the
// user and their company in the session. Unknown emails and wrong passwords
// get the same message.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAuthFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login form unreadable", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	fail := func(status int, msg string) {
		w.WriteHeader(status)
		h.render(w, r, loginFormData{
			Error:     msg,
			Email:     email,
			ReturnURL: strings.TrimSpace(r.FormValue("return")),
		})
	}
	if email == "" || strings.TrimSpace(password) == "" {
		fail(http.StatusUnprocessableEntity, "Please enter your email and password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if block := h.Limiter.Check(r, email); block != nil {
		h.AuditLog.LoginFailedRateLimit(ctx, r, email, string(block.Scope))
		fail(http.StatusTooManyRequests, block.Message)
		return
	}

	const retry = "We could not sign you in. Please try again."
	user, err := h.Accounts.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, accountstore.ErrUnknownEmail):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		fail(http.StatusUnauthorized, genericLoginError)
		return
	case errors.Is(err, accountstore.ErrWrongPassword):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, user.ID, &user.CompanyID, email)
		fail(http.StatusUnauthorized, genericLoginError)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "authenticate", err, retry, "/login")
		return
	}

	company, err := h.Accounts.GetCompany(ctx, user.CompanyID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load company for session", err, retry, "/login")
		return
	}
	su := auth.SessionUser{
		ID:          user.ID.Hex(),
		Name:        user.FullName(),
		Email:       user.Email,
		Role:        user.Role,
		CompanyID:   company.ID.Hex(),
		CompanyName: company.Name,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "save session", err, retry, "/login")
		return
	}

	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, user.ID, &user.CompanyID, email)
	h.Log.Info("signed in", zap.String("user_id", su.ID), zap.String("company_id", su.CompanyID))

	dest := navigation.SafeBackURL(r, navigation.AfterSignIn)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
