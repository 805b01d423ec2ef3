// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	activityfeature "github.com/dalemusser/projectdash/internal/app/features/activity"
	dashboardfeature "github.com/dalemusser/projectdash/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/projectdash/internal/app/features/errors"
	healthfeature "github.com/dalemusser/projectdash/internal/app/features/health"
	homefeature "github.com/dalemusser/projectdash/internal/app/features/home"
	loginfeature "github.com/dalemusser/projectdash/internal/app/features/login"
	logoutfeature "github.com/dalemusser/projectdash/internal/app/features/logout"
	projectsfeature "github.com/dalemusser/projectdash/internal/app/features/projects"
	projectsapifeature "github.com/dalemusser/projectdash/internal/app/features/projectsapi"
	registerfeature "github.com/dalemusser/projectdash/internal/app/features/register"
	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/ratelimit"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Registration attempts allowed per client IP per window.
const (
	registerLimit  = 10
	registerWindow = time.Hour
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It boots the template engine, applies CSRF and
// session middleware, and mounts the feature routers: home, registration,
// login and logout, the dashboard, project detail pages, the admin
// activity page, and the dashboard-data API.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()
	rt := deps.Runtime
	accounts := accountstore.New(deps.MongoDatabase)

	r := chi.NewRouter()

	r.Use(plaintextUnlessSecure(secure))
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("CSRF check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "Your form expired. Please go back and try again.", "/")
		})),
	))

	// Loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Ledger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	registerHandler := registerfeature.NewHandler(accounts, sessionMgr, errLog, rt.Audit, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler, ratelimit.New(registerLimit, registerWindow)))

	loginHandler := loginfeature.NewHandler(accounts, sessionMgr, errLog, rt.Audit, ratelimit.NewLoginLimiter(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, rt.Audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	dashboardHandler := dashboardfeature.NewHandler(rt.Views, errLog, rt.Audit, appCfg.Currency, 0, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	projectsHandler := projectsfeature.NewHandler(deps.Ledger, errLog, rt.Audit, appCfg.Currency, ReloadCompany(rt.Views, logger), logger)
	r.Mount("/project", projectsfeature.Routes(projectsHandler, sessionMgr))

	apiHandler := projectsapifeature.NewHandler(deps.Ledger, appCfg.APIToken, rt.Audit, logger)
	r.Mount("/api", projectsapifeature.Routes(apiHandler))

	// Company audit trail, admins only
	activityHandler := activityfeature.NewHandler(audit.New(deps.MongoDatabase), errLog, logger)
	r.Mount("/activity", activityfeature.Routes(activityHandler, sessionMgr))

	return r, nil
}

// plaintextUnlessSecure tells gorilla/csrf that requests are plain HTTP when
// the app is not serving secure cookies, so the HTTPS Referer check is
// skipped in local development.
func plaintextUnlessSecure(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secure {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// ReloadCompany returns the hook project writes call: every open dashboard
// view of the company reloads in the background.
func ReloadCompany(reg *dashboard.Registry, logger *zap.Logger) projectsfeature.ChangeFunc {
	return func(companyID string) {
		for _, v := range reg.Views() {
			if v.CompanyID != companyID {
				continue
			}
			go func(v *dashboard.View) {
				ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
				defer cancel()
				if err := v.Controller.Load(ctx); err != nil {
					logger.Debug("dashboard reload after write failed",
						zap.String("view_id", v.ID),
						zap.Error(err))
				}
			}(v)
		}
	}
}
