package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Values stored in the session cookie.
const (
	isAuthKey      = "is_authenticated"
	userIDKey      = "user_id"
	userNameKey    = "user_name"
	userEmailKey   = "user_email"
	userRoleKey    = "user_role"
	companyIDKey   = "company_id"
	companyNameKey = "company_name"
)

// Roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// SessionUser is the signed-in user as carried in the cookie and the request
// context. CompanyID scopes every data read the user makes.
type SessionUser struct {
	ID          string
	Name        string
	Email       string
	Role        string
	CompanyID   string
	CompanyName string
}

// fields pairs each session key with the SessionUser field it fills.
func (u *SessionUser) fields() map[string]*string {
	return map[string]*string{
		userIDKey:      &u.ID,
		userNameKey:    &u.Name,
		userEmailKey:   &u.Email,
		userRoleKey:    &u.Role,
		companyIDKey:   &u.CompanyID,
		companyNameKey: &u.CompanyName,
	}
}

type userCtxKey struct{}

// CurrentUser reports the user LoadSessionUser attached to r, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(userCtxKey{}).(*SessionUser)
	return u, ok
}

// WithTestUser puts u into the request context the way LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return attach(r, u)
}

func attach(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u))
}

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager builds the cookie store. Secure cookies are sent with
// SameSite=None; plain-http development uses Lax.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	switch {
	case sessionKey == "":
		return nil, errors.New("session key is empty; provide at least 32 random characters")
	case name == "":
		return nil, errors.New("session name is empty")
	case len(sessionKey) < 32:
		logger.Warn("short session key", zap.Int("length", len(sessionKey)))
	}

	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: sameSite,
	}

	logger.Info("sessions ready",
		zap.String("cookie", name),
		zap.String("domain", domain),
		zap.Bool("secure", secure),
		zap.Duration("max_age", maxAge))
	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the app session. A cookie that no longer decodes
// (rotated key) yields a fresh session.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	var scErr securecookie.Error
	if err != nil && errors.As(err, &scErr) && scErr.IsDecode() {
		sm.logger.Debug("discarding undecodable session", zap.Error(err))
		err = nil
	}
	return sess, err
}

// SignIn stores u in the session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.GetSession(r)
	sess.Values[isAuthKey] = true
	for k, p := range u.fields() {
		sess.Values[k] = *p
	}
	return sess.Save(r, w)
}

// SignOut clears the session and expires the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.GetSession(r)
	clear(sess.Values)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser attaches the signed-in user, if any, to the request.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.GetSession(r)
		if ok, _ := sess.Values[isAuthKey].(bool); ok {
			u := &SessionUser{}
			for k, p := range u.fields() {
				*p, _ = sess.Values[k].(string)
			}
			r = attach(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects anonymous requests. Browsers are sent to the login
// page with a return URL (HX-Redirect for htmx); other clients get 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			deny(w, r, http.StatusUnauthorized, loginURL(r))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits signed-in users whose role is one of allowed, compared
// case-insensitively. Other users land on /forbidden or get 403.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	roles := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		roles[strings.ToLower(strings.TrimSpace(role))] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			switch {
			case !ok:
				deny(w, r, http.StatusUnauthorized, loginURL(r))
			case !roles[strings.ToLower(u.Role)]:
				deny(w, r, http.StatusForbidden, "/forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// deny answers htmx with a full-page HX-Redirect, browsers with a 303 and
// everything else with a plain status body.
func deny(w http.ResponseWriter, r *http.Request, status int, target string) {
	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(status)
	case strings.Contains(r.Header.Get("Accept"), "text/html"):
		http.Redirect(w, r, target, http.StatusSeeOther)
	default:
		http.Error(w, strings.ToLower(http.StatusText(status)), status)
	}
}

func loginURL(r *http.Request) string {
	return "/login?return=" + url.QueryEscape(r.URL.RequestURI())
}
