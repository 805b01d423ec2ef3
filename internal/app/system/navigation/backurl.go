// Package navigation picks where a request goes next without allowing open
// redirects.
package navigation

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions restricts which "return" values SafeBackURL accepts.
type BackURLOptions struct {
	// AllowedPrefix, when set, must prefix an accepted return path.
	AllowedPrefix string
	// ExcludedSubpaths reject a return path containing any of them, which
	// keeps action pages such as /logout out of the loop.
	ExcludedSubpaths []string
	// Fallback is used when no return value is acceptable.
	Fallback string
	// PreserveQueryParam is copied from the request onto Fallback, unless it
	// is empty or "all". The dashboard uses it to keep its status filter.
	PreserveQueryParam string
}

// AfterSignIn is where login and registration send the user: a safe local
// return URL, or the dashboard. Auth pages are never a destination.
var AfterSignIn = BackURLOptions{
	ExcludedSubpaths: []string{"/login", "/logout", "/register"},
	Fallback:         "/dashboard",
}

// SafeBackURL returns the request's local "return" target (query string
// first, then form body) when opts accepts it, and opts' fallback otherwise.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	if ret := param(r, "return", func(v string) string { return urlutil.SafeReturn(v, "", "") }); opts.accepts(ret) {
		return ret
	}
	return opts.fallback(r)
}

func (o BackURLOptions) accepts(ret string) bool {
	if ret == "" || !strings.HasPrefix(ret, o.AllowedPrefix) {
		return false
	}
	for _, sub := range o.ExcludedSubpaths {
		if strings.Contains(ret, sub) {
			return false
		}
	}
	return true
}

func (o BackURLOptions) fallback(r *http.Request) string {
	if o.PreserveQueryParam == "" {
		return o.Fallback
	}
	v := param(r, o.PreserveQueryParam, strings.TrimSpace)
	if v == "" || strings.EqualFold(v, "all") {
		return o.Fallback
	}
	u, err := url.Parse(o.Fallback)
	if err != nil {
		return o.Fallback
	}
	q := u.Query()
	q.Set(o.PreserveQueryParam, v)
	u.RawQuery = q.Encode()
	return u.String()
}

// param reads name from the query string, falling back to the form body, and
// passes each candidate through clean.
func param(r *http.Request, name string, clean func(string) string) string {
	if v := clean(query.Get(r, name)); v != "" {
		return v
	}
	return clean(strings.TrimSpace(r.FormValue(name)))
}
