// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/projectdash/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// RenderUnauthorized shows a friendly “sign in required” page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	vm := viewdata.NewBaseVM(r, "Sign in required", backURL)
	vm.BackURL = backURL

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_forbidden", pageData{
		BaseVM:  vm,
		Message: "Please sign in to continue.",
	})
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	vm := viewdata.NewBaseVM(r, "Access denied", "/")
	if backURL != "" {
		vm.BackURL = backURL
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_forbidden", pageData{
		BaseVM:  vm,
		Message: msg,
	})
}

// RenderNotFound shows the generic error page with a 404 and msg.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderStatus(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// renderStatus shows the generic error page with the given status code.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	vm := viewdata.NewBaseVM(r, title, "/")
	if backURL != "" {
		vm.BackURL = backURL
	}

	// HTMX requests swap the message into the page's error slot.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Retarget", "#page-error")
		w.Header().Set("HX-Reswap", "innerHTML")
		w.WriteHeader(status)
		templates.RenderSnippet(w, "error_inline", pageData{BaseVM: vm, Message: msg})
		return
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_page", pageData{BaseVM: vm, Message: msg})
}
