// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity page. Only company admins can see it.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		pr.Get("/", h.ServeList)
	})
	return r
}
