// internal/app/features/projectsapi/routes.go
package projectsapi

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the JSON API, typically at "/api". Authentication is checked
// per request because both sessions and bearer tokens are accepted.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/project-dashboard-data", h.ServeDashboardData)
	return r
}
