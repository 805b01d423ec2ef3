// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
//
// Every control post carries the view id in the "view" form field; the
// region snippet is swapped back by HTMX.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeDashboard)
		pr.Get("/region", h.ServeRegion)
		pr.Get("/export.csv", h.ServeExport)

		pr.Post("/filter", h.HandleFilter)
		pr.Post("/reset", h.HandleReset)
		pr.Post("/page/next", h.HandleNextPage)
		pr.Post("/page/prev", h.HandlePrevPage)
		pr.Post("/viewport", h.HandleViewport)
		pr.Post("/visibility", h.HandleVisibility)
		pr.Post("/refresh", h.HandleRefresh)
		pr.Post("/retry", h.HandleRefresh)
	})

	return r
}
