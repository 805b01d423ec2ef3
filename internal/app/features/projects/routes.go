// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the project pages, typically at "/project" so rows of the
// dashboard table link to /project/{id}.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/new", h.ServeNew)
		pr.Post("/new", h.HandleCreate)

		pr.Get("/{id}", h.ServeProject)
		pr.Post("/{id}/income", h.HandleAddIncome)
		pr.Post("/{id}/expenses", h.HandleAddExpense)
		pr.Post("/{id}/tasks", h.HandleAddTask)
	})

	return r
}
