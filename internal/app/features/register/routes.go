// internal/app/features/register/routes.go
package register

import (
	"github.com/dalemusser/projectdash/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRegister)
	r.With(limiter.Middleware).Post("/", h.HandleRegister)
	r.Post("/validate", h.HandleValidateField)
	return r
}
