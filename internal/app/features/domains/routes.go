// internal/app/features/domains/routes.go
package domains

import "github.com/go-chi/chi/v5"

// Routes mounts the domain routes (typically under "/domains").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/search", h.HandleSearch)
	r.Post("/update-status", h.HandleUpdateStatus)
	r.Get("/{id}", h.ServeView)

	return r
}
