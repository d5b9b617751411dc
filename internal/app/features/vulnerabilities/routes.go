// internal/app/features/vulnerabilities/routes.go
package vulnerabilities

import "github.com/go-chi/chi/v5"

// Routes mounts the vulnerability routes (typically under "/vulnerabilities").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/search", h.HandleSearch)
	r.Get("/{id}", h.ServeView)
	r.Put("/{id}", h.HandleUpdate)

	return r
}
