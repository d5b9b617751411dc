// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes mounts all User routes under the base path (typically "/users"
// from bootstrap). Callers must already be authenticated; each handler
// asks the authorization engine about its own action.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	// "me" is registered ahead of {id} so it is never parsed as an id.
	r.Get("/me", h.ServeMe)

	r.Get("/{id}", h.ServeView)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
