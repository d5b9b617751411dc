// internal/app/features/organizations/routes.go
package organizations

import "github.com/go-chi/chi/v5"

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// LIST (members see their organizations; global tiers see all)
	r.Get("/", h.ServeList)

	// CREATE (global admin)
	r.Post("/", h.HandleCreate)

	// VIEW / EDIT / DELETE
	r.Get("/{id}", h.ServeView)
	r.Put("/{id}", h.HandleEdit)
	r.Delete("/{id}", h.HandleDelete)

	// ROLES (approved org admin or global admin)
	r.Get("/{id}/roles", h.ServeRoles)
	r.Post("/{id}/roles/{roleID}/approve", h.HandleApproveRole)
	r.Post("/{id}/roles/{roleID}/remove", h.HandleRemoveRole)

	return r
}
