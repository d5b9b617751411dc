// internal/app/features/organizations/roles.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeRoles handles GET /organizations/{id}/roles.
func (h *Handler) ServeRoles(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orgID, err := shared.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	roles, err := h.Orgs.ListRoles(ctx, id, orgID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, roles)
}

func roleParams(r *http.Request) (orgID, roleID primitive.ObjectID, err error) {
	if orgID, err = shared.ObjectID(r, "id"); err != nil {
		return
	}
	roleID, err = shared.ObjectID(r, "roleID")
	return
}

// HandleApproveRole handles POST /organizations/{id}/roles/{roleID}/approve.
func (h *Handler) HandleApproveRole(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orgID, roleID, err := roleParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	role, err := h.Orgs.ApproveRole(ctx, id, orgID, roleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, role)
}

// HandleRemoveRole handles POST /organizations/{id}/roles/{roleID}/remove.
func (h *Handler) HandleRemoveRole(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orgID, roleID, err := roleParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Orgs.RemoveRole(ctx, id, orgID, roleID); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, map[string]any{"removed": true})
}
