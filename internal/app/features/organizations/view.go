// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
)

// ServeView handles GET /organizations/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
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

	org, err := h.Orgs.Get(ctx, id, orgID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, org)
}
