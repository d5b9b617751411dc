// internal/app/features/organizations/delete.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
)

// HandleDelete handles DELETE /organizations/{id}. Organizations that still
// own domains are refused with reason has_dependents.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Orgs.Delete(ctx, id, orgID); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, map[string]any{"deleted": true})
}
