// internal/app/features/organizations/edit.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/app/workflow/orgmgmt"
)

// HandleCreate handles POST /organizations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in orgmgmt.Input
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.Create(ctx, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, org)
}

// HandleEdit handles PUT /organizations/{id}. Omitted fields are unchanged.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
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
	var in orgmgmt.Input
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Orgs.Update(ctx, id, orgID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, org)
}
