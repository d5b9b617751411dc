// internal/app/features/vulnerabilities/view.go
package vulnerabilities

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/domain/models"
)

// ServeView handles GET /vulnerabilities/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vulnID, err := shared.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.States.Get(ctx, id, vulnID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, v)
}

type updateRequest struct {
	Substate models.Substate `json:"substate"`
}

// HandleUpdate handles PUT /vulnerabilities/{id} with {"substate": "..."}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vulnID, err := shared.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in updateRequest
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.States.Transition(ctx, id, vulnID, in.Substate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, v)
}
