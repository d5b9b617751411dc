// internal/app/features/domains/review.go
package domains

import (
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/app/workflow/domainreview"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type updateStatusRequest struct {
	IDs    []string            `json:"ids"`
	Status models.DomainStatus `json:"status"`

	// Refresh is the caller's current search. When present the response
	// carries page 1 of the pending domains it still matches.
	Refresh *scoping.Request `json:"refresh,omitempty"`
}

type updateStatusResponse struct {
	domainreview.Outcome
	Pending *scoping.Result[models.Domain] `json:"pending,omitempty"`
}

// HandleUpdateStatus handles POST /domains/update-status.
//
// The batch is all or nothing: a malformed, missing, or unauthorized id
// denies the whole request before anything is written.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in updateStatusRequest
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	// Malformed ids become the nil id, which never resolves.
	ids := make([]primitive.ObjectID, len(in.IDs))
	for i, raw := range in.IDs {
		ids[i], _ = primitive.ObjectIDFromHex(raw)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "domain review")
	defer cancel()

	out, err := h.Review.Review(ctx, id, ids, in.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := updateStatusResponse{Outcome: out}
	if in.Refresh != nil {
		pending, err := scoping.Search[models.Domain](ctx, h.Scoper, h.Domains, id, scoping.Domains, domainreview.PendingRequest(*in.Refresh))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if pending.Result == nil {
			pending.Result = []models.Domain{}
		}
		resp.Pending = &pending
	}
	shared.OK(w, resp)
}
