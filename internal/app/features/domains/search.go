// internal/app/features/domains/search.go
package domains

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/domain/models"
)

// HandleSearch handles POST /domains/search. The body is a scoping.Request
// and the response is {result, count}.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req scoping.Request
	if err := shared.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := scoping.Search[models.Domain](ctx, h.Scoper, h.Domains, id, scoping.Domains, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Result == nil {
		res.Result = []models.Domain{}
	}
	shared.OK(w, res)
}

// ServeView handles GET /domains/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	domainID, err := shared.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Review.Get(ctx, id, domainID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, d)
}
