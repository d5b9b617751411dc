// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
)

// ServeList handles GET /organizations and responds with {result, count}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := shared.QueryRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Orgs.List(ctx, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, res)
}
