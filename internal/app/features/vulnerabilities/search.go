// internal/app/features/vulnerabilities/search.go
package vulnerabilities

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/domain/models"
)

// HandleSearch handles POST /vulnerabilities/search. Rows carry a reference
// to their domain; vulnerabilities whose domain is gone are never returned.
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

	res, err := scoping.Search[models.Vulnerability](ctx, h.Scoper, h.Vulns, id, scoping.Vulnerabilities, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Result == nil {
		res.Result = []models.Vulnerability{}
	}
	shared.OK(w, res)
}
