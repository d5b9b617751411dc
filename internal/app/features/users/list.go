// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/domain/models"
)

// ServeList handles GET /users.
//
// The body is a bare JSON array. Without a pageSize parameter every user
// is returned; the scoped total is always sent in X-Total-Count.
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
	if !r.URL.Query().Has("pageSize") {
		req.PageSize = paging.Unbounded
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Users.List(ctx, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Result == nil {
		res.Result = []models.User{}
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(res.Count, 10))
	shared.OK(w, res.Result)
}
