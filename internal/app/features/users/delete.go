// internal/app/features/users/delete.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
)

// HandleDelete handles DELETE /users/{id} and responds with {"affected": n}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	target, err := shared.ObjectID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Users.Delete(ctx, id, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, res)
}
