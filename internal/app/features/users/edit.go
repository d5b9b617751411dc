// internal/app/features/users/edit.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/app/workflow/usermgmt"
)

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in usermgmt.CreateInput
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := h.Users.Create(ctx, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, u)
}

// HandleUpdate handles PUT /users/{id}.
//
// Sending organization attaches the user to it; see usermgmt.Service.Update
// for which fields need a global admin.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	var in usermgmt.UpdateInput
	if err := shared.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := h.Users.Update(ctx, id, target, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.OK(w, u)
}
