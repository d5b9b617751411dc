// internal/app/features/users/handler.go
package users

import (
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/workflow/usermgmt"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Users.
type Handler struct {
	Users *usermgmt.Service
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a Users handler bound to the user management workflow.
func NewHandler(svc *usermgmt.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users: svc,
		Audit: audit,
		Log:   logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.Fail(w, r, h.Audit, h.Log, err)
}
