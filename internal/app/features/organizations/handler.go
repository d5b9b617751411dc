// internal/app/features/organizations/handler.go
package organizations

import (
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/workflow/orgmgmt"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Orgs  *orgmgmt.Service
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a new Organizations handler bound to the
// organization management workflow.
func NewHandler(svc *orgmgmt.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:  svc,
		Audit: audit,
		Log:   logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.Fail(w, r, h.Audit, h.Log, err)
}
