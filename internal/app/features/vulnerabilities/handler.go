// internal/app/features/vulnerabilities/handler.go
package vulnerabilities

import (
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/workflow/vulnstate"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves vulnerability search and triage.
type Handler struct {
	States *vulnstate.Service
	Vulns  scoping.Searcher[models.Vulnerability]
	Scoper *scoping.Scoper
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func NewHandler(states *vulnstate.Service, vulns scoping.Searcher[models.Vulnerability], scoper *scoping.Scoper, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		States: states,
		Vulns:  vulns,
		Scoper: scoper,
		Audit:  audit,
		Log:    logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.Fail(w, r, h.Audit, h.Log, err)
}
