// internal/app/features/domains/handler.go
package domains

import (
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/workflow/domainreview"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves domain search and review.
type Handler struct {
	Review  *domainreview.Service
	Domains scoping.Searcher[models.Domain]
	Scoper  *scoping.Scoper
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(review *domainreview.Service, domains scoping.Searcher[models.Domain], scoper *scoping.Scoper, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Review:  review,
		Domains: domains,
		Scoper:  scoper,
		Audit:   audit,
		Log:     logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.Fail(w, r, h.Audit, h.Log, err)
}
