// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/store/audit"
	auditlogger "github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type userLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type orgLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Organization, error)
}

type Handler struct {
	Events *audit.Store
	Users  userLookup
	Orgs   orgLookup
	Audit  *auditlogger.Logger
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler. users and orgs are
// used only to put names next to ids.
func NewHandler(events *audit.Store, users userLookup, orgs orgLookup, audit *auditlogger.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Orgs:   orgs,
		Audit:  audit,
		Log:    logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.Fail(w, r, h.Audit, h.Log, err)
}
