// Package domainreview approves or disavows discovered domains in batches.
//
// A batch is all-or-nothing at authorization time: every id must exist and
// be reviewable by the caller before anything is written. Writes only ever
// move a domain out of pending, so re-reviewing a domain is a no-op.
package domainreview

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/authz"
	"github.com/dalemusser/crossfeed/internal/app/system/metrics"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store reads domains and writes review outcomes.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Domain, error)
	SetStatus(ctx context.Context, ids []primitive.ObjectID, status models.DomainStatus, reviewer primitive.ObjectID, now time.Time) (int64, error)
}

// Outcome reports how many requested domains changed. Unchanged domains
// had already been reviewed.
type Outcome struct {
	BatchID   string `json:"batchId"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
}

type Service struct {
	store Store
	audit *auditlog.Logger
	log   *zap.Logger
	now   func() time.Time
}

func New(store Store, audit *auditlog.Logger, log *zap.Logger) *Service {
	return &Service{
		store: store,
		audit: audit,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a domain the caller may read.
func (s *Service) Get(ctx context.Context, id *auth.Identity, domainID primitive.ObjectID) (models.Domain, error) {
	d, err := s.store.GetByID(ctx, domainID)
	if err != nil {
		return models.Domain{}, err
	}
	if err := authz.Require(id, authz.DomainAction{Org: d.OrganizationID, Op: authz.DomainRead}); err != nil {
		return models.Domain{}, err
	}
	return d, nil
}

func checkStatus(status models.DomainStatus) error {
	switch status {
	case models.DomainApproved, models.DomainDisavowed:
		return nil
	case models.DomainPending:
		return apperr.InvalidTransition("reopen_not_allowed", "reviewed domains cannot return to pending")
	}
	return apperr.Validation("invalid_status", fmt.Sprintf("unknown domain status %q", status))
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Review moves every pending domain in domainIDs to status.
func (s *Service) Review(ctx context.Context, id *auth.Identity, domainIDs []primitive.ObjectID, status models.DomainStatus) (Outcome, error) {
	if err := checkStatus(status); err != nil {
		return Outcome{}, err
	}
	ids := dedupe(domainIDs)
	if len(ids) == 0 {
		return Outcome{}, apperr.Validation("empty_batch", "no domains to review")
	}

	domains, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return Outcome{}, err
	}
	if len(domains) != len(ids) {
		// A missing id fails the batch exactly like a denied one.
		return Outcome{}, apperr.Forbidden(authz.DomainAction{Op: authz.DomainReview}.Name())
	}
	// perOrg counts requested domains by organization, in first-seen order.
	var orgs []primitive.ObjectID
	perOrg := make(map[primitive.ObjectID]int)
	for _, d := range domains {
		if _, ok := perOrg[d.OrganizationID]; !ok {
			if err := authz.Require(id, authz.DomainAction{Org: d.OrganizationID, Op: authz.DomainReview}); err != nil {
				return Outcome{}, err
			}
			orgs = append(orgs, d.OrganizationID)
		}
		perOrg[d.OrganizationID]++
	}

	updated, err := s.store.SetStatus(ctx, ids, status, id.UserID(), s.now())
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		BatchID:   uuid.NewString(),
		Updated:   int(updated),
		Unchanged: len(ids) - int(updated),
	}
	metrics.RecordReview(string(status), out.Updated, out.Unchanged)
	for _, org := range orgs {
		s.audit.DomainsReviewed(ctx, id.UserID(), org, out.BatchID, status, perOrg[org], out.Updated)
	}
	s.log.Info("domains reviewed",
		zap.String("batch_id", out.BatchID),
		zap.String("status", string(status)),
		zap.Int("updated", out.Updated),
		zap.Int("unchanged", out.Unchanged))
	return out, nil
}

// PendingRequest returns base narrowed to pending domains on page 1. After a
// review shrinks the pending set, reloading page 1 shows the next domains
// awaiting review instead of skipping past them.
func PendingRequest(base scoping.Request) scoping.Request {
	filters := make(map[string]string, len(base.Filters)+1)
	for k, v := range base.Filters {
		filters[k] = v
	}
	filters["status"] = string(models.DomainPending)
	base.Filters = filters
	base.Page = 1
	return base
}
