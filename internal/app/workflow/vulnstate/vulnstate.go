// Package vulnstate applies analyst substate changes to vulnerabilities.
//
// Every substate is reachable from every other; the coarse state is always
// recomputed from the substate being written. Concurrent writers are not
// serialized: the last accepted write wins.
package vulnstate

import (
	"context"
	"fmt"
	"time"

	vulnerabilitystore "github.com/dalemusser/crossfeed/internal/app/store/vulnerabilities"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/authz"
	"github.com/dalemusser/crossfeed/internal/app/system/metrics"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ActionStateChange is the history entry type written on a substate change.
const ActionStateChange = "state-change"

// Resolver finds a vulnerability and the organization that owns it.
type Resolver interface {
	Vulnerability(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, models.Vulnerability, error)
}

// Store persists substate writes.
type Store interface {
	SetSubstate(ctx context.Context, id primitive.ObjectID, ch vulnerabilitystore.SubstateChange) error
}

type Service struct {
	resolver Resolver
	store    Store
	audit    *auditlog.Logger
	log      *zap.Logger
	now      func() time.Time
}

func New(resolver Resolver, store Store, audit *auditlog.Logger, log *zap.Logger) *Service {
	return &Service{
		resolver: resolver,
		store:    store,
		audit:    audit,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock; tests use it to pin timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns a vulnerability the caller may read.
func (s *Service) Get(ctx context.Context, id *auth.Identity, vulnID primitive.ObjectID) (models.Vulnerability, error) {
	org, v, err := s.resolver.Vulnerability(ctx, vulnID)
	if err != nil {
		return models.Vulnerability{}, err
	}
	if err := authz.Require(id, authz.VulnerabilityAction{Org: org, Op: authz.VulnRead}); err != nil {
		return models.Vulnerability{}, err
	}
	return v, nil
}

// Transition sets the vulnerability's substate and derived state. Writing
// the current substate again only refreshes updatedAt.
func (s *Service) Transition(ctx context.Context, id *auth.Identity, vulnID primitive.ObjectID, substate models.Substate) (models.Vulnerability, error) {
	state, ok := models.StateFor(substate)
	if !ok {
		return models.Vulnerability{}, apperr.Validation("invalid_substate", fmt.Sprintf("unknown substate %q", substate))
	}

	org, v, err := s.resolver.Vulnerability(ctx, vulnID)
	if err != nil {
		return models.Vulnerability{}, err
	}
	if err := authz.Require(id, authz.VulnerabilityAction{Org: org, Op: authz.VulnWrite}); err != nil {
		return models.Vulnerability{}, err
	}

	now := s.now()
	ch := vulnerabilitystore.SubstateChange{Substate: substate, State: state, At: now}
	changed := v.Substate != substate
	if changed {
		ch.Action = &models.VulnerabilityAction{
			Type:     ActionStateChange,
			Substate: substate,
			State:    state,
			UserID:   id.UserID(),
			Date:     now,
		}
	}
	if err := s.store.SetSubstate(ctx, vulnID, ch); err != nil {
		return models.Vulnerability{}, err
	}

	from := v.Substate
	v.Substate = substate
	v.State = state
	v.UpdatedAt = now
	if ch.Action != nil {
		v.Actions = append(v.Actions, *ch.Action)
	}

	metrics.RecordTransition(string(substate))
	if changed {
		s.audit.VulnerabilityTransitioned(ctx, id.UserID(), org, vulnID, from, substate)
	}
	s.log.Debug("vulnerability substate written",
		zap.String("vuln_id", vulnID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(substate)))
	return v, nil
}
