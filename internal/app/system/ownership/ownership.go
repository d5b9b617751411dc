// Package ownership resolves which organization owns a resource so the
// authorization engine can decide on it.
//
// A vulnerability's organization is always looked up through its domain;
// it is not stored on the finding.
package ownership

import (
	"context"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

type DomainGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error)
}

type VulnerabilityGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Vulnerability, error)
}

type OrganizationGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// Resolver loads resources and reports their owner. Missing resources
// produce apperr not-found errors.
type Resolver struct {
	users   UserGetter
	domains DomainGetter
	vulns   VulnerabilityGetter
	orgs    OrganizationGetter
}

// New constructs a Resolver.
func New(users UserGetter, domains DomainGetter, vulns VulnerabilityGetter, orgs OrganizationGetter) *Resolver {
	return &Resolver{users: users, domains: domains, vulns: vulns, orgs: orgs}
}

// User loads a user. A user owns itself, so the user's id is the owner.
func (r *Resolver) User(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.users.GetByID(ctx, id)
}

// Domain returns the domain and its organization.
func (r *Resolver) Domain(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, models.Domain, error) {
	d, err := r.domains.GetByID(ctx, id)
	if err != nil {
		return primitive.NilObjectID, models.Domain{}, err
	}
	return d.OrganizationID, d, nil
}

// Vulnerability returns the finding and the organization of its domain.
// The returned finding carries a reference to that domain.
func (r *Resolver) Vulnerability(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, models.Vulnerability, error) {
	v, err := r.vulns.GetByID(ctx, id)
	if err != nil {
		return primitive.NilObjectID, models.Vulnerability{}, err
	}
	d, err := r.domains.GetByID(ctx, v.DomainID)
	if err != nil {
		if apperr.IsNotFound(err) {
			// An orphaned finding is treated as missing.
			return primitive.NilObjectID, models.Vulnerability{}, apperr.NotFound("vulnerability", id.Hex())
		}
		return primitive.NilObjectID, models.Vulnerability{}, err
	}
	v.Domain = &models.DomainRef{ID: d.ID, Name: d.Name, OrganizationID: d.OrganizationID}
	return d.OrganizationID, v, nil
}

// Organization loads an organization; it owns itself.
func (r *Resolver) Organization(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	return r.orgs.GetByID(ctx, id)
}
