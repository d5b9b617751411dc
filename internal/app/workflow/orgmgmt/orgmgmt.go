// Package orgmgmt implements organization lifecycle and role approval.
package orgmgmt

import (
	"context"
	"errors"
	"strings"

	organizationstore "github.com/dalemusser/crossfeed/internal/app/store/organizations"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/authz"
	"github.com/dalemusser/crossfeed/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/system/txn"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type OrgStore interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	Update(ctx context.Context, org models.Organization) (models.Organization, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Search(ctx context.Context, q scoping.Query) ([]models.Organization, int64, error)
}

type RoleStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error)
	ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Role, error)
	Approve(ctx context.Context, id, approver primitive.ObjectID) (models.Role, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteByOrg(ctx context.Context, orgID primitive.ObjectID) (int64, error)
}

type DomainCounter interface {
	CountByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error)
}

// Deps groups the collaborators a Service needs. Client may be nil.
type Deps struct {
	Orgs    OrgStore
	Roles   RoleStore
	Domains DomainCounter
	Scoper  *scoping.Scoper
	Client  *mongo.Client
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

type Service struct {
	Deps
	validate *validator.Validate
}

func New(deps Deps) *Service {
	return &Service{Deps: deps, validate: validator.New()}
}

// Input is the writable part of an organization. On update, nil fields
// are left alone.
type Input struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	RootDomains []string `json:"rootDomains" validate:"omitempty,dive,max=253"`
	IPBlocks    []string `json:"ipBlocks" validate:"omitempty,dive,cidr|ip"`
	IsPassive   *bool    `json:"isPassive"`
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field, _, _ := strings.Cut(verrs[0].StructField(), "[")
			field = strings.ToLower(field)
			return apperr.Validation("invalid_"+field, verrs[0].Error())
		}
		return apperr.Validation("invalid_input", err.Error())
	}
	return nil
}

func (in Input) apply(org *models.Organization) {
	if in.Name != nil {
		org.Name = htmlsanitize.PlainText(*in.Name)
	}
	if in.RootDomains != nil {
		org.RootDomains = in.RootDomains
	}
	if in.IPBlocks != nil {
		org.IPBlocks = in.IPBlocks
	}
	if in.IsPassive != nil {
		org.IsPassive = *in.IsPassive
	}
}

func duplicate(err error) error {
	if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
		return apperr.Validation("duplicate_name", err.Error())
	}
	return err
}

// Create adds an organization. Only global admins may create.
func (s *Service) Create(ctx context.Context, id *auth.Identity, in Input) (models.Organization, error) {
	if err := authz.Require(id, authz.CreateOrganization{}); err != nil {
		return models.Organization{}, err
	}
	if err := s.check(in); err != nil {
		return models.Organization{}, err
	}
	var org models.Organization
	in.apply(&org)
	if org.Name == "" {
		return models.Organization{}, apperr.Validation("invalid_name", "name is required")
	}

	created, err := s.Orgs.Create(ctx, org)
	if err != nil {
		return models.Organization{}, duplicate(err)
	}
	s.Audit.OrgCreated(ctx, id.UserID(), created)
	return created, nil
}

// Get returns an organization the caller may read.
func (s *Service) Get(ctx context.Context, id *auth.Identity, orgID primitive.ObjectID) (models.Organization, error) {
	org, err := s.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}
	if err := authz.Require(id, authz.OrganizationAction{Org: orgID, Op: authz.OrgRead}); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// List searches the organizations the caller can see.
func (s *Service) List(ctx context.Context, id *auth.Identity, req scoping.Request) (scoping.Result[models.Organization], error) {
	return scoping.Search[models.Organization](ctx, s.Scoper, s.Orgs, id, scoping.Organizations, req)
}

// Update changes an organization's name, root domains, ip blocks, or
// passive flag.
func (s *Service) Update(ctx context.Context, id *auth.Identity, orgID primitive.ObjectID, in Input) (models.Organization, error) {
	org, err := s.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}
	if err := authz.Require(id, authz.OrganizationAction{Org: orgID, Op: authz.OrgUpdate}); err != nil {
		return models.Organization{}, err
	}
	if err := s.check(in); err != nil {
		return models.Organization{}, err
	}
	in.apply(&org)
	if org.Name == "" {
		return models.Organization{}, apperr.Validation("invalid_name", "name is required")
	}

	updated, err := s.Orgs.Update(ctx, org)
	if err != nil {
		return models.Organization{}, duplicate(err)
	}
	s.Audit.OrgUpdated(ctx, id.UserID(), orgID)
	return updated, nil
}

// Delete removes an organization that owns no domains, along with its roles.
func (s *Service) Delete(ctx context.Context, id *auth.Identity, orgID primitive.ObjectID) error {
	if err := authz.Require(id, authz.DeleteOrganization{}); err != nil {
		return err
	}
	if _, err := s.Orgs.GetByID(ctx, orgID); err != nil {
		return err
	}
	n, err := s.Domains.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Validation("has_dependents", "organization still owns domains")
	}

	err = txn.Run(ctx, s.Client, s.Log, func(ctx context.Context) error {
		if _, err := s.Roles.DeleteByOrg(ctx, orgID); err != nil {
			return err
		}
		_, err := s.Orgs.Delete(ctx, orgID)
		return err
	})
	if err != nil {
		return err
	}
	s.Audit.OrgDeleted(ctx, id.UserID(), orgID)
	return nil
}

// ListRoles lists an organization's roles for callers who may manage them.
func (s *Service) ListRoles(ctx context.Context, id *auth.Identity, orgID primitive.ObjectID) ([]models.Role, error) {
	if err := authz.Require(id, authz.OrganizationAction{Org: orgID, Op: authz.OrgManageRoles}); err != nil {
		return nil, err
	}
	return s.Roles.ListByOrg(ctx, orgID)
}

// role loads roleID and checks it belongs to orgID. A role in another
// organization is reported as missing.
func (s *Service) role(ctx context.Context, id *auth.Identity, orgID, roleID primitive.ObjectID) (models.Role, error) {
	if err := authz.Require(id, authz.OrganizationAction{Org: orgID, Op: authz.OrgManageRoles}); err != nil {
		return models.Role{}, err
	}
	r, err := s.Roles.GetByID(ctx, roleID)
	if err != nil {
		return models.Role{}, err
	}
	if r.OrganizationID != orgID {
		return models.Role{}, apperr.NotFound("role", roleID.Hex())
	}
	return r, nil
}

// ApproveRole approves a pending membership.
func (s *Service) ApproveRole(ctx context.Context, id *auth.Identity, orgID, roleID primitive.ObjectID) (models.Role, error) {
	if _, err := s.role(ctx, id, orgID, roleID); err != nil {
		return models.Role{}, err
	}
	r, err := s.Roles.Approve(ctx, roleID, id.UserID())
	if err != nil {
		return models.Role{}, err
	}
	s.Audit.RoleApproved(ctx, id.UserID(), r)
	return r, nil
}

// RemoveRole deletes a membership.
func (s *Service) RemoveRole(ctx context.Context, id *auth.Identity, orgID, roleID primitive.ObjectID) error {
	r, err := s.role(ctx, id, orgID, roleID)
	if err != nil {
		return err
	}
	if _, err := s.Roles.Delete(ctx, roleID); err != nil {
		return err
	}
	s.Audit.RoleRemoved(ctx, id.UserID(), r)
	return nil
}
