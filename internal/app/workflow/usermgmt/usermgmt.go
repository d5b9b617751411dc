// Package usermgmt implements account operations: invite, read, list,
// update, and delete. Users may always read, edit, and delete themselves;
// only global tiers see other users and only global admins change them.
package usermgmt

import (
	"context"
	"errors"
	"strings"

	userstore "github.com/dalemusser/crossfeed/internal/app/store/users"
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

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Search(ctx context.Context, q scoping.Query) ([]models.User, int64, error)
}

type RoleStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error)
	ListByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.Role, error)
	Ensure(ctx context.Context, userID, orgID primitive.ObjectID, role string, approved bool, createdBy *primitive.ObjectID) (models.Role, bool, error)
	Approve(ctx context.Context, id, approver primitive.ObjectID) (models.Role, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type OrganizationGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// Deps groups the collaborators a Service needs. Client may be nil, in
// which case multi-collection writes run without a transaction.
type Deps struct {
	Users  UserStore
	Roles  RoleStore
	Orgs   OrganizationGetter
	Scoper *scoping.Scoper
	Client *mongo.Client
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

type Service struct {
	Deps
	validate *validator.Validate
}

func New(deps Deps) *Service {
	return &Service{Deps: deps, validate: validator.New()}
}

// CreateInput is an invitation. Organization and Role optionally attach
// the new user to an organization with an approved role.
type CreateInput struct {
	FirstName    string          `json:"firstName" validate:"max=100"`
	LastName     string          `json:"lastName" validate:"max=100"`
	Email        string          `json:"email" validate:"required,email,max=254"`
	UserType     models.UserType `json:"userType" validate:"omitempty,oneof=standard globalView globalAdmin"`
	Organization string          `json:"organization" validate:"omitempty,len=24,hexadecimal"`
	Role         string          `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateInput changes a user. Nil fields are left alone. Organization
// attaches the user to an organization, creating a role when none exists.
type UpdateInput struct {
	FirstName    *string          `json:"firstName" validate:"omitempty,max=100"`
	LastName     *string          `json:"lastName" validate:"omitempty,max=100"`
	UserType     *models.UserType `json:"userType" validate:"omitempty,oneof=standard globalView globalAdmin"`
	Organization string           `json:"organization" validate:"omitempty,len=24,hexadecimal"`
	Role         string           `json:"role" validate:"omitempty,oneof=user admin"`
	Approved     *bool            `json:"approved"`
}

// Change reports the privileged parts of in relative to the stored user.
func (in UpdateInput) Change(current models.User) authz.UserChange {
	return authz.UserChange{
		ChangesUserType: in.UserType != nil && *in.UserType != current.UserType,
		SetsApproved:    in.Approved != nil && *in.Approved,
		GrantsAdmin:     in.Role == models.RoleAdmin,
	}
}

// DeleteResult reports how many user records were removed.
type DeleteResult struct {
	Affected int64 `json:"affected"`
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation("invalid_"+strings.ToLower(verrs[0].Field()), verrs[0].Error())
		}
		return apperr.Validation("invalid_input", err.Error())
	}
	return nil
}

// organization resolves a hex organization id from a payload. A missing
// organization is a validation error here: the caller is naming a target,
// not requesting one.
func (s *Service) organization(ctx context.Context, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid_organization", "organization must be an id")
	}
	if _, err := s.Orgs.GetByID(ctx, id); err != nil {
		if apperr.IsNotFound(err) {
			return primitive.NilObjectID, apperr.Validation("unknown_organization", "organization does not exist")
		}
		return primitive.NilObjectID, err
	}
	return id, nil
}

func (s *Service) withRoles(ctx context.Context, u models.User) (models.User, error) {
	roles, err := s.Roles.ListByUser(ctx, u.ID)
	if err != nil {
		return models.User{}, err
	}
	u.Roles = roles
	return u, nil
}

// Create invites a new user. Only global admins may invite.
func (s *Service) Create(ctx context.Context, id *auth.Identity, in CreateInput) (models.User, error) {
	if err := authz.Require(id, authz.CreateUser{}); err != nil {
		return models.User{}, err
	}
	if err := s.check(in); err != nil {
		return models.User{}, err
	}

	var orgID primitive.ObjectID
	if in.Organization != "" {
		var err error
		if orgID, err = s.organization(ctx, in.Organization); err != nil {
			return models.User{}, err
		}
	}

	u, err := s.Users.Create(ctx, models.User{
		Email:     in.Email,
		FirstName: htmlsanitize.PlainText(in.FirstName),
		LastName:  htmlsanitize.PlainText(in.LastName),
		UserType:  in.UserType,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return models.User{}, apperr.Validation("duplicate_email", err.Error())
		}
		return models.User{}, err
	}
	actor := id.UserID()
	s.Audit.UserCreated(ctx, actor, u)

	if !orgID.IsZero() {
		role := in.Role
		if role == "" {
			role = models.RoleUser
		}
		r, created, err := s.Roles.Ensure(ctx, u.ID, orgID, role, true, &actor)
		if err != nil {
			return models.User{}, err
		}
		if created {
			s.Audit.RoleCreated(ctx, actor, r)
		}
	}

	s.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("actor_id", actor.Hex()))
	return s.withRoles(ctx, u)
}

// Get returns a user the caller may read, with roles.
func (s *Service) Get(ctx context.Context, id *auth.Identity, target primitive.ObjectID) (models.User, error) {
	if err := authz.Require(id, authz.ReadUser{Target: target}); err != nil {
		return models.User{}, err
	}
	u, err := s.Users.GetByID(ctx, target)
	if err != nil {
		return models.User{}, err
	}
	return s.withRoles(ctx, u)
}

// Me returns the caller's own user record.
func (s *Service) Me(ctx context.Context, id *auth.Identity) (models.User, error) {
	if id == nil {
		return models.User{}, apperr.Authentication("no identity", nil)
	}
	return s.Get(ctx, id, id.UserID())
}

// List searches all users. Only global tiers may list.
func (s *Service) List(ctx context.Context, id *auth.Identity, req scoping.Request) (scoping.Result[models.User], error) {
	if err := authz.Require(id, authz.ListUsers{}); err != nil {
		return scoping.Result[models.User]{}, err
	}
	res, err := scoping.Search[models.User](ctx, s.Scoper, s.Users, id, scoping.Users, req)
	if err != nil {
		return scoping.Result[models.User]{}, err
	}

	ids := make([]primitive.ObjectID, len(res.Result))
	for i, u := range res.Result {
		ids[i] = u.ID
	}
	roles, err := s.Roles.ListByUsers(ctx, ids)
	if err != nil {
		return scoping.Result[models.User]{}, err
	}
	for i := range res.Result {
		res.Result[i].Roles = roles[res.Result[i].ID]
		if res.Result[i].Roles == nil {
			res.Result[i].Roles = []models.Role{}
		}
	}
	return res, nil
}

// Update applies in to target. Callers may edit themselves, but only a
// global admin may change a tier, approve a role, or grant admin.
func (s *Service) Update(ctx context.Context, id *auth.Identity, target primitive.ObjectID, in UpdateInput) (models.User, error) {
	if id == nil {
		return models.User{}, apperr.Authentication("no identity", nil)
	}
	// Self-edits are decided before the lookup so a missing target looks
	// the same as a forbidden one to everyone but global admins.
	if !id.IsGlobalAdmin() && id.UserID() != target {
		return models.User{}, authz.Require(id, authz.WriteUser{Target: target})
	}

	current, err := s.Users.GetByID(ctx, target)
	if err != nil {
		return models.User{}, err
	}
	if err := authz.Require(id, authz.WriteUser{Target: target, Change: in.Change(current)}); err != nil {
		return models.User{}, err
	}
	if err := s.check(in); err != nil {
		return models.User{}, err
	}

	var orgID primitive.ObjectID
	if in.Organization != "" {
		if orgID, err = s.organization(ctx, in.Organization); err != nil {
			return models.User{}, err
		}
	}

	next := current
	var fields []string
	if in.FirstName != nil {
		next.FirstName = htmlsanitize.PlainText(*in.FirstName)
		fields = append(fields, "firstName")
	}
	if in.LastName != nil {
		next.LastName = htmlsanitize.PlainText(*in.LastName)
		fields = append(fields, "lastName")
	}
	if in.UserType != nil {
		next.UserType = *in.UserType
		fields = append(fields, "userType")
	}
	actor := id.UserID()
	if !orgID.IsZero() {
		fields = append(fields, "organization")
	}

	// Role writes go first so a rejected attach leaves the user untouched
	// even where the deployment cannot run transactions.
	var u models.User
	var changes roleChanges
	err = txn.Run(ctx, s.Client, s.Log, func(ctx context.Context) error {
		changes = roleChanges{}
		if !orgID.IsZero() {
			if err := s.attach(ctx, actor, target, orgID, in, &changes); err != nil {
				return err
			}
		}
		var err error
		u, err = s.Users.Update(ctx, next)
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	if changes.created != nil {
		s.Audit.RoleCreated(ctx, actor, *changes.created)
	}
	if changes.approved != nil {
		s.Audit.RoleApproved(ctx, actor, *changes.approved)
	}
	s.Audit.UserUpdated(ctx, actor, target, fields)
	return s.withRoles(ctx, u)
}

// roleChanges records what attach wrote, for auditing after commit.
type roleChanges struct {
	created  *models.Role
	approved *models.Role
}

// attach ensures target has exactly one role in orgID. New roles default
// to an unapproved user role; explicit role and approval values have
// already passed authorization.
func (s *Service) attach(ctx context.Context, actor, target, orgID primitive.ObjectID, in UpdateInput, changes *roleChanges) error {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	approved := in.Approved != nil && *in.Approved

	r, created, err := s.Roles.Ensure(ctx, target, orgID, role, approved, &actor)
	if err != nil {
		return err
	}
	if created {
		changes.created = &r
		return nil
	}
	if in.Role != "" && in.Role != r.Role {
		if err := s.Roles.SetRole(ctx, r.ID, in.Role); err != nil {
			return err
		}
	}
	if approved && !r.Approved {
		approvedRole, err := s.Roles.Approve(ctx, r.ID, actor)
		if err != nil {
			return err
		}
		changes.approved = &approvedRole
	}
	return nil
}

// Delete removes target and its roles. Affected is 0 when the user was
// already gone.
func (s *Service) Delete(ctx context.Context, id *auth.Identity, target primitive.ObjectID) (DeleteResult, error) {
	if err := authz.Require(id, authz.DeleteUser{Target: target}); err != nil {
		return DeleteResult{}, err
	}

	var affected int64
	err := txn.Run(ctx, s.Client, s.Log, func(ctx context.Context) error {
		if _, err := s.Roles.DeleteByUser(ctx, target); err != nil {
			return err
		}
		n, err := s.Users.Delete(ctx, target)
		affected = n
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}

	if affected > 0 {
		s.Audit.UserDeleted(ctx, id.UserID(), target, affected)
	}
	return DeleteResult{Affected: affected}, nil
}
