// internal/app/system/auth/builder.go
package auth

import (
	"context"
	"strings"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/tokens"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*tokens.Claims, error)
}

// UserLoader loads the stored user named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// RoleLoader loads a user's organization roles.
type RoleLoader interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error)
}

// Builder turns a bearer token into an Identity.
type Builder struct {
	verifier TokenVerifier
	users    UserLoader
	roles    RoleLoader

	// allowOverrides lets token claims replace the stored tier and roles.
	// Only the test harness enables it.
	allowOverrides bool
}

// NewBuilder constructs a Builder.
func NewBuilder(verifier TokenVerifier, users UserLoader, roles RoleLoader, allowOverrides bool) *Builder {
	return &Builder{verifier: verifier, users: users, roles: roles, allowOverrides: allowOverrides}
}

// Build verifies raw and loads the caller. It fails with an authentication
// error when the token is invalid or names a user that does not exist.
func (b *Builder) Build(ctx context.Context, raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		raw = strings.TrimSpace(after)
	}
	if raw == "" {
		return nil, apperr.Authentication("missing token", nil)
	}

	claims, err := b.verifier.Verify(raw)
	if err != nil {
		return nil, apperr.Authentication("invalid token", err)
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		return nil, apperr.Authentication("invalid subject", err)
	}

	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Authentication("unknown user", err)
		}
		return nil, err
	}

	tier := user.UserType
	if b.allowOverrides && claims.UserType != "" {
		tier = models.UserType(claims.UserType)
	}

	if b.allowOverrides && claims.Roles != nil {
		return NewIdentity(user.ID, tier, membershipsFromClaims(claims.Roles)), nil
	}

	roles, err := b.roles.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return IdentityFromRoles(user.ID, tier, roles), nil
}

func membershipsFromClaims(claims []tokens.RoleClaim) map[primitive.ObjectID]Membership {
	m := make(map[primitive.ObjectID]Membership, len(claims))
	for _, c := range claims {
		org, err := primitive.ObjectIDFromHex(c.Org)
		if err != nil || !models.ValidRole(c.Role) {
			continue
		}
		m[org] = Membership{Role: c.Role, Approved: c.Approved}
	}
	return m
}
