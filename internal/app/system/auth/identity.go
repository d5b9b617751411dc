// internal/app/system/auth/identity.go
package auth

import (
	"sort"

	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership is the caller's role in one organization.
type Membership struct {
	Role     string // models.RoleUser | models.RoleAdmin
	Approved bool
}

// IsApprovedAdmin reports whether m grants organization administration.
func (m Membership) IsApprovedAdmin() bool {
	return m.Approved && m.Role == models.RoleAdmin
}

// Identity is the authenticated caller for one request. It is immutable
// once built; all accessors return copies.
type Identity struct {
	userID      primitive.ObjectID
	tier        models.UserType
	memberships map[primitive.ObjectID]Membership
}

// NewIdentity builds an Identity. Unknown tiers are treated as standard.
func NewIdentity(userID primitive.ObjectID, tier models.UserType, memberships map[primitive.ObjectID]Membership) *Identity {
	if !tier.Valid() {
		tier = models.UserTypeStandard
	}
	m := make(map[primitive.ObjectID]Membership, len(memberships))
	for org, ms := range memberships {
		m[org] = ms
	}
	return &Identity{userID: userID, tier: tier, memberships: m}
}

// IdentityFromRoles builds an Identity from a user's stored role rows.
func IdentityFromRoles(userID primitive.ObjectID, tier models.UserType, roles []models.Role) *Identity {
	m := make(map[primitive.ObjectID]Membership, len(roles))
	for _, r := range roles {
		m[r.OrganizationID] = Membership{Role: r.Role, Approved: r.Approved}
	}
	return NewIdentity(userID, tier, m)
}

func (i *Identity) UserID() primitive.ObjectID { return i.userID }

func (i *Identity) Tier() models.UserType { return i.tier }

// Membership returns the caller's membership in org, if any.
func (i *Identity) Membership(org primitive.ObjectID) (Membership, bool) {
	m, ok := i.memberships[org]
	return m, ok
}

// OrgIDs returns every organization the caller belongs to, approved or
// not, in a stable order.
func (i *Identity) OrgIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(i.memberships))
	for id := range i.memberships {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].Hex() < ids[b].Hex() })
	return ids
}

// HasGlobalView reports whether the caller can see every organization.
func (i *Identity) HasGlobalView() bool {
	return i.tier == models.UserTypeGlobalView || i.tier == models.UserTypeGlobalAdmin
}

// IsGlobalAdmin reports whether the caller can act on every organization.
func (i *Identity) IsGlobalAdmin() bool {
	return i.tier == models.UserTypeGlobalAdmin
}
