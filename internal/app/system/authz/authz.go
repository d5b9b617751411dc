// Package authz decides whether an authenticated caller may perform an
// action on a resource. Every function here is pure: callers resolve the
// owning organization first and pass it in.
//
// Deny is the default. A global tier never needs a membership, and an
// approved organization admin never needs a global tier.
package authz

import (
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Allowed dispatches a to its predicate. Nil identities and actions are
// denied.
func Allowed(id *auth.Identity, a Action) bool {
	if id == nil {
		return false
	}
	switch a := a.(type) {
	case CreateUser:
		return CanCreateUser(id)
	case ListUsers:
		return CanListUsers(id)
	case ReadUser:
		return CanReadUser(id, a.Target)
	case WriteUser:
		return CanWriteUser(id, a.Target, a.Change)
	case DeleteUser:
		return CanDeleteUser(id, a.Target)
	case DomainAction:
		return CanActOnDomain(id, a.Org, a.Op)
	case VulnerabilityAction:
		return CanActOnVulnerability(id, a.Org, a.Op)
	case CreateOrganization:
		return CanCreateOrganization(id)
	case DeleteOrganization:
		return CanDeleteOrganization(id)
	case OrganizationAction:
		return CanActOnOrganization(id, a.Org, a.Op)
	case ListAuditEvents:
		return CanListAuditEvents(id)
	}
	return false
}

func CanCreateUser(id *auth.Identity) bool {
	return id.IsGlobalAdmin()
}

func CanListUsers(id *auth.Identity) bool {
	return id.HasGlobalView()
}

func CanReadUser(id *auth.Identity, target primitive.ObjectID) bool {
	return id.UserID() == target || id.HasGlobalView()
}

// CanWriteUser allows self-edits and global admins. A self-edit may not
// touch userType, approve a role, or grant the admin role.
func CanWriteUser(id *auth.Identity, target primitive.ObjectID, change UserChange) bool {
	if id.IsGlobalAdmin() {
		return true
	}
	return id.UserID() == target && !change.Privileged()
}

func CanDeleteUser(id *auth.Identity, target primitive.ObjectID) bool {
	return id.UserID() == target || id.IsGlobalAdmin()
}

func CanActOnDomain(id *auth.Identity, org primitive.ObjectID, op DomainOp) bool {
	switch op {
	case DomainRead:
		return isMember(id, org) || id.HasGlobalView()
	case DomainReview:
		return isApprovedAdmin(id, org) || id.IsGlobalAdmin()
	}
	return false
}

func CanActOnVulnerability(id *auth.Identity, org primitive.ObjectID, op VulnOp) bool {
	switch op {
	case VulnRead:
		return isMember(id, org) || id.HasGlobalView()
	case VulnWrite:
		return isApprovedMember(id, org) || id.IsGlobalAdmin()
	}
	return false
}

func CanCreateOrganization(id *auth.Identity) bool {
	return id.IsGlobalAdmin()
}

func CanDeleteOrganization(id *auth.Identity) bool {
	return id.IsGlobalAdmin()
}

// CanListAuditEvents allows the global tiers to read the audit trail.
func CanListAuditEvents(id *auth.Identity) bool {
	return id.HasGlobalView()
}

func CanActOnOrganization(id *auth.Identity, org primitive.ObjectID, op OrgOp) bool {
	switch op {
	case OrgRead:
		return isMember(id, org) || id.HasGlobalView()
	case OrgUpdate, OrgManageRoles:
		return isApprovedAdmin(id, org) || id.IsGlobalAdmin()
	}
	return false
}

// isMember counts unapproved memberships; read access follows membership,
// not approval.
func isMember(id *auth.Identity, org primitive.ObjectID) bool {
	_, ok := id.Membership(org)
	return ok
}

func isApprovedMember(id *auth.Identity, org primitive.ObjectID) bool {
	m, ok := id.Membership(org)
	return ok && m.Approved && models.ValidRole(m.Role)
}

func isApprovedAdmin(id *auth.Identity, org primitive.ObjectID) bool {
	m, ok := id.Membership(org)
	return ok && m.IsApprovedAdmin()
}
