package authz_test

import (
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/authz"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	orgA = primitive.NewObjectID()
	orgB = primitive.NewObjectID()
)

func identity(tier models.UserType, ms map[primitive.ObjectID]auth.Membership) *auth.Identity {
	return auth.NewIdentity(primitive.NewObjectID(), tier, ms)
}

func standard(ms map[primitive.ObjectID]auth.Membership) *auth.Identity {
	return identity(models.UserTypeStandard, ms)
}

func TestUserActions(t *testing.T) {
	self := standard(nil)
	other := primitive.NewObjectID()
	view := identity(models.UserTypeGlobalView, nil)
	admin := identity(models.UserTypeGlobalAdmin, nil)

	tests := []struct {
		name   string
		id     *auth.Identity
		action authz.Action
		want   bool
	}{
		{"standard cannot create user", self, authz.CreateUser{}, false},
		{"globalView cannot create user", view, authz.CreateUser{}, false},
		{"globalAdmin creates user", admin, authz.CreateUser{}, true},

		{"standard cannot list users", self, authz.ListUsers{}, false},
		{"globalView lists users", view, authz.ListUsers{}, true},
		{"globalAdmin lists users", admin, authz.ListUsers{}, true},

		{"read self", self, authz.ReadUser{Target: self.UserID()}, true},
		{"read other as standard", self, authz.ReadUser{Target: other}, false},
		{"read other as globalView", view, authz.ReadUser{Target: other}, true},

		{"write self", self, authz.WriteUser{Target: self.UserID()}, true},
		{"write other as standard", self, authz.WriteUser{Target: other}, false},
		{"write other as globalView", view, authz.WriteUser{Target: other}, false},
		{"write other as globalAdmin", admin, authz.WriteUser{Target: other}, true},
		{"self sets approved", self, authz.WriteUser{Target: self.UserID(), Change: authz.UserChange{SetsApproved: true}}, false},
		{"self changes userType", self, authz.WriteUser{Target: self.UserID(), Change: authz.UserChange{ChangesUserType: true}}, false},
		{"self grants admin role", self, authz.WriteUser{Target: self.UserID(), Change: authz.UserChange{GrantsAdmin: true}}, false},
		{"globalView changes own userType", view, authz.WriteUser{Target: view.UserID(), Change: authz.UserChange{ChangesUserType: true}}, false},
		{"globalAdmin approves for other", admin, authz.WriteUser{Target: other, Change: authz.UserChange{SetsApproved: true, GrantsAdmin: true}}, true},

		{"delete self", self, authz.DeleteUser{Target: self.UserID()}, true},
		{"globalView deletes other", view, authz.DeleteUser{Target: other}, false},
		{"globalAdmin deletes other", admin, authz.DeleteUser{Target: other}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.Allowed(tt.id, tt.action); got != tt.want {
				t.Errorf("Allowed(%s) = %v, want %v", tt.action.Name(), got, tt.want)
			}
		})
	}
}

func TestOrganizationScopedActions(t *testing.T) {
	approvedAdmin := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: models.RoleAdmin, Approved: true}})
	pendingAdmin := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: models.RoleAdmin, Approved: false}})
	approvedUser := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: models.RoleUser, Approved: true}})
	pendingUser := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: models.RoleUser, Approved: false}})
	outsider := standard(map[primitive.ObjectID]auth.Membership{orgB: {Role: models.RoleAdmin, Approved: true}})
	view := identity(models.UserTypeGlobalView, nil)
	admin := identity(models.UserTypeGlobalAdmin, nil)

	domainRead := authz.DomainAction{Org: orgA, Op: authz.DomainRead}
	domainReview := authz.DomainAction{Org: orgA, Op: authz.DomainReview}
	vulnRead := authz.VulnerabilityAction{Org: orgA, Op: authz.VulnRead}
	vulnWrite := authz.VulnerabilityAction{Org: orgA, Op: authz.VulnWrite}
	orgRead := authz.OrganizationAction{Org: orgA, Op: authz.OrgRead}
	orgUpdate := authz.OrganizationAction{Org: orgA, Op: authz.OrgUpdate}
	manageRoles := authz.OrganizationAction{Org: orgA, Op: authz.OrgManageRoles}

	tests := []struct {
		name   string
		id     *auth.Identity
		action authz.Action
		want   bool
	}{
		{"approved admin reads domain", approvedAdmin, domainRead, true},
		{"unapproved user reads domain", pendingUser, domainRead, true},
		{"outsider reads domain", outsider, domainRead, false},
		{"globalView reads domain", view, domainRead, true},

		{"approved admin reviews domain", approvedAdmin, domainReview, true},
		{"unapproved admin reviews domain", pendingAdmin, domainReview, false},
		{"approved user reviews domain", approvedUser, domainReview, false},
		{"outsider admin reviews domain", outsider, domainReview, false},
		{"globalView reviews domain", view, domainReview, false},
		{"globalAdmin reviews domain", admin, domainReview, true},

		{"unapproved user reads vuln", pendingUser, vulnRead, true},
		{"outsider reads vuln", outsider, vulnRead, false},
		{"globalView reads vuln", view, vulnRead, true},

		{"approved user writes vuln", approvedUser, vulnWrite, true},
		{"approved admin writes vuln", approvedAdmin, vulnWrite, true},
		{"unapproved user writes vuln", pendingUser, vulnWrite, false},
		{"outsider writes vuln", outsider, vulnWrite, false},
		{"globalView writes vuln", view, vulnWrite, false},
		{"globalAdmin writes vuln", admin, vulnWrite, true},

		{"member reads org", pendingUser, orgRead, true},
		{"outsider reads org", outsider, orgRead, false},
		{"approved admin updates org", approvedAdmin, orgUpdate, true},
		{"approved user updates org", approvedUser, orgUpdate, false},
		{"globalView updates org", view, orgUpdate, false},
		{"approved admin manages roles", approvedAdmin, manageRoles, true},
		{"unapproved admin manages roles", pendingAdmin, manageRoles, false},
		{"globalAdmin manages roles", admin, manageRoles, true},

		{"standard creates org", approvedAdmin, authz.CreateOrganization{}, false},
		{"globalAdmin creates org", admin, authz.CreateOrganization{}, true},
		{"org admin deletes org", approvedAdmin, authz.DeleteOrganization{}, false},
		{"globalAdmin deletes org", admin, authz.DeleteOrganization{}, true},

		{"org admin lists audit events", approvedAdmin, authz.ListAuditEvents{}, false},
		{"globalView lists audit events", view, authz.ListAuditEvents{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.Allowed(tt.id, tt.action); got != tt.want {
				t.Errorf("Allowed(%s) = %v, want %v", tt.action.Name(), got, tt.want)
			}
		})
	}
}

// A globalAdmin tier allows every action regardless of membership.
func TestGlobalAdminBypass(t *testing.T) {
	admin := identity(models.UserTypeGlobalAdmin, nil)
	other := primitive.NewObjectID()
	actions := []authz.Action{
		authz.CreateUser{},
		authz.ListUsers{},
		authz.ReadUser{Target: other},
		authz.WriteUser{Target: other, Change: authz.UserChange{ChangesUserType: true}},
		authz.DeleteUser{Target: other},
		authz.DomainAction{Org: orgB, Op: authz.DomainRead},
		authz.DomainAction{Org: orgB, Op: authz.DomainReview},
		authz.VulnerabilityAction{Org: orgB, Op: authz.VulnRead},
		authz.VulnerabilityAction{Org: orgB, Op: authz.VulnWrite},
		authz.CreateOrganization{},
		authz.DeleteOrganization{},
		authz.OrganizationAction{Org: orgB, Op: authz.OrgUpdate},
		authz.ListAuditEvents{},
	}
	for _, a := range actions {
		if !authz.Allowed(admin, a) {
			t.Errorf("globalAdmin denied %s", a.Name())
		}
	}
}

func TestDefaultDeny(t *testing.T) {
	id := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: models.RoleAdmin, Approved: true}})

	if authz.Allowed(nil, authz.ListUsers{}) {
		t.Error("nil identity must be denied")
	}
	if authz.Allowed(id, nil) {
		t.Error("nil action must be denied")
	}
	if authz.Allowed(id, authz.DomainAction{Org: orgA}) {
		t.Error("zero domain op must be denied")
	}
	if authz.Allowed(id, authz.VulnerabilityAction{Org: orgA, Op: 99}) {
		t.Error("unknown vuln op must be denied")
	}
	// A membership record with an unknown role name grants nothing beyond read.
	odd := standard(map[primitive.ObjectID]auth.Membership{orgA: {Role: "owner", Approved: true}})
	if authz.Allowed(odd, authz.VulnerabilityAction{Org: orgA, Op: authz.VulnWrite}) {
		t.Error("unknown role must not grant write")
	}
}

func TestRequire(t *testing.T) {
	view := identity(models.UserTypeGlobalView, nil)

	if err := authz.Require(view, authz.ListUsers{}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	err := authz.Require(view, authz.DeleteUser{Target: primitive.NewObjectID()})
	if !apperr.IsAuthorization(err) {
		t.Errorf("expected authorization error, got %v", err)
	}
}
