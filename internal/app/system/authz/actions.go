// internal/app/system/authz/actions.go
package authz

import "go.mongodb.org/mongo-driver/bson/primitive"

// Action is a closed set of requests the engine can decide. Only the types
// in this file implement it.
type Action interface {
	Name() string
	isAction()
}

// DomainOp is an operation on a domain.
type DomainOp int

const (
	DomainRead DomainOp = iota + 1
	DomainReview
)

// VulnOp is an operation on a vulnerability.
type VulnOp int

const (
	VulnRead VulnOp = iota + 1
	VulnWrite
)

// OrgOp is an operation on an organization.
type OrgOp int

const (
	OrgRead OrgOp = iota + 1
	OrgUpdate
	OrgManageRoles
)

// UserChange describes the privileged parts of a user update payload.
type UserChange struct {
	ChangesUserType bool // userType differs from the stored value
	SetsApproved    bool // approved=true on an organization role
	GrantsAdmin     bool // role=admin on an organization role
}

// Privileged reports whether the change needs a global administrator.
func (c UserChange) Privileged() bool {
	return c.ChangesUserType || c.SetsApproved || c.GrantsAdmin
}

type (
	CreateUser struct{}
	ListUsers  struct{}
	ReadUser   struct{ Target primitive.ObjectID }
	WriteUser  struct {
		Target primitive.ObjectID
		Change UserChange
	}
	DeleteUser struct{ Target primitive.ObjectID }

	DomainAction struct {
		Org primitive.ObjectID
		Op  DomainOp
	}
	VulnerabilityAction struct {
		Org primitive.ObjectID
		Op  VulnOp
	}

	CreateOrganization struct{}
	DeleteOrganization struct{}
	ListAuditEvents    struct{}
	OrganizationAction struct {
		Org primitive.ObjectID
		Op  OrgOp
	}
)

func (CreateUser) Name() string { return "create_user" }
func (ListUsers) Name() string  { return "list_users" }
func (ReadUser) Name() string   { return "read_user" }
func (WriteUser) Name() string  { return "write_user" }
func (DeleteUser) Name() string { return "delete_user" }

func (a DomainAction) Name() string {
	if a.Op == DomainReview {
		return "review_domain"
	}
	return "read_domain"
}

func (a VulnerabilityAction) Name() string {
	if a.Op == VulnWrite {
		return "write_vulnerability"
	}
	return "read_vulnerability"
}

func (CreateOrganization) Name() string { return "create_organization" }
func (DeleteOrganization) Name() string { return "delete_organization" }
func (ListAuditEvents) Name() string    { return "list_audit_events" }

func (a OrganizationAction) Name() string {
	switch a.Op {
	case OrgUpdate:
		return "update_organization"
	case OrgManageRoles:
		return "manage_roles"
	}
	return "read_organization"
}

func (CreateUser) isAction()          {}
func (ListUsers) isAction()           {}
func (ReadUser) isAction()            {}
func (WriteUser) isAction()           {}
func (DeleteUser) isAction()          {}
func (DomainAction) isAction()        {}
func (VulnerabilityAction) isAction() {}
func (CreateOrganization) isAction()  {}
func (DeleteOrganization) isAction()  {}
func (OrganizationAction) isAction()  {}
func (ListAuditEvents) isAction()     {}
