// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization role names.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is a known organization role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// Role links a user to an organization. A (user, organization) pair has at
// most one Role; the unique index uniq_roles_user_org enforces it.
type Role struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"userId"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organizationId"`
	Role           string              `bson:"role" json:"role"` // user | admin
	Approved       bool                `bson:"approved" json:"approved"`
	CreatedBy      *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	ApprovedBy     *primitive.ObjectID `bson:"approved_by,omitempty" json:"approvedBy,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}
