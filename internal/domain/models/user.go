// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType is a user's global privilege tier.
type UserType string

const (
	UserTypeStandard    UserType = "standard"
	UserTypeGlobalView  UserType = "globalView"
	UserTypeGlobalAdmin UserType = "globalAdmin"
)

// Valid reports whether t is one of the known tiers.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeStandard, UserTypeGlobalView, UserTypeGlobalAdmin:
		return true
	}
	return false
}

// User is an account that can sign in to the console.
//
// Organization memberships live in the roles collection; Roles is populated
// by the stores when a user is loaded for display and is never persisted on
// the user document itself.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"` // stored lowercase
	FirstName string             `bson:"first_name" json:"firstName"`
	LastName  string             `bson:"last_name" json:"lastName"`
	FullName  string             `bson:"full_name" json:"fullName"`
	UserType  UserType           `bson:"user_type" json:"userType"`

	Roles []Role `bson:"-" json:"roles"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
