// internal/domain/models/domain.go
package models

import (
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DomainStatus is the review status of a discovered asset.
type DomainStatus string

const (
	DomainPending   DomainStatus = "pending"
	DomainApproved  DomainStatus = "approved"
	DomainDisavowed DomainStatus = "disavowed"
)

// Valid reports whether s is a known review status.
func (s DomainStatus) Valid() bool {
	switch s {
	case DomainPending, DomainApproved, DomainDisavowed:
		return true
	}
	return false
}

// Domain is a discovered network asset belonging to exactly one organization.
type Domain struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organizationId"`
	Name           string              `bson:"name" json:"name"`
	ReverseName    string              `bson:"reverse_name" json:"reverseName"`
	IP             string              `bson:"ip,omitempty" json:"ip,omitempty"`
	Status         DomainStatus        `bson:"status" json:"status"`
	ReviewedBy     *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}

// ReverseDomainName returns name with its labels reversed
// ("www.example.com" -> "com.example.www") so sorting groups subdomains
// under their parent.
func ReverseDomainName(name string) string {
	labels := strings.Split(name, ".")
	slices.Reverse(labels)
	return strings.Join(labels, ".")
}
