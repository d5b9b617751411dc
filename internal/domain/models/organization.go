// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization owns domains and, through them, vulnerabilities.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // folded for search/sort
	RootDomains []string           `bson:"root_domains" json:"rootDomains"`
	IPBlocks    []string           `bson:"ip_blocks" json:"ipBlocks"`
	IsPassive   bool               `bson:"is_passive" json:"isPassive"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
