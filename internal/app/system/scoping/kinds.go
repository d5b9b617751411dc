// internal/app/system/scoping/kinds.go
package scoping

import (
	"regexp"
	"strings"

	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names a searchable resource collection.
type Kind string

const (
	Domains         Kind = "domains"
	Vulnerabilities Kind = "vulnerabilities"
	Organizations   Kind = "organizations"
	Users           Kind = "users"
)

// filterSpec maps one filter key to a document path and match mode.
type filterSpec struct {
	path  string
	build func(v string) any
	valid func(v string) bool
}

type kindSpec struct {
	// orgPath is the path holding the owning organization id. Empty means
	// the kind is not organization-owned and is visible to global tiers only.
	orgPath string
	filters map[string]filterSpec
	sorts   map[string]string
}

func exact(path string, valid func(string) bool) filterSpec {
	return filterSpec{path: path, build: func(v string) any { return v }, valid: valid}
}

// contains matches a case-insensitive substring.
func contains(path string) filterSpec {
	return filterSpec{path: path, build: func(v string) any {
		return primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
	}}
}

// foldedContains matches a substring of a folded (_ci) field.
func foldedContains(path string) filterSpec {
	return filterSpec{path: path, build: func(v string) any {
		return primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(v))}
	}}
}

func upper(path string) filterSpec {
	return filterSpec{path: path, build: func(v string) any { return strings.ToUpper(v) }}
}

func validDomainStatus(v string) bool { return models.DomainStatus(v).Valid() }

func validUserType(v string) bool { return models.UserType(v).Valid() }

func validSubstate(v string) bool {
	_, ok := models.StateFor(models.Substate(v))
	return ok
}

func validState(v string) bool {
	return v == string(models.StateOpen) || v == string(models.StateClosed)
}

var kinds = map[Kind]kindSpec{
	Domains: {
		orgPath: "organization_id",
		filters: map[string]filterSpec{
			"status": exact("status", validDomainStatus),
			"name":   contains("name"),
			"ip":     contains("ip"),
		},
		sorts: map[string]string{
			"name":        "name",
			"reverseName": "reverse_name",
			"ip":          "ip",
			"status":      "status",
			"createdAt":   "created_at",
			"updatedAt":   "updated_at",
		},
	},
	Vulnerabilities: {
		orgPath: "domain.organization_id",
		filters: map[string]filterSpec{
			"title":    contains("title"),
			"domain":   contains("domain.name"),
			"severity": exact("severity", models.ValidSeverity),
			"state":    exact("state", validState),
			"substate": exact("substate", validSubstate),
			"cve":      upper("cve"),
		},
		sorts: map[string]string{
			"title":     "title",
			"severity":  "severity",
			"state":     "state",
			"substate":  "substate",
			"domain":    "domain.name",
			"lastSeen":  "last_seen",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
	},
	Organizations: {
		orgPath: "_id",
		filters: map[string]filterSpec{
			"name": foldedContains("name_ci"),
		},
		sorts: map[string]string{
			"name":      "name_ci",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
	},
	Users: {
		filters: map[string]filterSpec{
			"email":    contains("email"),
			"name":     contains("full_name"),
			"userType": exact("user_type", validUserType),
		},
		sorts: map[string]string{
			"email":     "email",
			"firstName": "first_name",
			"lastName":  "last_name",
			"userType":  "user_type",
			"createdAt": "created_at",
		},
	},
}
