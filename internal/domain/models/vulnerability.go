// internal/domain/models/vulnerability.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VulnState is the coarse open/closed state of a finding. It is always
// derived from the substate and never set independently.
type VulnState string

const (
	StateOpen   VulnState = "open"
	StateClosed VulnState = "closed"
)

// Substate is the analyst-facing disposition of a finding.
type Substate string

const (
	SubstateUnconfirmed   Substate = "unconfirmed"
	SubstateExploitable   Substate = "exploitable"
	SubstateFalsePositive Substate = "false-positive"
	SubstateAcceptedRisk  Substate = "accepted-risk"
	SubstateRemediated    Substate = "remediated"
)

// Substates lists every substate in display order.
var Substates = []Substate{
	SubstateUnconfirmed,
	SubstateExploitable,
	SubstateFalsePositive,
	SubstateAcceptedRisk,
	SubstateRemediated,
}

// StateFor maps a substate to its state. ok is false for unknown substates.
func StateFor(s Substate) (VulnState, bool) {
	switch s {
	case SubstateUnconfirmed, SubstateExploitable:
		return StateOpen, true
	case SubstateFalsePositive, SubstateAcceptedRisk, SubstateRemediated:
		return StateClosed, true
	}
	return "", false
}

// Severity ratings.
const (
	SeverityNone     = "None"
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// ValidSeverity reports whether s is a known severity rating.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// VulnerabilityAction records one substate change.
type VulnerabilityAction struct {
	Type     string             `bson:"type" json:"type"` // always "state-change"
	Substate Substate           `bson:"substate" json:"substate"`
	State    VulnState          `bson:"state" json:"state"`
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Date     time.Time          `bson:"date" json:"date"`
}

// DomainRef is the slice of a domain embedded in vulnerability search rows.
type DomainRef struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
}

// Vulnerability is a finding on a domain. Its organization is the domain's
// organization and is not stored on the finding.
type Vulnerability struct {
	ID          primitive.ObjectID    `bson:"_id" json:"id"`
	DomainID    primitive.ObjectID    `bson:"domain_id" json:"domainId"`
	Title       string                `bson:"title" json:"title"`
	CVE         string                `bson:"cve,omitempty" json:"cve,omitempty"`
	CWE         string                `bson:"cwe,omitempty" json:"cwe,omitempty"`
	CPE         string                `bson:"cpe,omitempty" json:"cpe,omitempty"`
	Description string                `bson:"description,omitempty" json:"description,omitempty"`
	Severity    string                `bson:"severity,omitempty" json:"severity,omitempty"`
	State       VulnState             `bson:"state" json:"state"`
	Substate    Substate              `bson:"substate" json:"substate"`
	LastSeen    *time.Time            `bson:"last_seen,omitempty" json:"lastSeen,omitempty"`
	Actions     []VulnerabilityAction `bson:"actions,omitempty" json:"actions"`

	// Domain is filled from a $lookup on reads and omitted on inserts.
	Domain *DomainRef `bson:"domain,omitempty" json:"domain,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
