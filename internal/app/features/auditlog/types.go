// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"
)

// listItem represents a single audit event row.
type listItem struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Category       string            `json:"category"`
	EventType      string            `json:"eventType"`
	ActorID        string            `json:"actorId,omitempty"`
	ActorEmail     string            `json:"actorEmail,omitempty"` // resolved from ActorID
	UserID         string            `json:"userId,omitempty"`
	UserEmail      string            `json:"userEmail,omitempty"` // resolved from UserID
	OrganizationID string            `json:"organizationId,omitempty"`
	OrgName        string            `json:"organizationName,omitempty"`
	Resource       string            `json:"resource,omitempty"`
	ResourceID     string            `json:"resourceId,omitempty"`
	RequestID      string            `json:"requestId,omitempty"`
	IP             string            `json:"ip,omitempty"`
	Success        bool              `json:"success"`
	FailureReason  string            `json:"failureReason,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Result     []listItem `json:"result"`
	Count      int64      `json:"count"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}
