// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/crossfeed/internal/app/store/audit"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each value is "all" (MongoDB +
// zap), "db" (MongoDB only), "log" (zap only), or "off".
type Config struct {
	Admin     string // users, organizations, roles
	Lifecycle string // domain reviews, vulnerability transitions
	Security  string // denied requests
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request metadata                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const requestMetaKey ctxKey = "auditRequestMeta"

type requestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// RequestMeta stores a request id, client IP, and user agent in the request
// context so events logged deeper in the stack can carry them.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestMeta{
			RequestID: uuid.NewString(),
			IP:        getClientIP(r),
			UserAgent: r.UserAgent(),
		}
		w.Header().Set("X-Request-ID", meta.RequestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestMetaKey, meta)))
	})
}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(requestMetaKey).(requestMeta)
	return m
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

/*─────────────────────────────────────────────────────────────────────────────*
| Core                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", event.Resource), zap.String("resource_id", event.ResourceID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration. A nil Logger is a
// no-op so tests can omit auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryLifecycle:
		setting = l.config.Lifecycle
	case audit.CategorySecurity:
		setting = l.config.Security
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	meta := metaFrom(ctx)
	if event.RequestID == "" {
		event.RequestID = meta.RequestID
	}
	if event.IP == "" {
		event.IP = meta.IP
	}
	if event.UserAgent == "" {
		event.UserAgent = meta.UserAgent
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin events                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) admin(ctx context.Context, eventType string, actor primitive.ObjectID, user, org *primitive.ObjectID, resource, resourceID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      eventType,
		ActorID:        &actor,
		UserID:         user,
		OrganizationID: org,
		Resource:       resource,
		ResourceID:     resourceID,
		Success:        true,
		Details:        details,
	})
}

// UserCreated logs creation of user by actor.
func (l *Logger) UserCreated(ctx context.Context, actor primitive.ObjectID, user models.User) {
	l.admin(ctx, audit.EventUserCreated, actor, &user.ID, nil, "user", user.ID.Hex(), map[string]string{
		"email":     user.Email,
		"user_type": string(user.UserType),
	})
}

// UserUpdated logs an update to user; fields names the changed fields.
func (l *Logger) UserUpdated(ctx context.Context, actor, user primitive.ObjectID, fields []string) {
	details := make(map[string]string, len(fields))
	for _, f := range fields {
		details["changed_"+f] = "true"
	}
	l.admin(ctx, audit.EventUserUpdated, actor, &user, nil, "user", user.Hex(), details)
}

// UserDeleted logs deletion of user.
func (l *Logger) UserDeleted(ctx context.Context, actor, user primitive.ObjectID, affected int64) {
	l.admin(ctx, audit.EventUserDeleted, actor, &user, nil, "user", user.Hex(), map[string]string{
		"affected": strconv.FormatInt(affected, 10),
	})
}

// RoleCreated logs a new organization role.
func (l *Logger) RoleCreated(ctx context.Context, actor primitive.ObjectID, role models.Role) {
	l.admin(ctx, audit.EventRoleCreated, actor, &role.UserID, &role.OrganizationID, "role", role.ID.Hex(), map[string]string{
		"role":     role.Role,
		"approved": strconv.FormatBool(role.Approved),
	})
}

// RoleApproved logs approval of a role.
func (l *Logger) RoleApproved(ctx context.Context, actor primitive.ObjectID, role models.Role) {
	l.admin(ctx, audit.EventRoleApproved, actor, &role.UserID, &role.OrganizationID, "role", role.ID.Hex(), map[string]string{
		"role": role.Role,
	})
}

// RoleRemoved logs removal of a role.
func (l *Logger) RoleRemoved(ctx context.Context, actor primitive.ObjectID, role models.Role) {
	l.admin(ctx, audit.EventRoleRemoved, actor, &role.UserID, &role.OrganizationID, "role", role.ID.Hex(), nil)
}

// OrgCreated logs creation of an organization.
func (l *Logger) OrgCreated(ctx context.Context, actor primitive.ObjectID, org models.Organization) {
	l.admin(ctx, audit.EventOrgCreated, actor, nil, &org.ID, "organization", org.ID.Hex(), map[string]string{"name": org.Name})
}

// OrgUpdated logs an update to an organization.
func (l *Logger) OrgUpdated(ctx context.Context, actor, org primitive.ObjectID) {
	l.admin(ctx, audit.EventOrgUpdated, actor, nil, &org, "organization", org.Hex(), nil)
}

// OrgDeleted logs deletion of an organization.
func (l *Logger) OrgDeleted(ctx context.Context, actor, org primitive.ObjectID) {
	l.admin(ctx, audit.EventOrgDeleted, actor, nil, &org, "organization", org.Hex(), nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Lifecycle events                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// DomainsReviewed logs the part of a review batch that belongs to org.
// A batch spanning several organizations logs one event per organization,
// all sharing batchID. batchUpdated counts writes across the whole batch.
func (l *Logger) DomainsReviewed(ctx context.Context, actor, org primitive.ObjectID, batchID string, status models.DomainStatus, requested, batchUpdated int) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      audit.EventDomainsReviewed,
		ActorID:        &actor,
		OrganizationID: &org,
		Resource:       "domain",
		ResourceID:     batchID,
		Success:        true,
		Details: map[string]string{
			"status":        string(status),
			"requested":     strconv.Itoa(requested),
			"batch_updated": strconv.Itoa(batchUpdated),
		},
	})
}

// VulnerabilityTransitioned logs an accepted substate write.
func (l *Logger) VulnerabilityTransitioned(ctx context.Context, actor, org primitive.ObjectID, vuln primitive.ObjectID, from, to models.Substate) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryLifecycle,
		EventType:      audit.EventVulnerabilityTransitioned,
		ActorID:        &actor,
		OrganizationID: &org,
		Resource:       "vulnerability",
		ResourceID:     vuln.Hex(),
		Success:        true,
		Details: map[string]string{
			"from": string(from),
			"to":   string(to),
		},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Security events                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// AccessDenied logs a request the authorization engine refused.
func (l *Logger) AccessDenied(ctx context.Context, actor primitive.ObjectID, action string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAccessDenied,
		ActorID:       &actor,
		Success:       false,
		FailureReason: action,
	})
}
