// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/store/audit"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/authz"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit-events.
//
// Query parameters: category, eventType, organization, actor, startDate and
// endDate (YYYY-MM-DD, inclusive), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	id, err := shared.Identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := authz.Require(id, authz.ListAuditEvents{}); err != nil {
		h.fail(w, r, err)
		return
	}

	filter, page, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Collect unique user IDs and org IDs for name resolution
	userIDs := map[primitive.ObjectID]struct{}{}
	orgIDs := map[primitive.ObjectID]struct{}{}
	for _, e := range events {
		if e.ActorID != nil {
			userIDs[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			userIDs[*e.UserID] = struct{}{}
		}
		if e.OrganizationID != nil {
			orgIDs[*e.OrganizationID] = struct{}{}
		}
	}

	emails := map[primitive.ObjectID]string{}
	if users, err := h.Users.GetByIDs(ctx, keys(userIDs)); err != nil {
		h.Log.Warn("failed to fetch user emails for audit log", zap.Error(err))
	} else {
		for _, u := range users {
			emails[u.ID] = u.Email
		}
	}

	orgNames := map[primitive.ObjectID]string{}
	if orgs, err := h.Orgs.GetByIDs(ctx, keys(orgIDs)); err != nil {
		h.Log.Warn("failed to fetch org names for audit log", zap.Error(err))
	} else {
		for _, o := range orgs {
			orgNames[o.ID] = o.Name
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			Resource:      e.Resource,
			ResourceID:    e.ResourceID,
			RequestID:     e.RequestID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorEmail = emails[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
			item.UserEmail = emails[*e.UserID]
		}
		if e.OrganizationID != nil {
			item.OrganizationID = e.OrganizationID.Hex()
			item.OrgName = orgNames[*e.OrganizationID]
		}
		items = append(items, item)
	}

	shared.OK(w, listResponse{
		Result:     items,
		Count:      total,
		Page:       page,
		TotalPages: paging.PageCount(total, pageSize),
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("eventType")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	for key, dst := range map[string]**primitive.ObjectID{
		"organization": &filter.OrganizationID,
		"actor":        &filter.ActorID,
	} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return audit.QueryFilter{}, 0, apperr.Validation("invalid_filter", key+" must be an id")
		}
		*dst = &oid
	}

	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return audit.QueryFilter{}, 0, apperr.Validation("invalid_filter", "startDate must be YYYY-MM-DD")
		}
		filter.StartTime = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return audit.QueryFilter{}, 0, apperr.Validation("invalid_filter", "endDate must be YYYY-MM-DD")
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	return filter, page, nil
}

func keys(m map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
