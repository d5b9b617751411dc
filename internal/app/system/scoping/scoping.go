// Package scoping turns a caller's search request into a query that can
// only see the organizations the caller belongs to.
//
// Standard callers always have the organization filter replaced with their
// memberships, whatever they asked for. Global tiers may narrow to one
// organization, or see everything.
package scoping

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrganizationFilter is the filter key that selects an organization.
const OrganizationFilter = "organization"

// Request is a caller-supplied search.
type Request struct {
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Sort     string            `json:"sort"`
	Order    string            `json:"order"` // ASC | DESC
	Filters  map[string]string `json:"filters"`

	// ShowAll asks a global-tier caller to ignore the organization filter.
	// It never widens a standard caller's scope.
	ShowAll bool `json:"showAll"`
}

// Query is a scoped search ready for a store.
type Query struct {
	Kind   Kind
	Filter bson.M
	Sort   bson.D
	Window paging.Window

	// Global is true when no organization restriction applies. Otherwise
	// OrgIDs lists the only organizations rows may belong to; it may be
	// empty, in which case nothing matches.
	Global bool
	OrgIDs []primitive.ObjectID
}

// FindOptions returns sort, skip, and limit for a Find.
func (q Query) FindOptions() *options.FindOptions {
	find := options.Find().SetSort(q.Sort)
	q.Window.ApplyToFind(find)
	return find
}

// PageStages returns $sort, $skip, and $limit pipeline stages.
func (q Query) PageStages() []bson.D {
	stages := []bson.D{{{Key: "$sort", Value: q.Sort}}}
	if !q.Window.Unbounded() {
		stages = append(stages,
			bson.D{{Key: "$skip", Value: q.Window.Skip}},
			bson.D{{Key: "$limit", Value: q.Window.Limit}},
		)
	}
	return stages
}

// Scoper builds scoped queries.
type Scoper struct {
	limits paging.Limits
}

// New returns a Scoper using limits for page sizes.
func New(limits paging.Limits) *Scoper {
	return &Scoper{limits: limits}
}

// Scope validates req and restricts it to what id may see.
func (s *Scoper) Scope(id *auth.Identity, kind Kind, req Request) (Query, error) {
	if id == nil {
		return Query{}, apperr.Authentication("no identity", nil)
	}
	def, ok := kinds[kind]
	if !ok {
		return Query{}, apperr.Validation("unknown_kind", fmt.Sprintf("unknown search kind %q", kind))
	}
	if def.orgPath == "" && !id.HasGlobalView() {
		return Query{}, apperr.Forbidden("search " + string(kind))
	}

	filter := bson.M{}
	orgRaw := ""
	for key, val := range req.Filters {
		if key == OrganizationFilter && def.orgPath != "" {
			orgRaw = strings.TrimSpace(val)
			continue
		}
		fs, ok := def.filters[key]
		if !ok {
			return Query{}, apperr.Validation("unknown_filter", fmt.Sprintf("unknown filter %q", key))
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if fs.valid != nil && !fs.valid(val) {
			return Query{}, apperr.Validation("invalid_filter", fmt.Sprintf("invalid value for %s: %q", key, val))
		}
		filter[fs.path] = fs.build(val)
	}

	q := Query{Kind: kind}
	switch {
	case def.orgPath == "":
		q.Global = true
	case !id.HasGlobalView():
		q.OrgIDs = id.OrgIDs()
	case orgRaw != "" && !req.ShowAll:
		org, err := primitive.ObjectIDFromHex(orgRaw)
		if err != nil {
			return Query{}, apperr.Validation("invalid_filter", "organization must be an id")
		}
		q.OrgIDs = []primitive.ObjectID{org}
	default:
		q.Global = true
	}
	if !q.Global {
		filter[def.orgPath] = bson.M{"$in": q.OrgIDs}
	}
	q.Filter = filter

	sortField := "created_at"
	if req.Sort != "" {
		f, ok := def.sorts[req.Sort]
		if !ok {
			return Query{}, apperr.Validation("unknown_sort", fmt.Sprintf("cannot sort by %q", req.Sort))
		}
		sortField = f
	}
	dir := 1
	switch strings.ToUpper(req.Order) {
	case "", "ASC":
	case "DESC":
		dir = -1
	default:
		return Query{}, apperr.Validation("invalid_order", "order must be ASC or DESC")
	}
	q.Sort = bson.D{{Key: sortField, Value: dir}, {Key: "_id", Value: dir}}

	w, err := s.limits.Normalize(req.Page, req.PageSize)
	if err != nil {
		return Query{}, err
	}
	q.Window = w
	return q, nil
}

// Searcher executes scoped queries against one collection. The count is
// the total number of matching rows ignoring the window.
type Searcher[T any] interface {
	Search(ctx context.Context, q Query) ([]T, int64, error)
}

// Result is a page of rows plus the scoped total.
type Result[T any] struct {
	Result []T   `json:"result"`
	Count  int64 `json:"count"`
}

// Search scopes req for id and runs it.
func Search[T any](ctx context.Context, s *Scoper, searcher Searcher[T], id *auth.Identity, kind Kind, req Request) (Result[T], error) {
	q, err := s.Scope(id, kind, req)
	if err != nil {
		return Result[T]{}, err
	}
	rows, count, err := searcher.Search(ctx, q)
	if err != nil {
		return Result[T]{}, err
	}
	if rows == nil {
		rows = []T{}
	}
	return Result[T]{Result: rows, Count: count}, nil
}
