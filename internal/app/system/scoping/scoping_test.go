package scoping_test

import (
	"context"
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	orgA = primitive.NewObjectID()
	orgB = primitive.NewObjectID()
	orgC = primitive.NewObjectID()
)

func member(orgs ...primitive.ObjectID) *auth.Identity {
	ms := map[primitive.ObjectID]auth.Membership{}
	for i, o := range orgs {
		// mix approved and unapproved memberships; both scope reads
		ms[o] = auth.Membership{Role: models.RoleUser, Approved: i%2 == 0}
	}
	return auth.NewIdentity(primitive.NewObjectID(), models.UserTypeStandard, ms)
}

func global(tier models.UserType) *auth.Identity {
	return auth.NewIdentity(primitive.NewObjectID(), tier, nil)
}

func newScoper() *scoping.Scoper { return scoping.New(paging.DefaultLimits) }

func orgIn(t *testing.T, q scoping.Query, path string) []primitive.ObjectID {
	t.Helper()
	cond, ok := q.Filter[path].(bson.M)
	if !ok {
		t.Fatalf("expected %s condition in filter, got %#v", path, q.Filter)
	}
	ids, ok := cond["$in"].([]primitive.ObjectID)
	if !ok {
		t.Fatalf("expected $in list, got %#v", cond)
	}
	return ids
}

func TestScope_StandardCallerFilterIsOverwritten(t *testing.T) {
	id := member(orgA, orgB)
	q, err := newScoper().Scope(id, scoping.Domains, scoping.Request{
		Filters: map[string]string{"organization": orgC.Hex(), "status": "pending"},
	})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if q.Global {
		t.Fatal("standard caller must never get a global query")
	}
	got := orgIn(t, q, "organization_id")
	if len(got) != 2 {
		t.Fatalf("expected both memberships, got %v", got)
	}
	for _, o := range got {
		if o == orgC {
			t.Error("caller-supplied organization leaked into scope")
		}
	}
	if q.Filter["status"] != "pending" {
		t.Errorf("status filter lost: %#v", q.Filter)
	}
}

func TestScope_StandardCallerShowAllDoesNotWiden(t *testing.T) {
	id := member(orgA)
	q, err := newScoper().Scope(id, scoping.Vulnerabilities, scoping.Request{ShowAll: true})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if q.Global {
		t.Fatal("showAll must not widen a standard caller")
	}
	if got := orgIn(t, q, "domain.organization_id"); len(got) != 1 || got[0] != orgA {
		t.Errorf("expected [orgA], got %v", got)
	}
}

func TestScope_StandardCallerWithoutMembershipsMatchesNothing(t *testing.T) {
	q, err := newScoper().Scope(member(), scoping.Domains, scoping.Request{})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	got := orgIn(t, q, "organization_id")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil org list, got %#v", got)
	}
}

func TestScope_GlobalCaller(t *testing.T) {
	tests := []struct {
		name       string
		req        scoping.Request
		wantGlobal bool
	}{
		{"no filter", scoping.Request{}, true},
		{"org filter honored", scoping.Request{Filters: map[string]string{"organization": orgC.Hex()}}, false},
		{"show all drops org filter", scoping.Request{Filters: map[string]string{"organization": orgC.Hex()}, ShowAll: true}, true},
		{"blank org filter", scoping.Request{Filters: map[string]string{"organization": ""}}, true},
	}

	for _, tier := range []models.UserType{models.UserTypeGlobalView, models.UserTypeGlobalAdmin} {
		for _, tt := range tests {
			t.Run(string(tier)+"/"+tt.name, func(t *testing.T) {
				q, err := newScoper().Scope(global(tier), scoping.Domains, tt.req)
				if err != nil {
					t.Fatalf("Scope failed: %v", err)
				}
				if q.Global != tt.wantGlobal {
					t.Errorf("Global = %v, want %v", q.Global, tt.wantGlobal)
				}
				if !tt.wantGlobal {
					if got := orgIn(t, q, "organization_id"); len(got) != 1 || got[0] != orgC {
						t.Errorf("expected [orgC], got %v", got)
					}
				} else if _, ok := q.Filter["organization_id"]; ok {
					t.Error("global query must not carry an organization condition")
				}
			})
		}
	}
}

func TestScope_GlobalCallerBadOrganizationID(t *testing.T) {
	_, err := newScoper().Scope(global(models.UserTypeGlobalView), scoping.Domains, scoping.Request{
		Filters: map[string]string{"organization": "not-an-id"},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestScope_DefaultSortAndPaging(t *testing.T) {
	q, err := newScoper().Scope(member(orgA), scoping.Domains, scoping.Request{})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	want := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	if len(q.Sort) != 2 || q.Sort[0] != want[0] || q.Sort[1] != want[1] {
		t.Errorf("Sort = %v, want %v", q.Sort, want)
	}
	if q.Window.Page != 1 || q.Window.Size != paging.DefaultPageSize {
		t.Errorf("Window = %+v", q.Window)
	}
}

func TestScope_SortAllowList(t *testing.T) {
	s := newScoper()
	q, err := s.Scope(member(orgA), scoping.Vulnerabilities, scoping.Request{Sort: "domain", Order: "desc"})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if q.Sort[0].Key != "domain.name" || q.Sort[0].Value != -1 {
		t.Errorf("Sort = %v", q.Sort)
	}

	if _, err := s.Scope(member(orgA), scoping.Domains, scoping.Request{Sort: "password"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown sort, got %v", err)
	}
	if _, err := s.Scope(member(orgA), scoping.Domains, scoping.Request{Order: "sideways"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad order, got %v", err)
	}
}

func TestScope_FilterValidation(t *testing.T) {
	s := newScoper()
	tests := []struct {
		name    string
		kind    scoping.Kind
		filters map[string]string
	}{
		{"unknown key", scoping.Domains, map[string]string{"owner": "x"}},
		{"bad domain status", scoping.Domains, map[string]string{"status": "archived"}},
		{"bad substate", scoping.Vulnerabilities, map[string]string{"substate": "fixed"}},
		{"bad severity", scoping.Vulnerabilities, map[string]string{"severity": "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Scope(member(orgA), tt.kind, scoping.Request{Filters: tt.filters})
			if !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestScope_UsersRequireGlobalTier(t *testing.T) {
	s := newScoper()
	if _, err := s.Scope(member(orgA), scoping.Users, scoping.Request{}); !apperr.IsAuthorization(err) {
		t.Errorf("expected authorization error, got %v", err)
	}
	q, err := s.Scope(global(models.UserTypeGlobalView), scoping.Users, scoping.Request{})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if !q.Global {
		t.Error("user search is global for global tiers")
	}
}

func TestScope_UnboundedExportKeepsScope(t *testing.T) {
	q, err := newScoper().Scope(member(orgA), scoping.Domains, scoping.Request{PageSize: paging.Unbounded})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	if !q.Window.Unbounded() {
		t.Error("expected unbounded window")
	}
	if got := orgIn(t, q, "organization_id"); len(got) != 1 {
		t.Errorf("export lost scope: %v", got)
	}
	if len(q.PageStages()) != 1 {
		t.Errorf("unbounded query should only sort, got %d stages", len(q.PageStages()))
	}
}

// memDomains applies the org restriction of a Query to an in-memory table,
// the way the Mongo store does.
type memDomains []models.Domain

func (m memDomains) Search(_ context.Context, q scoping.Query) ([]models.Domain, int64, error) {
	allowed := map[primitive.ObjectID]bool{}
	for _, o := range q.OrgIDs {
		allowed[o] = true
	}
	var all []models.Domain
	for _, d := range m {
		if q.Global || allowed[d.OrganizationID] {
			all = append(all, d)
		}
	}
	total := int64(len(all))
	if !q.Window.Unbounded() {
		start := min(int(q.Window.Skip), len(all))
		end := min(start+int(q.Window.Limit), len(all))
		all = all[start:end]
	}
	return all, total, nil
}

func TestSearch_ResultsStayInsideMemberships(t *testing.T) {
	var table memDomains
	for i := 0; i < 30; i++ {
		org := []primitive.ObjectID{orgA, orgB, orgC}[i%3]
		table = append(table, models.Domain{ID: primitive.NewObjectID(), OrganizationID: org})
	}
	id := member(orgA, orgB)

	res, err := scoping.Search[models.Domain](context.Background(), newScoper(), table, id, scoping.Domains, scoping.Request{
		PageSize: 5,
		Filters:  map[string]string{"organization": orgC.Hex()},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Count != 20 {
		t.Errorf("Count = %d, want 20 (independent of page size)", res.Count)
	}
	if len(res.Result) != 5 {
		t.Errorf("expected a page of 5, got %d", len(res.Result))
	}
	for _, d := range res.Result {
		if _, ok := id.Membership(d.OrganizationID); !ok {
			t.Errorf("domain %s from non-member org %s returned", d.ID.Hex(), d.OrganizationID.Hex())
		}
	}
}

func TestSearch_EmptyResultIsNotNil(t *testing.T) {
	res, err := scoping.Search[models.Domain](context.Background(), newScoper(), memDomains{}, member(), scoping.Domains, scoping.Request{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Result == nil {
		t.Error("expected empty slice, got nil")
	}
}
