package domains_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/features/domains"
	domainstore "github.com/dalemusser/crossfeed/internal/app/store/domains"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/workflow/domainreview"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/dalemusser/crossfeed/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	db     *mongo.Database
	store  *domainstore.Store
	orgA   models.Organization
	orgB   models.Organization
	a1, a2 models.Domain
	b1     models.Domain
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := &env{db: db, store: domainstore.New(db)}
	e.orgA = fixtures.CreateOrganization(ctx, "Acme")
	e.orgB = fixtures.CreateOrganization(ctx, "Globex")
	e.a1 = fixtures.CreateDomain(ctx, e.orgA.ID, "www.acme.com", models.DomainPending)
	e.a2 = fixtures.CreateDomain(ctx, e.orgA.ID, "mail.acme.com", models.DomainPending)
	e.b1 = fixtures.CreateDomain(ctx, e.orgB.ID, "www.globex.com", models.DomainPending)

	review := domainreview.New(e.store, nil, zap.NewNop())
	h := domains.NewHandler(review, e.store, scoping.New(paging.DefaultLimits), nil, zap.NewNop())
	e.router = domains.Routes(h)
	return e
}

func (e *env) do(method, target string, body any, id *auth.Identity) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(method, target, body, id))
	return rec
}

type statusResponse struct {
	Updated   int                            `json:"updated"`
	Unchanged int                            `json:"unchanged"`
	Pending   *scoping.Result[models.Domain] `json:"pending"`
}

func TestUpdateStatus_ApprovesAndRefreshes(t *testing.T) {
	e := newEnv(t)
	admin := testutil.Member(e.orgA.ID, models.RoleAdmin, true)
	body := map[string]any{
		"ids":     []string{e.a1.ID.Hex(), e.a2.ID.Hex()},
		"status":  "approved",
		"refresh": map[string]any{"page": 3, "pageSize": 25},
	}

	rec := e.do(http.MethodPost, "/update-status", body, admin)
	rec.AssertStatus(t, http.StatusOK)
	var got statusResponse
	rec.DecodeJSON(t, &got)
	if got.Updated != 2 || got.Unchanged != 0 {
		t.Errorf("got updated=%d unchanged=%d, want 2/0", got.Updated, got.Unchanged)
	}
	if got.Pending == nil || got.Pending.Count != 0 {
		t.Errorf("pending: got %+v, want an empty page", got.Pending)
	}

	rec = e.do(http.MethodPost, "/update-status", body, admin)
	rec.AssertStatus(t, http.StatusOK)
	got = statusResponse{}
	rec.DecodeJSON(t, &got)
	if got.Updated != 0 || got.Unchanged != 2 {
		t.Errorf("repeat: got updated=%d unchanged=%d, want 0/2", got.Updated, got.Unchanged)
	}
}

func TestUpdateStatus_RefreshMovesNextPageUp(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures := testutil.NewFixtures(t, e.db)
	org := fixtures.CreateOrganization(ctx, "Initech")
	for i := 0; i < 30; i++ {
		fixtures.CreateDomain(ctx, org.ID, fmt.Sprintf("host%02d.initech.com", i), models.DomainPending)
	}
	admin := testutil.Member(org.ID, models.RoleAdmin, true)
	refresh := map[string]any{"pageSize": 25}

	rec := e.do(http.MethodPost, "/search", refresh, admin)
	rec.AssertStatus(t, http.StatusOK)
	var page1 scoping.Result[models.Domain]
	rec.DecodeJSON(t, &page1)
	if page1.Count != 30 || len(page1.Result) != 25 {
		t.Fatalf("page 1: got count=%d rows=%d, want 30/25", page1.Count, len(page1.Result))
	}
	ids := make([]string, 0, len(page1.Result))
	approved := make(map[primitive.ObjectID]bool, len(page1.Result))
	for _, d := range page1.Result {
		ids = append(ids, d.ID.Hex())
		approved[d.ID] = true
	}

	rec = e.do(http.MethodPost, "/update-status", map[string]any{
		"ids":     ids,
		"status":  "approved",
		"refresh": refresh,
	}, admin)
	rec.AssertStatus(t, http.StatusOK)
	var got statusResponse
	rec.DecodeJSON(t, &got)
	if got.Updated != 25 {
		t.Errorf("updated: got %d, want 25", got.Updated)
	}
	if got.Pending == nil {
		t.Fatal("pending: got nil, want the refreshed page")
	}
	if got.Pending.Count != 5 || len(got.Pending.Result) != 5 {
		t.Fatalf("pending: got count=%d rows=%d, want 5/5", got.Pending.Count, len(got.Pending.Result))
	}
	for _, d := range got.Pending.Result {
		if approved[d.ID] {
			t.Errorf("pending row %s was just approved", d.Name)
		}
		if d.Status != models.DomainPending {
			t.Errorf("pending row %s: got status %q, want pending", d.Name, d.Status)
		}
	}
}

func TestUpdateStatus_DeniesWholeBatch(t *testing.T) {
	e := newEnv(t)
	admin := testutil.Member(e.orgA.ID, models.RoleAdmin, true)

	tests := []struct {
		name string
		ids  []string
	}{
		{"other organization", []string{e.a1.ID.Hex(), e.b1.ID.Hex()}},
		{"malformed id", []string{e.a1.ID.Hex(), "not-an-id"}},
		{"missing id", []string{e.a1.ID.Hex(), "0123456789abcdef01234567"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/update-status", map[string]any{"ids": tt.ids, "status": "disavowed"}, admin)
			rec.AssertStatus(t, http.StatusForbidden)
			rec.AssertBody(t, "{}")

			ctx, cancel := testutil.TestContext()
			defer cancel()
			d, err := e.store.GetByID(ctx, e.a1.ID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if d.Status != models.DomainPending {
				t.Errorf("status: got %q, want pending", d.Status)
			}
		})
	}
}

func TestUpdateStatus_RejectsReopen(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/update-status", map[string]any{
		"ids":    []string{e.a1.ID.Hex()},
		"status": "pending",
	}, testutil.GlobalAdmin())

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "reopen_not_allowed")
}

func TestSearch_Scoped(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		id    *auth.Identity
		body  map[string]any
		count int64
	}{
		{"member", testutil.Member(e.orgA.ID, models.RoleUser, false), nil, 2},
		{"member asking for another org", testutil.Member(e.orgA.ID, models.RoleUser, false),
			map[string]any{"filters": map[string]string{"organization": e.orgB.ID.Hex()}}, 2},
		{"global viewer", testutil.GlobalViewer(), nil, 3},
		{"global viewer narrowed", testutil.GlobalViewer(),
			map[string]any{"filters": map[string]string{"organization": e.orgB.ID.Hex()}}, 1},
		{"no memberships", auth.NewIdentity(primitive.NewObjectID(), models.UserTypeStandard, nil), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/search", tt.body, tt.id)
			rec.AssertStatus(t, http.StatusOK)
			var res scoping.Result[models.Domain]
			rec.DecodeJSON(t, &res)
			if res.Count != tt.count || int64(len(res.Result)) != tt.count {
				t.Errorf("got count=%d rows=%d, want %d", res.Count, len(res.Result), tt.count)
			}
		})
	}
}

func TestSearch_UnknownFilter(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/search", map[string]any{"filters": map[string]string{"colour": "red"}}, testutil.GlobalAdmin())
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "unknown_filter")
}

func TestView(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/"+e.a1.ID.Hex(), nil, testutil.Member(e.orgA.ID, models.RoleUser, false))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.do(http.MethodGet, "/"+e.b1.ID.Hex(), nil, testutil.Member(e.orgA.ID, models.RoleUser, false))
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertBody(t, "{}")
}
