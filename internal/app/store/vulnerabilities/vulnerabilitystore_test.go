package vulnerabilitystore_test

import (
	"testing"
	"time"

	vulnerabilitystore "github.com/dalemusser/crossfeed/internal/app/store/vulnerabilities"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/dalemusser/crossfeed/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_SetSubstate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := vulnerabilitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Acme")
	d := fixtures.CreateDomain(ctx, org.ID, "www.acme.com", models.DomainApproved)
	v := fixtures.CreateVulnerability(ctx, d.ID, "Open redirect")

	now := time.Now().UTC().Truncate(time.Millisecond)
	action := &models.VulnerabilityAction{
		Type:     "state-change",
		Substate: models.SubstateRemediated,
		State:    models.StateClosed,
		UserID:   primitive.NewObjectID(),
		Date:     now,
	}
	err := store.SetSubstate(ctx, v.ID, vulnerabilitystore.SubstateChange{
		Substate: models.SubstateRemediated,
		State:    models.StateClosed,
		At:       now,
		Action:   action,
	})
	if err != nil {
		t.Fatalf("SetSubstate failed: %v", err)
	}

	got, err := store.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.State != models.StateClosed || got.Substate != models.SubstateRemediated {
		t.Errorf("got %s/%s, want closed/remediated", got.State, got.Substate)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, now)
	}
	if len(got.Actions) != 1 {
		t.Fatalf("actions: got %d, want 1", len(got.Actions))
	}

	err = store.SetSubstate(ctx, primitive.NewObjectID(), vulnerabilitystore.SubstateChange{
		Substate: models.SubstateRemediated,
		State:    models.StateClosed,
		At:       now,
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("SetSubstate missing: expected not-found, got %v", err)
	}
}

func TestStore_Search_ScopesThroughDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := vulnerabilitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := fixtures.CreateOrganization(ctx, "Mine")
	theirs := fixtures.CreateOrganization(ctx, "Theirs")
	dMine := fixtures.CreateDomain(ctx, mine.ID, "app.mine.com", models.DomainApproved)
	dTheirs := fixtures.CreateDomain(ctx, theirs.ID, "app.theirs.com", models.DomainApproved)
	fixtures.CreateVulnerability(ctx, dMine.ID, "SQL injection")
	fixtures.CreateVulnerability(ctx, dMine.ID, "XSS")
	fixtures.CreateVulnerability(ctx, dTheirs.ID, "SSRF")
	// Orphaned finding: its domain does not exist.
	fixtures.CreateVulnerability(ctx, primitive.NewObjectID(), "Orphan")

	scoper := scoping.New(paging.DefaultLimits)

	q, err := scoper.Scope(testutil.Member(mine.ID, models.RoleUser, false), scoping.Vulnerabilities, scoping.Request{PageSize: 1})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	rows, total, err := store.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total: got %d, want 2", total)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0].Domain == nil || rows[0].Domain.OrganizationID != mine.ID {
		t.Errorf("row domain: got %+v, want organization %s", rows[0].Domain, mine.ID.Hex())
	}

	q, err = scoper.Scope(testutil.GlobalViewer(), scoping.Vulnerabilities, scoping.Request{
		Filters: map[string]string{"domain": "theirs"},
	})
	if err != nil {
		t.Fatalf("Scope failed: %v", err)
	}
	rows, total, err = store.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Title != "SSRF" {
		t.Errorf("got %d rows (total %d), want only SSRF", len(rows), total)
	}

	q, _ = scoper.Scope(testutil.Member(primitive.NewObjectID(), models.RoleAdmin, true), scoping.Vulnerabilities, scoping.Request{})
	rows, total, err = store.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Errorf("unrelated member: got %d rows (total %d), want none", len(rows), total)
	}
}

func TestStore_Search_UnboundedWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := vulnerabilitystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := fixtures.CreateOrganization(ctx, "Mine")
	theirs := fixtures.CreateOrganization(ctx, "Theirs")
	dMine := fixtures.CreateDomain(ctx, mine.ID, "api.mine.com", models.DomainApproved)
	dTheirs := fixtures.CreateDomain(ctx, theirs.ID, "api.theirs.com", models.DomainApproved)

	const perOrg = paging.MaxPageSize + 20
	for i := 0; i < perOrg; i++ {
		title := "Weak cipher"
		if i%4 == 0 {
			title = "Exposed admin panel"
		}
		fixtures.CreateVulnerability(ctx, dMine.ID, title)
		fixtures.CreateVulnerability(ctx, dTheirs.ID, title)
	}

	scoper := scoping.New(paging.DefaultLimits)
	member := testutil.Member(mine.ID, models.RoleUser, false)

	tests := []struct {
		name    string
		filters map[string]string
		want    int
	}{
		{"all scoped rows", nil, perOrg},
		{"own field filter", map[string]string{"title": "admin"}, perOrg / 4},
		{"domain filter", map[string]string{"domain": "api.mine"}, perOrg},
		{"domain filter outside scope", map[string]string{"domain": "theirs"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := scoper.Scope(member, scoping.Vulnerabilities, scoping.Request{
				PageSize: paging.Unbounded,
				Filters:  tt.filters,
			})
			if err != nil {
				t.Fatalf("Scope failed: %v", err)
			}
			rows, total, err := store.Search(ctx, q)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if total != int64(tt.want) {
				t.Errorf("total: got %d, want %d", total, tt.want)
			}
			if len(rows) != tt.want {
				t.Fatalf("rows: got %d, want %d", len(rows), tt.want)
			}
			for _, v := range rows {
				if v.Domain == nil || v.Domain.OrganizationID != mine.ID {
					t.Fatalf("row %s: domain %+v outside organization %s", v.ID.Hex(), v.Domain, mine.ID.Hex())
				}
			}
		})
	}
}
