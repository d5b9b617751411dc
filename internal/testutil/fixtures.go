package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateOrganization creates a test organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		RootDomains: []string{},
		IPBlocks:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "organizations", org)
	return org
}

// CreateUser creates a test user with the given tier.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, tier models.UserType) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	first, last, _ := strings.Cut(fullName, " ")
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     strings.ToLower(email),
		FirstName: first,
		LastName:  last,
		FullName:  fullName,
		UserType:  tier,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateGlobalAdmin creates a test user with the globalAdmin tier.
func (f *Fixtures) CreateGlobalAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.UserTypeGlobalAdmin)
}

// CreateRole links userID to orgID.
func (f *Fixtures) CreateRole(ctx context.Context, userID, orgID primitive.ObjectID, role string, approved bool) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Role{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Approved:       approved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "roles", r)
	return r
}

// CreateDomain creates a test domain in orgID with the given status.
func (f *Fixtures) CreateDomain(ctx context.Context, orgID primitive.ObjectID, name string, status models.DomainStatus) models.Domain {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Domain{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           name,
		ReverseName:    models.ReverseDomainName(name),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "domains", d)
	return d
}

// CreateVulnerability creates an unconfirmed test vulnerability on domainID.
func (f *Fixtures) CreateVulnerability(ctx context.Context, domainID primitive.ObjectID, title string) models.Vulnerability {
	f.t.Helper()

	now := time.Now().UTC()
	v := models.Vulnerability{
		ID:        primitive.NewObjectID(),
		DomainID:  domainID,
		Title:     title,
		Severity:  models.SeverityMedium,
		State:     models.StateOpen,
		Substate:  models.SubstateUnconfirmed,
		Actions:   []models.VulnerabilityAction{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "vulnerabilities", v)
	return v
}
