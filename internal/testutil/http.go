package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GlobalAdmin returns an identity with the globalAdmin tier and no
// memberships.
func GlobalAdmin() *auth.Identity {
	return auth.NewIdentity(primitive.NewObjectID(), models.UserTypeGlobalAdmin, nil)
}

// GlobalViewer returns an identity with the globalView tier.
func GlobalViewer() *auth.Identity {
	return auth.NewIdentity(primitive.NewObjectID(), models.UserTypeGlobalView, nil)
}

// Member returns a standard identity with one membership in orgID.
func Member(orgID primitive.ObjectID, role string, approved bool) *auth.Identity {
	return auth.NewIdentity(primitive.NewObjectID(), models.UserTypeStandard, map[primitive.ObjectID]auth.Membership{
		orgID: {Role: role, Approved: approved},
	})
}

// IdentityFor returns a standard identity for an existing user with the
// given memberships.
func IdentityFor(user models.User, memberships map[primitive.ObjectID]auth.Membership) *auth.Identity {
	return auth.NewIdentity(user.ID, user.UserType, memberships)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with body encoded as JSON.
func NewJSONRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with id in context.
func NewAuthenticatedRequest(method, target string, body any, id *auth.Identity) *http.Request {
	return auth.WithTestIdentity(NewJSONRequest(method, target, body), id)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertBody checks the trimmed response body equals expected.
func (r *ResponseRecorder) AssertBody(t interface{ Errorf(string, ...any) }, expected string) {
	if got := strings.TrimSpace(r.Body.String()); got != expected {
		t.Errorf("response body: got %q, want %q", got, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, r.Body.String())
	}
}
