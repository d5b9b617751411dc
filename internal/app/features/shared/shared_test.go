package shared_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/features/shared"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueryRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users?page=2&pageSize=10&sort=email&order=DESC&showAll=true&userType=standard", nil)

	got, err := shared.QueryRequest(req)
	if err != nil {
		t.Fatalf("QueryRequest failed: %v", err)
	}
	if got.Page != 2 || got.PageSize != 10 {
		t.Errorf("paging: got page=%d size=%d, want 2/10", got.Page, got.PageSize)
	}
	if got.Sort != "email" || got.Order != "DESC" || !got.ShowAll {
		t.Errorf("sort: got %+v", got)
	}
	if got.Filters["userType"] != "standard" || len(got.Filters) != 1 {
		t.Errorf("Filters: got %v, want only userType", got.Filters)
	}
}

func TestQueryRequest_BadPaging(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users?page=two", nil)
	if _, err := shared.QueryRequest(req); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestObjectID_MalformedIsNotFound(t *testing.T) {
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/users/zzz", nil), "id", "zzz")
	if _, err := shared.ObjectID(req, "id"); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestFail_RecordsDenial(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Security: "log"})

	id := testutil.GlobalViewer()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/users", nil, id)
	rec := httptest.NewRecorder()

	shared.Fail(rec, req, audit, zap.NewNop(), apperr.Forbidden("create_user"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := rec.Body.String(); body != "{}\n" {
		t.Errorf("body: got %q, want %q", body, "{}\n")
	}

	entries := logs.FilterField(zap.String("event_type", "access_denied")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access_denied entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["failure_reason"] != "create_user" || fields["actor_id"] != id.UserID().Hex() {
		t.Errorf("entry fields: got %v", fields)
	}
}

func TestFail_ValidationNotAudited(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{})
	rec := httptest.NewRecorder()

	shared.Fail(rec, httptest.NewRequest(http.MethodPost, "/users", nil), audit, zap.NewNop(), apperr.Validation("invalid_email", "bad email"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no audit entries, got %d", logs.Len())
	}
}
