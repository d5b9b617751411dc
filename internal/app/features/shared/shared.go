// internal/app/features/shared/shared.go
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Identity returns the caller attached by auth.RequireIdentity.
func Identity(r *http.Request) (*auth.Identity, error) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		return nil, apperr.Authentication("no identity on request", nil)
	}
	return id, nil
}

// Decode reads a JSON body into v. An empty body leaves v unchanged.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid_body", err.Error())
	}
	return nil
}

// ObjectID parses the named URL parameter. A malformed id cannot name
// anything, so it is reported as not found.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(name, raw)
	}
	return oid, nil
}

// QueryRequest builds a search request from URL query parameters. page,
// pageSize, sort, order and showAll are reserved; every other parameter
// is a filter.
func QueryRequest(r *http.Request) (scoping.Request, error) {
	var req scoping.Request
	for key, vals := range r.URL.Query() {
		val := strings.TrimSpace(vals[0])
		switch key {
		case "page", "pageSize":
			n, err := strconv.Atoi(val)
			if err != nil {
				return scoping.Request{}, apperr.Validation("invalid_paging", key+" must be a number")
			}
			if key == "page" {
				req.Page = n
			} else {
				req.PageSize = n
			}
		case "sort":
			req.Sort = val
		case "order":
			req.Order = val
		case "showAll":
			req.ShowAll = val == "true" || val == "1"
		default:
			if req.Filters == nil {
				req.Filters = map[string]string{}
			}
			req.Filters[key] = val
		}
	}
	return req, nil
}

// Fail writes err as a JSON response. Authorization failures are also
// recorded in the security audit trail.
func Fail(w http.ResponseWriter, r *http.Request, audit *auditlog.Logger, log *zap.Logger, err error) {
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind == apperr.KindAuthorization {
		actor := primitive.NilObjectID
		if id, ok := auth.CurrentIdentity(r); ok {
			actor = id.UserID()
		}
		audit.AccessDenied(r.Context(), actor, e.Action)
	}
	apperr.Write(w, log, err)
}

// OK writes v as a 200 JSON response.
func OK(w http.ResponseWriter, v any) {
	apperr.JSON(w, http.StatusOK, v)
}
