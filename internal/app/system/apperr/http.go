// internal/app/system/apperr/http.go
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Status returns the HTTP status code for err.
func Status(err error) int {
	if IsDenied(err) {
		return http.StatusForbidden
	}
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindInvalidTransition, KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Write renders err as a JSON response. Denials get an empty object;
// unclassified errors are logged and rendered without detail.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	status := Status(err)

	var e *Error
	errors.As(err, &e)

	switch status {
	case http.StatusForbidden:
		JSON(w, status, struct{}{})
	case http.StatusUnauthorized:
		JSON(w, status, errorBody{Error: "unauthorized"})
	case http.StatusBadRequest:
		JSON(w, status, errorBody{Error: e.Msg, Reason: e.Reason})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		JSON(w, status, errorBody{Error: "internal error"})
	}
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
