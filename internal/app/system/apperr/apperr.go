// Package apperr defines the error kinds returned by the authorization and
// resource-lifecycle core and maps them to HTTP responses.
//
// Not-found and authorization failures are deliberately indistinguishable
// on the wire: both render as 403 with an empty JSON object.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindAuthorization
	KindNotFound
	KindInvalidTransition
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a classified core error. Reason is a short machine-readable code
// (e.g. "reopen_not_allowed"); Msg is the human-readable message. Action
// names the denied action on authorization errors.
type Error struct {
	Kind   Kind
	Reason string
	Action string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Authentication reports a missing, invalid, or unknown-user token.
func Authentication(msg string, err error) error {
	return &Error{Kind: KindAuthentication, Reason: "unauthenticated", Msg: msg, Err: err}
}

// Forbidden reports a denied authorization decision.
func Forbidden(action string) error {
	return &Error{Kind: KindAuthorization, Reason: "forbidden", Action: action, Msg: action + " not permitted"}
}

// NotFound reports that resource with the given id does not exist.
func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Reason: "not_found", Msg: resource + " " + id + " not found"}
}

// InvalidTransition reports a state change the lifecycle rules forbid.
func InvalidTransition(reason, msg string) error {
	return &Error{Kind: KindInvalidTransition, Reason: reason, Msg: msg}
}

// Validation reports malformed input.
func Validation(reason, msg string) error {
	return &Error{Kind: KindValidation, Reason: reason, Msg: msg}
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsAuthentication(err error) bool    { return KindOf(err) == KindAuthentication }
func IsAuthorization(err error) bool     { return KindOf(err) == KindAuthorization }
func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }

// IsDenied reports whether err should be rendered as a denial. Missing
// resources are denials so their existence is not disclosed.
func IsDenied(err error) bool {
	k := KindOf(err)
	return k == KindAuthorization || k == KindNotFound
}
