// internal/app/system/authz/enforce.go
package authz

import (
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/metrics"
)

// Require returns an authorization error unless a is allowed. Decisions
// are counted in the authz metrics.
func Require(id *auth.Identity, a Action) error {
	allowed := Allowed(id, a)
	metrics.RecordDecision(a.Name(), allowed)
	if !allowed {
		return apperr.Forbidden(a.Name())
	}
	return nil
}
