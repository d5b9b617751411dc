// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type ctxKey string

const currentIdentityKey ctxKey = "currentIdentity"

// CurrentIdentity returns the caller and a found flag.
func CurrentIdentity(r *http.Request) (*Identity, bool) {
	return FromContext(r.Context())
}

// FromContext returns the Identity stored in ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(currentIdentityKey).(*Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, currentIdentityKey, id)
}

// WithTestIdentity injects id into r, bypassing token verification.
func WithTestIdentity(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), id))
}

// RequireIdentity builds the caller from the Authorization header and
// rejects the request with 401 when that fails.
func RequireIdentity(b *Builder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			id, err := b.Build(ctx, r.Header.Get("Authorization"))
			cancel()
			if err != nil {
				if apperr.IsAuthentication(err) {
					logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
				}
				apperr.Write(w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
