// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/crossfeed/internal/app/features/auditlog"
	domainsfeature "github.com/dalemusser/crossfeed/internal/app/features/domains"
	healthfeature "github.com/dalemusser/crossfeed/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/crossfeed/internal/app/features/organizations"
	usersfeature "github.com/dalemusser/crossfeed/internal/app/features/users"
	vulnerabilitiesfeature "github.com/dalemusser/crossfeed/internal/app/features/vulnerabilities"
	"github.com/dalemusser/crossfeed/internal/app/store/audit"
	domainstore "github.com/dalemusser/crossfeed/internal/app/store/domains"
	organizationstore "github.com/dalemusser/crossfeed/internal/app/store/organizations"
	rolestore "github.com/dalemusser/crossfeed/internal/app/store/roles"
	userstore "github.com/dalemusser/crossfeed/internal/app/store/users"
	vulnerabilitystore "github.com/dalemusser/crossfeed/internal/app/store/vulnerabilities"
	"github.com/dalemusser/crossfeed/internal/app/system/auditlog"
	"github.com/dalemusser/crossfeed/internal/app/system/auth"
	"github.com/dalemusser/crossfeed/internal/app/system/metrics"
	"github.com/dalemusser/crossfeed/internal/app/system/ownership"
	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/app/system/tokens"
	"github.com/dalemusser/crossfeed/internal/app/workflow/domainreview"
	"github.com/dalemusser/crossfeed/internal/app/workflow/orgmgmt"
	"github.com/dalemusser/crossfeed/internal/app/workflow/usermgmt"
	"github.com/dalemusser/crossfeed/internal/app/workflow/vulnstate"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router exposes /health and /metrics without
// authentication; every other route requires a bearer token and is served
// with the caller's Identity in the request context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	roles := rolestore.New(db)
	orgs := organizationstore.New(db)
	domains := domainstore.New(db)
	vulns := vulnerabilitystore.New(db)
	events := audit.New(db)

	auditLog := auditlog.New(events, logger, auditlog.Config{
		Admin:     appCfg.AuditLogAdmin,
		Lifecycle: appCfg.AuditLogLifecycle,
		Security:  appCfg.AuditLogSecurity,
	})

	scoper := scoping.New(paging.Limits{Default: appCfg.DefaultPageSize, Max: appCfg.MaxPageSize})
	builder := auth.NewBuilder(tokens.New(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.TokenTTL), users, roles, appCfg.TokenOverrides)
	if appCfg.TokenOverrides {
		logger.Warn("token claim overrides enabled; tier and role claims in tokens are trusted")
	}

	resolver := ownership.New(users, domains, vulns, orgs)
	states := vulnstate.New(resolver, vulns, auditLog, logger)
	review := domainreview.New(domains, auditLog, logger)
	userSvc := usermgmt.New(usermgmt.Deps{
		Users:  users,
		Roles:  roles,
		Orgs:   orgs,
		Scoper: scoper,
		Client: deps.MongoClient,
		Audit:  auditLog,
		Log:    logger,
	})
	orgSvc := orgmgmt.New(orgmgmt.Deps{
		Orgs:    orgs,
		Roles:   roles,
		Domains: domains,
		Scoper:  scoper,
		Client:  deps.MongoClient,
		Audit:   auditLog,
		Log:     logger,
	})

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(auditlog.RequestMeta)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireIdentity(builder, logger))

		r.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(userSvc, auditLog, logger)))
		r.Mount("/organizations", organizationsfeature.Routes(organizationsfeature.NewHandler(orgSvc, auditLog, logger)))
		r.Mount("/domains", domainsfeature.Routes(domainsfeature.NewHandler(review, domains, scoper, auditLog, logger)))
		r.Mount("/vulnerabilities", vulnerabilitiesfeature.Routes(vulnerabilitiesfeature.NewHandler(states, vulns, scoper, auditLog, logger)))
		r.Mount("/audit-events", auditlogfeature.Routes(auditlogfeature.NewHandler(events, users, orgs, auditLog, logger)))
	})

	logger.Info("router built",
		zap.String("env", coreCfg.Env),
		zap.Int("default_page_size", appCfg.DefaultPageSize),
		zap.Int("max_page_size", appCfg.MaxPageSize))
	return r, nil
}
