// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/paging"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the default signing secret. It is rejected in production.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for crossfeed.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CROSSFEED_MONGO_URI, CROSSFEED_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "crossfeed", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HMAC secret for bearer tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "", Desc: "Expected token issuer (blank disables the check)"},
	{Name: "token_ttl", Default: "24h", Desc: "Lifetime of tokens issued by this process"},
	{Name: "token_overrides", Default: false, Desc: "Trust tier and role claims carried in tokens (tests only)"},

	// Paging
	{Name: "default_page_size", Default: paging.DefaultPageSize, Desc: "Page size used when a search omits pageSize"},
	{Name: "max_page_size", Default: paging.MaxPageSize, Desc: "Largest page size a search may request"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "User/organization/role events: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_lifecycle", Default: "all", Desc: "Domain review and vulnerability events: 'all', 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Denied requests: 'all', 'db', 'log', or 'off'"},

	// Global admin bootstrap
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of a global admin to create or promote on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig reads .env files, config files,
// environment variables (WAFFLE_* for core, CROSSFEED_* for app), and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CROSSFEED", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:      appValues.String("jwt_secret"),
		JWTIssuer:      appValues.String("jwt_issuer"),
		TokenTTL:       appValues.Duration("token_ttl", 24*time.Hour),
		TokenOverrides: appValues.Bool("token_overrides"),

		DefaultPageSize: appValues.Int("default_page_size"),
		MaxPageSize:     appValues.Int("max_page_size"),

		AuditLogAdmin:     appValues.String("audit_log_admin"),
		AuditLogLifecycle: appValues.String("audit_log_lifecycle"),
		AuditLogSecurity:  appValues.String("audit_log_security"),

		BootstrapAdminEmail: appValues.String("bootstrap_admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. Production refuses the
// development signing secret and token claim overrides, and page limits
// must be positive with the default no larger than the maximum.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be a strong secret of at least 32 characters in production")
		}
		if appCfg.TokenOverrides {
			return fmt.Errorf("token_overrides cannot be enabled in production")
		}
	}
	if appCfg.DefaultPageSize <= 0 || appCfg.MaxPageSize <= 0 {
		return fmt.Errorf("default_page_size and max_page_size must be positive")
	}
	if appCfg.DefaultPageSize > appCfg.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) exceeds max_page_size (%d)", appCfg.DefaultPageSize, appCfg.MaxPageSize)
	}
	for name, mode := range map[string]string{
		"audit_log_admin":     appCfg.AuditLogAdmin,
		"audit_log_lifecycle": appCfg.AuditLogLifecycle,
		"audit_log_security":  appCfg.AuditLogSecurity,
	} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, mode)
		}
	}
	return nil
}
