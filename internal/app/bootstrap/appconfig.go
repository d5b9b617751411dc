// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig carries the
// framework-level settings (ports, TLS, logging, CORS, body limits); AppConfig
// carries everything specific to the console: the MongoDB connection, token
// verification, paging limits, and audit routing.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token verification
	JWTSecret      string        // HMAC secret shared with the login service
	JWTIssuer      string        // Expected issuer (blank disables the check)
	TokenTTL       time.Duration // Lifetime of tokens issued by this process (tests, tooling)
	TokenOverrides bool          // Honor tier/role claims carried in the token (test harness only)

	// Paging
	DefaultPageSize int
	MaxPageSize     int

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAdmin     string
	AuditLogLifecycle string
	AuditLogSecurity  string

	// Global admin bootstrap (promotes/creates on startup when set)
	BootstrapAdminEmail string
}
