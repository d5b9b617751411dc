package bootstrap

import (
	"strings"
	"testing"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "crossfeed",
		JWTSecret:         devJWTSecret,
		DefaultPageSize:   25,
		MaxPageSize:       100,
		AuditLogAdmin:     "all",
		AuditLogLifecycle: "db",
		AuditLogSecurity:  "off",
	}
}

func TestValidateApp(t *testing.T) {
	strong := strings.Repeat("s", 48)

	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"dev defaults", "dev", func(*AppConfig) {}, ""},
		{"dev overrides allowed", "dev", func(c *AppConfig) { c.TokenOverrides = true }, ""},
		{"empty secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, "jwt_secret"},
		{"prod dev secret", "prod", func(*AppConfig) {}, "strong secret"},
		{"prod short secret", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, "strong secret"},
		{"prod strong secret", "prod", func(c *AppConfig) { c.JWTSecret = strong }, ""},
		{"prod overrides refused", "prod", func(c *AppConfig) {
			c.JWTSecret = strong
			c.TokenOverrides = true
		}, "token_overrides"},
		{"zero default page", "dev", func(c *AppConfig) { c.DefaultPageSize = 0 }, "must be positive"},
		{"default over max", "dev", func(c *AppConfig) { c.DefaultPageSize = 200 }, "exceeds max_page_size"},
		{"bad audit mode", "dev", func(c *AppConfig) { c.AuditLogSecurity = "verbose" }, "audit_log_security"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
