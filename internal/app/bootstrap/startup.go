// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/crossfeed/internal/app/store/users"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/timeouts"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Int("count", n),
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long),
			zap.Duration("batch", cur.Batch))
	}

	if appCfg.BootstrapAdminEmail != "" {
		if err := ensureGlobalAdmin(ctx, deps, appCfg.BootstrapAdminEmail, logger); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	return nil
}

// ensureGlobalAdmin makes sure the user with email exists with the
// globalAdmin tier, creating the account or promoting it as needed.
func ensureGlobalAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case apperr.IsNotFound(err):
		local, _, _ := strings.Cut(email, "@")
		created, err := users.Create(ctx, models.User{
			Email:     email,
			FirstName: local,
			UserType:  models.UserTypeGlobalAdmin,
		})
		if err != nil {
			return err
		}
		logger.Info("created global admin", zap.String("user_id", created.ID.Hex()), zap.String("email", created.Email))
		return nil
	case err != nil:
		return err
	}

	if u.UserType == models.UserTypeGlobalAdmin {
		return nil
	}
	u.UserType = models.UserTypeGlobalAdmin
	if _, err := users.Update(ctx, u); err != nil {
		return err
	}
	logger.Info("promoted user to global admin", zap.String("user_id", u.ID.Hex()), zap.String("email", u.Email))
	return nil
}
