// Command demo boots the full stack against a local database, seeds the
// canonical accounts and runs one authentication round trip. It exists to
// show the wiring; the services themselves are consumed in-process.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/crado00/authkit/internal/accounts"
	"github.com/crado00/authkit/internal/authn"
	"github.com/crado00/authkit/internal/seed"
	"github.com/crado00/authkit/internal/users"
	"github.com/crado00/authkit/pkg/config"
	"github.com/crado00/authkit/pkg/db"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/logger"
	"github.com/crado00/authkit/pkg/metrics"
	"github.com/crado00/authkit/pkg/migrate"
	"github.com/crado00/authkit/pkg/redis"
	"github.com/crado00/authkit/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "demo"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "demo",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(logg.WithField(ctx, "dump", pkgerrors.Dump(err)), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var throttle *authn.Throttle
	if cfg.Redis.Configured() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		throttle = authn.NewThrottle(redisClient, cfg.Throttle)
	}

	authMetrics := metrics.NewAuthMetrics(prometheus.DefaultRegisterer)
	hasher := security.NewBcryptHasher(cfg.Password)
	repo := users.NewRepository(dbClient.DB())

	if cfg.Seeder.Enabled {
		seeder, err := seed.New(repo, hasher, seed.DefaultAccounts(cfg.Seeder), authMetrics, logg)
		if err != nil {
			logg.Error(ctx, "failed to create seeder", err)
			os.Exit(1)
		}
		if err := seeder.Run(ctx); err != nil {
			logg.Error(logg.WithField(ctx, "dump", pkgerrors.Dump(err)), "seeding failed", err)
			os.Exit(1)
		}
	}

	authenticator, err := authn.NewService(authn.ServiceParams{
		Directory: authn.NewDirectory(repo),
		Hasher:    hasher,
		Metrics:   authMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create authenticator", err)
		os.Exit(1)
	}

	admin, err := accounts.NewService(repo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create accounts service", err)
		os.Exit(1)
	}

	identifier := os.Getenv("AUTHKIT_DEMO_IDENTIFIER")
	password := os.Getenv("AUTHKIT_DEMO_PASSWORD")
	if identifier == "" {
		identifier, password = "admin", cfg.Seeder.AdminPassword
	}

	if err := throttle.Allow(ctx, identifier); err != nil {
		logg.Error(ctx, "login throttled", err)
		os.Exit(1)
	}

	principal, err := authenticator.Authenticate(ctx, identifier, password)
	if err != nil {
		logg.Error(ctx, "authentication failed", err)
		os.Exit(1)
	}

	admin.TouchLastLogin(ctx, principal.Username)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"username":    principal.Username,
		"authorities": principal.Authorities,
	}), "authentication round trip complete")
}
