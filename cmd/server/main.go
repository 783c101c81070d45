// Command server is the multi-church API: one control plane, one database
// per church, every tenant-scoped request routed to its own pool.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/migrations"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/auth"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/donations"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/events"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/expenses"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/public"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/superadmin"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/users"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/config"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/file"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/httpserver"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/redis"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/requestid"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

type appConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// RedisEnabled switches the tenant lookup cache from in-memory to
	// Redis, for deployments with more than one API replica.
	RedisEnabled bool `env:"REDIS_ENABLED" envDefault:"false"`

	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var (
		appCfg  appConfig
		pgCfg   pg.Config
		jwtCfg  jwt.Config
		httpCfg httpserver.Config
		fileCfg file.Config
		rdbCfg  redis.Config
	)
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	if err := config.Load(&jwtCfg); err != nil {
		return err
	}
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	if err := config.Load(&fileCfg); err != nil {
		return err
	}
	if err := config.Load(&rdbCfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithLevel(parseLevel(appCfg.LogLevel)),
		logger.WithFormat(logger.Format(appCfg.LogFormat)),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	slog.SetDefault(log)

	// Control-plane database and its schema.
	master, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer master.Close()

	if err := pg.Migrate(ctx, master, migrations.Master(), log); err != nil {
		return err
	}

	// Per-tenant database routing.
	registry := tenantdb.NewRegistry(pgCfg)
	defer registry.Close()
	sessions := tenantdb.NewSessions(registry)

	tokens, err := jwt.NewService(jwtCfg)
	if err != nil {
		return err
	}

	storage, err := file.NewStorage(ctx, fileCfg)
	if err != nil {
		return err
	}

	// Control plane.
	saRepo := superadmin.NewRepository(master)
	dbm := superadmin.NewDatabaseManager(master, registry, migrations.Tenant(), log)
	provisioner := superadmin.NewProvisioner(saRepo, dbm, log)
	saSvc := superadmin.NewService(saRepo, provisioner, registry, tokens, log)

	// Tenant resolution: header, then subdomain, then query parameter.
	tenantOpts := []tenant.Option{
		tenant.WithCacheTTL(appCfg.TenantCacheTTL),
		tenant.WithSkipPaths("/api/superadmin", "/api/health"),
	}
	if appCfg.RedisEnabled {
		rdb, err := redis.Connect(ctx, rdbCfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tenantOpts = append(tenantOpts, tenant.WithCache(tenant.NewRedisCache(rdb)))
	}
	tenantMW := tenant.Middleware(tenant.NewDefaultResolver(), saRepo, tenantOpts...)

	// Tenant-scoped services.
	authSvc := auth.NewService(auth.NewRepository(sessions), tokens, log)
	usersSvc := users.NewService(sessions, log)
	donationsSvc := donations.NewService(donations.NewRepository(sessions), log)
	expensesSvc := expenses.NewService(expenses.NewRepository(sessions), storage, log)
	eventsSvc := events.NewService(sessions, log)
	publicSvc := public.NewService(sessions, eventsSvc, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tenantMW)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", httpserver.Healthcheck(log, pg.Healthcheck(master)))
		r.Mount("/superadmin", superadmin.Router(saSvc, tokens, log))

		// Everything below needs a resolved tenant.
		r.Group(func(r chi.Router) {
			r.Use(tenant.RequireTenant(tenant.DefaultErrorHandler))

			r.Mount("/auth", auth.Router(authSvc, tokens, log))
			r.Mount("/users", users.Router(usersSvc, tokens, log))
			r.Mount("/donations", donations.Router(donationsSvc, tokens, log))
			r.Mount("/reports/donations", donations.ReportsRouter(donationsSvc, tokens, log))
			r.Mount("/expenses", expenses.Router(expensesSvc, tokens, log))
			r.Mount("/events", events.Router(eventsSvc, tokens, log))
			r.Mount("/public", public.Router(publicSvc, log))
			r.Mount("/config", public.ConfigRouter(publicSvc, tokens, log))
			r.Mount("/content", public.ContentRouter(publicSvc, tokens, log))
		})
	})

	// Locally stored expense documents.
	if fileCfg.Driver == "" || fileCfg.Driver == "local" {
		fs := http.StripPrefix("/files/", http.FileServer(http.Dir(fileCfg.LocalPath)))
		r.Handle("/files/*", fs)
	}

	srv := httpserver.New(httpCfg, log)
	return srv.Run(ctx, r)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
