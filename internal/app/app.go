// Package app hace el wiring de la aplicación: config → drivers → core →
// HTTP. Todo se construye una vez al startup y se inyecta explícitamente;
// Close libera en orden inverso.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/linkgate/internal/cache"
	"github.com/dropDatabas3/linkgate/internal/config"
	"github.com/dropDatabas3/linkgate/internal/docstore"
	docfs "github.com/dropDatabas3/linkgate/internal/docstore/fs"
	docmem "github.com/dropDatabas3/linkgate/internal/docstore/memory"
	docpg "github.com/dropDatabas3/linkgate/internal/docstore/pg"
	"github.com/dropDatabas3/linkgate/internal/gateway"
	ctrl "github.com/dropDatabas3/linkgate/internal/http/controllers/auth"
	"github.com/dropDatabas3/linkgate/internal/http/router"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	"github.com/dropDatabas3/linkgate/internal/idp"
	idplocal "github.com/dropDatabas3/linkgate/internal/idp/local"
	idprest "github.com/dropDatabas3/linkgate/internal/idp/rest"
	"github.com/dropDatabas3/linkgate/internal/metrics"
	"github.com/dropDatabas3/linkgate/internal/nav"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/profile"
	"github.com/dropDatabas3/linkgate/internal/provider"
	"github.com/dropDatabas3/linkgate/internal/rate"
	"github.com/dropDatabas3/linkgate/internal/session"
)

// App es la aplicación armada, lista para servir.
type App struct {
	cfg      *config.Config
	handler  http.Handler
	sessions *session.Manager
	slot     cache.Client
	store    docstore.Store
}

// New construye la aplicación a partir de la configuración.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := metrics.RegisterAuth(nil); err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	idProvider, err := buildIdentity(cfg)
	if err != nil {
		return nil, err
	}

	slot, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	store, err := buildDocstore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: docstore: %w", err)
	}

	profiles := profile.New(store)

	sessions := session.New(profiles)
	sessions.Start(idProvider.StateChanges())

	gw := gateway.New(idProvider, slot, gateway.Options{
		Tenant:     cfg.Identity.Tenant,
		PendingTTL: cfg.Cache.PendingTTL,
	})

	service := svc.NewService(svc.Deps{
		Gateway:  gw,
		Sessions: sessions,
		Router:   provider.New(cfg.Domains),
	})

	gatekeeper := nav.New(sessions, nav.PathLogin, nav.PathHome)

	handler := router.New(router.Deps{
		Controllers:     ctrl.NewControllers(service),
		Gatekeeper:      gatekeeper,
		LoginLimiter:    buildLimiter(cfg, cfg.Rate.Login),
		RegisterLimiter: buildLimiter(cfg, cfg.Rate.Register),
	})

	return &App{
		cfg:      cfg,
		handler:  handler,
		sessions: sessions,
		slot:     slot,
		store:    store,
	}, nil
}

func buildIdentity(cfg *config.Config) (idp.Provider, error) {
	switch cfg.Identity.Driver {
	case "rest":
		if cfg.Identity.BaseURL == "" {
			return nil, fmt.Errorf("app: identity rest driver requires base_url")
		}
		return idprest.New(cfg.Identity.BaseURL, cfg.Identity.APIKey, nil), nil
	case "local", "":
		return idplocal.New(), nil
	default:
		return nil, fmt.Errorf("app: unknown identity driver %q", cfg.Identity.Driver)
	}
}

// buildLimiter elige backend según el cache: redis comparte ventana entre
// réplicas, memoria alcanza para una sola instancia. Limit 0 apaga el
// limiter del endpoint.
func buildLimiter(cfg *config.Config, rl config.RateLimit) rate.Limiter {
	if rl.Limit <= 0 || rl.Window <= 0 {
		return nil
	}
	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		return rate.NewRedisLimiter(client, cfg.Cache.Prefix+":rl:", rl.Limit, rl.Window)
	}
	return rate.NewMemoryLimiter(rl.Limit, rl.Window)
}

func buildDocstore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Docstore.Driver {
	case "postgres":
		return docpg.New(ctx, cfg.Docstore.DSN)
	case "fs":
		return docfs.New(cfg.Docstore.Root)
	case "memory", "":
		return docmem.New(), nil
	default:
		return nil, fmt.Errorf("app: unknown docstore driver %q", cfg.Docstore.Driver)
	}
}

// Handler expone el router, para tests.
func (a *App) Handler() http.Handler { return a.handler }

// Run sirve HTTP hasta que el contexto se cancele; después apaga con drain.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log := logger.Named("app")
	log.Info("server listening", logger.String("addr", a.cfg.Server.Addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

// close libera recursos en orden inverso al wiring.
func (a *App) close() {
	a.sessions.Stop()
	if err := a.slot.Close(); err != nil {
		logger.Named("app").Warn("cache close failed", logger.Err(err))
	}
	if err := a.store.Close(); err != nil {
		logger.Named("app").Warn("docstore close failed", logger.Err(err))
	}
}
