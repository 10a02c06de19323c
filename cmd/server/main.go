package main // Entry point package

import (
	"context"   // shutdown and consumer lifetimes
	"errors"    // distinguish a clean server close
	"net/http"  // http.ErrServerClosed
	"os"        // process signals
	"os/signal" // graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // shutdown timeout

	"github.com/labstack/echo/v4"                    // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"  // request logging and panic recovery
	"github.com/labstack/gommon/log"                 // log levels for echo's logger
	"github.com/prometheus/client_golang/prometheus" // metric registry

	"github.com/iliyamo/project-hub/internal/auth"       // credentials, tokens, refresh
	"github.com/iliyamo/project-hub/internal/config"     // Internal config loader
	"github.com/iliyamo/project-hub/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/project-hub/internal/handler"    // HTTP handlers
	"github.com/iliyamo/project-hub/internal/metrics"    // Prometheus counters
	"github.com/iliyamo/project-hub/internal/middleware" // request gate and rate limiter
	"github.com/iliyamo/project-hub/internal/queue"      // audit consumer
	"github.com/iliyamo/project-hub/internal/repository" // users and revocations
	"github.com/iliyamo/project-hub/internal/router"     // Internal router setup
	"github.com/iliyamo/project-hub/internal/service"    // audit event publisher
)

func main() {
	cfg := config.Load() // Load environment config
	e := echo.New()      // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	if !cfg.IsProduction() {
		e.Logger.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		e.Logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		e.Logger.Fatalf("migrate: %v", err)
	}

	rdb, err := config.NewRedisClient(ctx) // nil disables revocation and rate limiting
	switch {
	case err != nil:
		e.Logger.Warnf("redis unavailable, logout revocation and rate limiting disabled: %v", err)
	case rdb == nil:
		e.Logger.Info("redis disabled")
	default:
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := auth.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
		Issuer:        cfg.JWTIssuer,
	}
	issuer := auth.NewIssuer(tokens)
	verifier := auth.NewVerifier(tokens)
	creds, err := auth.NewCredentialVerifier(users, cfg.BcryptCost)
	if err != nil {
		e.Logger.Fatalf("credentials: %v", err)
	}

	var revocations *repository.RevocationStore
	var checker auth.RevocationChecker
	if rdb != nil && cfg.RevocationOnLogout {
		revocations = repository.NewRevocationStore(rdb)
		checker = revocations
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.MetricsEnabled, reg)

	a := handler.NewAuthHandler(cfg, users, creds, issuer, verifier, auth.NewRefresher(verifier, issuer, users, checker))
	a.Events = service.NewPublisher(cfg.RabbitURL, e.Logger)
	a.Metrics = m
	if revocations != nil {
		a.Revoker = revocations
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s ip=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s ip=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))
	e.Use(middleware.Gate(middleware.GateConfig{
		Verifier:    verifier,
		Routes:      middleware.DefaultRoutes(),
		Revocations: checker,
		Metrics:     m,
		Logger:      e.Logger,
		RedirectTTL: cfg.RedirectTTL,
		Secure:      cfg.IsProduction(),
	}))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterPages(e, handler.NewPageHandler(verifier))

	if cfg.AuditConsumer && cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditLogPath, e.Logger); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatalf("server: %v", err)
		}
	}()

	// Metrics get their own listener so the public port never serves them.
	var internal *echo.Echo
	if cfg.MetricsEnabled {
		internal = echo.New()
		internal.HideBanner = true
		internal.HidePort = true
		router.RegisterMetrics(internal, reg)
		go func() {
			e.Logger.Infof("metrics on %s", cfg.MetricsAddr)
			if err := internal.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.Logger.Errorf("metrics server: %v", err)
			}
		}()
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
	if internal != nil {
		_ = internal.Shutdown(shutdownCtx)
	}
}
