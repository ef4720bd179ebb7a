package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-terminal/config"
	"card-terminal/internal/adapter/backend"
	httpHandler "card-terminal/internal/adapter/http/handler"
	"card-terminal/internal/adapter/http/middleware"
	"card-terminal/internal/adapter/simulator"
	"card-terminal/internal/adapter/storage/memory"
	pgStorage "card-terminal/internal/adapter/storage/postgres"
	redisStorage "card-terminal/internal/adapter/storage/redis"
	"card-terminal/internal/adapter/stripeapi"
	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/internal/service"
	"card-terminal/internal/terminal"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// stores bundles the persistence chosen by store.driver.
type stores struct {
	device    ports.DeviceStore
	rateLimit ports.RateLimitStore
	health    []ports.HealthChecker
	close     func()
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty).
		With().Str("terminal_id", cfg.Terminal.ID).Logger()

	log.Info().
		Str("sdk", cfg.Terminal.SDK).
		Str("store", cfg.Store.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting card terminal")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer st.close()

	sdk, backendAPI := readerStack(cfg, log)

	model, err := terminal.NewModel(ctx, sdk, backendAPI, st.device, terminal.Settings{
		AutoReconnect: cfg.Terminal.AutoReconnect,
		SearchTimeout: cfg.Terminal.SearchTimeout,
		Discovery: domain.DiscoveryConfig{
			Method:    domain.DiscoveryMethod(cfg.Terminal.DiscoveryMethod),
			Simulated: cfg.Terminal.SDK == "simulator",
		},
		Retry: terminal.RetryPolicy{
			MaxConfirmRetries:   cfg.Payment.MaxConfirmRetries,
			MaxAmbiguousRetries: cfg.Payment.MaxAmbiguousRetries,
			Backoff:             cfg.Payment.RetryBackoff,
		},
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize terminal")
	}
	model.Subscribe(terminal.NewLogListener(log))

	var tokenSvc ports.TokenService
	if cfg.Auth.JWTSecret != "" {
		tokenSvc = service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.Expiry, cfg.Auth.Issuer, cfg.Terminal.ID)
	} else {
		log.Warn().Msg("auth.jwt_secret is empty, control API is unauthenticated")
	}

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Terminal:       model,
		TokenSvc:       tokenSvc,
		RateLimitStore: st.rateLimit,
		RateLimits:     rateLimitRules(cfg.RateLimit),
		HealthCheckers: st.health,
		Logger:         log,
	})

	modelDone := make(chan error, 1)
	go func() { modelDone <- model.Run(ctx) }()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-modelDone:
		log.Error().Err(err).Msg("Terminal stopped unexpectedly")
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	log.Info().Msg("Server exited")
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &stores{
			device:    redisStorage.NewDeviceStore(rdb, cfg.Terminal.ID),
			rateLimit: redisStorage.NewRateLimitStore(rdb),
			health:    []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
			close:     func() { _ = rdb.Close() },
		}, nil

	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			device:    pgStorage.NewDeviceStore(pool, cfg.Terminal.ID),
			rateLimit: memory.NewRateLimitStore(),
			health:    []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
			close:     pool.Close,
		}, nil

	default:
		return &stores{
			device:    memory.NewDeviceStore(""),
			rateLimit: memory.NewRateLimitStore(),
			close:     func() {},
		}, nil
	}
}

func readerStack(cfg *config.Config, log zerolog.Logger) (ports.ReaderSDK, ports.BackendAPI) {
	var api stripeapi.API
	if cfg.Terminal.SDK == "stripe" || cfg.Backend.Driver == "stripe" {
		api = stripeapi.NewAPI(cfg.Stripe.SecretKey, cfg.Stripe.APIURL, log)
	}

	var backendAPI ports.BackendAPI
	if cfg.Backend.Driver == "stripe" {
		backendAPI = stripeapi.NewBackend(api, log)
	} else {
		backendAPI = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	}

	if cfg.Terminal.SDK == "stripe" {
		return stripeapi.NewSDK(api, cfg.Stripe.PollInterval, log), backendAPI
	}
	opts := simulator.DefaultOptions()
	opts.UpdateRequired = cfg.Terminal.UpdateRequired
	return simulator.New(opts, log), backendAPI
}

func rateLimitRules(cfg config.RateLimitConfig) map[string]middleware.RateLimitRule {
	rules := middleware.DefaultRateLimitRules()
	if cfg.ChargesPerMinute <= 0 {
		delete(rules, "charges")
	} else {
		rules["charges"] = middleware.RateLimitRule{Limit: cfg.ChargesPerMinute, Window: time.Minute}
	}
	return rules
}
