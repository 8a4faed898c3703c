package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"

	"github.com/ipam-rir/rir-manager/internal/address"
	"github.com/ipam-rir/rir-manager/internal/api"
	"github.com/ipam-rir/rir-manager/internal/app/storage"
	"github.com/ipam-rir/rir-manager/internal/auth"
	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/httpclient"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/operations"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/registry/arin"
	"github.com/ipam-rir/rir-manager/internal/registry/retry"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
	"github.com/ipam-rir/rir-manager/internal/sync/coordinator"
	"github.com/ipam-rir/rir-manager/internal/telemetry"
	"github.com/ipam-rir/rir-manager/internal/trigger"
	"github.com/ipam-rir/rir-manager/internal/versions"
)

const (
	defaultIdleTimeout = 60 * time.Second
	tracerName         = "github.com/ipam-rir/rir-manager"
)

// RirManagerAppOptions is a function that configures the app builder
type RirManagerAppOptions func(*appConfig) error

// appConfig collects the inputs of NewRirManagerApp. Component overrides are
// primarily for testing.
type appConfig struct {
	config *config.Config

	storageFactory storage.Factory
	queue          jobs.Queue
	connector      registry.Connector

	address     string
	middlewares []func(http.Handler) http.Handler
	skipSeed    bool
}

func baseConfig(opts ...RirManagerAppOptions) (*appConfig, error) {
	cfg := &appConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.GetAddress()
	}
	return cfg, nil
}

// NewRirManagerApp builds every component described by the configuration
func NewRirManagerApp(ctx context.Context, opts ...RirManagerAppOptions) (*RirManagerApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if b.storageFactory == nil {
		b.storageFactory, err = storage.NewStorageFactory(ctx, b.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	var cleanupNeeded = true
	var components *AppComponents
	defer func() {
		if !cleanupNeeded {
			return
		}
		if components != nil {
			if b.queue == nil {
				_ = components.Queue.Close()
			}
			_ = components.Telemetry.Shutdown(ctx)
		}
		b.storageFactory.Cleanup()
	}()

	components, err = buildComponents(ctx, b)
	if err != nil {
		return nil, err
	}

	if !b.skipSeed {
		if err := SeedRegistries(ctx, b.config, components.Store); err != nil {
			return nil, fmt.Errorf("failed to seed registries: %w", err)
		}
	}

	httpServer, err := buildHTTPServer(b, components)
	if err != nil {
		return nil, err
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	return &RirManagerApp{
		config:     b.config,
		components: components,
		storage:    b.storageFactory,
		httpServer: httpServer,
		ownsQueue:  b.queue == nil,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the configured HTTP listen address
func WithAddress(addr string) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}
		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithQueue allows injecting a job queue. The app does not close an injected queue.
func WithQueue(q jobs.Queue) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.queue = q
		return nil
	}
}

// WithConnector allows injecting the registry connector (for testing)
func WithConnector(c registry.Connector) RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.connector = c
		return nil
	}
}

// WithoutSeeding skips creating the registries listed in the configuration
func WithoutSeeding() RirManagerAppOptions {
	return func(cfg *appConfig) error {
		cfg.skipSeed = true
		return nil
	}
}

func buildComponents(ctx context.Context, b *appConfig) (_ *AppComponents, retErr error) {
	cfg := b.config
	c := &AppComponents{}
	defer func() {
		if retErr != nil && c.Queue != nil && b.queue == nil {
			_ = c.Queue.Close()
		}
	}()

	st, err := b.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	src, err := b.storageFactory.CreateSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPAM source: %w", err)
	}
	c.Store, c.Source = st, src

	c.Telemetry, err = telemetry.NewProvider(ctx, cfg.Telemetry, versions.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	mp := c.Telemetry.MeterProvider()

	c.Queue = b.queue
	if c.Queue == nil {
		c.Queue, err = buildQueue(ctx, &cfg.Queue)
		if err != nil {
			return nil, err
		}
	}

	conn := b.connector
	if conn == nil {
		registryMetrics, err := telemetry.NewRegistryMetrics(mp)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}
		conn = buildConnector(&cfg.Registry, registryMetrics)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	syncOpts := []pkgsync.Option{
		pkgsync.WithAutoLink(cfg.Sync.AutoLinkEnabled()),
		pkgsync.WithMetrics(syncMetrics),
		pkgsync.WithTracer(otel.Tracer(tracerName + "/sync")),
	}
	if cfg.Sync.QueuedChildDiscovery() {
		syncOpts = append(syncOpts, pkgsync.WithChildDiscoveryQueue(c.Queue))
	}
	c.SyncEngine = pkgsync.NewEngine(st, src, conn, syncOpts...)

	opMetrics, err := telemetry.NewOperationMetrics(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation metrics: %w", err)
	}
	c.Operations = operations.New(st, src, conn,
		operations.WithAddressResolver(buildResolver(cfg.Geocoder)),
		operations.WithMetrics(opMetrics),
	)

	c.Trigger = trigger.New(st, src, c.Queue)

	if !cfg.Sync.Disabled {
		scopes, err := pkgsync.ParseScopes(cfg.Sync.Scopes)
		if err != nil {
			return nil, fmt.Errorf("invalid sync scopes: %w", err)
		}
		c.SyncCoordinator = coordinator.New(c.SyncEngine, st,
			coordinator.WithSchedule(cfg.Sync.GetSchedule()),
			coordinator.WithScopes(scopes...),
			coordinator.WithInitialRun(cfg.Sync.RunOnStart),
			coordinator.WithTicketRefresh(c.Queue),
		)
	} else {
		slog.Info("Scheduled sync disabled")
	}

	jobMetrics, err := telemetry.NewJobMetrics(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to create job metrics: %w", err)
	}
	c.Worker = jobs.NewWorker(c.Queue,
		jobs.WithConcurrency(cfg.Worker.GetConcurrency()),
		jobs.WithJobMetrics(jobMetrics),
	)
	newJobHandlers(st, c.SyncEngine, c.Operations).register(c.Worker)

	slog.Info("Components initialized",
		"queue", cfg.Queue.GetType(),
		"schedule", cfg.Sync.GetSchedule(),
		"sync_disabled", cfg.Sync.Disabled)
	return c, nil
}

func buildQueue(ctx context.Context, cfg *config.QueueConfig) (jobs.Queue, error) {
	if cfg.GetType() == config.QueueTypeRedis {
		client, err := jobs.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis queue: %w", err)
		}
		slog.Info("Using redis job queue", "key", cfg.Key)
		return jobs.NewRedisQueue(client, cfg.Key), nil
	}
	return jobs.NewMemoryQueue(cfg.GetSize()), nil
}

// buildConnector registers every supported registry backend behind the
// retrying client.
func buildConnector(cfg *config.RegistryConfig, m *telemetry.RegistryMetrics) registry.Connector {
	httpClient := httpclient.NewDefaultClient(
		httpclient.WithTimeout(cfg.GetTimeout()),
		httpclient.WithRateLimit(cfg.RateLimit, 1),
		httpclient.WithUserAgent("rir-manager/"+versions.Version),
	)

	backends := registry.NewBackends()
	arin.Register(backends, arin.WithHTTPClient(httpClient))

	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		policy.Base = cfg.BackoffBase
	}

	slog.Info("Registry backends registered", "backends", backends.Names(), "max_attempts", policy.MaxAttempts)
	return retry.NewConnector(backends,
		retry.WithPolicy(policy),
		retry.WithMetrics(m),
		retry.WithTracer(otel.Tracer(tracerName + "/registry")),
	)
}

func buildResolver(cfg *config.GeocoderConfig) address.Resolver {
	if cfg == nil {
		return address.NewSiteResolver(nil)
	}
	client := httpclient.NewDefaultClient(
		httpclient.WithRateLimit(cfg.GetRateLimit(), 1),
		httpclient.WithUserAgent(cfg.UserAgent),
	)
	slog.Info("Geocoder enabled", "url", cfg.GetURL())
	return address.NewSiteResolver(address.NewNominatim(cfg.GetURL(), client))
}

// buildHTTPServer builds the HTTP server with router and middleware. The
// auth middleware always runs last, after the default or injected ones.
func buildHTTPServer(b *appConfig, c *AppComponents) (*http.Server, error) {
	serverCfg := &b.config.Server

	middlewares := b.middlewares
	if middlewares == nil {
		metricsMw, err := telemetry.MetricsMiddleware(c.Telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics middleware: %w", err)
		}
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			telemetry.TracingMiddleware(c.Telemetry.TracerProvider()),
			metricsMw,
			middleware.Recoverer,
			api.LoggingMiddleware,
		}
	}

	authMw, err := auth.NewAuthMiddleware(b.config.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}
	middlewares = append(middlewares[:len(middlewares):len(middlewares)], authMw)

	opts := []api.ServerOption{api.WithMiddlewares(middlewares...)}
	if h := c.Telemetry.Handler(); h != nil {
		opts = append(opts, api.WithMetricsHandler(h))
	}

	router := api.NewServer(api.Dependencies{
		Operations: c.Operations,
		Trigger:    c.Trigger,
		Store:      c.Store,
		Queue:      c.Queue,
	}, opts...)

	slog.Info("HTTP server configured", "address", b.address)
	return &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  serverCfg.GetReadTimeout(),
		WriteTimeout: serverCfg.GetWriteTimeout(),
		IdleTimeout:  defaultIdleTimeout,
	}, nil
}
