package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	aibridge "github.com/loomworks/ai-bridge"
	"github.com/loomworks/ai-bridge/internal/breaker"
	"github.com/loomworks/ai-bridge/internal/credentials"
	"github.com/loomworks/ai-bridge/internal/logging"
	"github.com/loomworks/ai-bridge/internal/metrics"
	"github.com/loomworks/ai-bridge/internal/modelcache"
	"github.com/loomworks/ai-bridge/internal/ratelimit"
	"github.com/loomworks/ai-bridge/internal/usagelog"
	"github.com/loomworks/ai-bridge/internal/version"
	"github.com/loomworks/ai-bridge/providers"
	"github.com/loomworks/ai-bridge/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	registry, err := buildRegistry()
	if err != nil {
		fail("catalog", err)
	}

	store, err := credentials.NewStoreFromEnv()
	if err != nil {
		fail("credential store", err)
	}
	defer func() { _ = store.Close() }()

	usageWriter, usageReader, err := buildUsageLog()
	if err != nil {
		fail("usage log", err)
	}

	srv := &server{
		registry:   registry,
		store:      store,
		resolver:   credentials.NewTokenResolver(),
		usage:      usageWriter,
		usageQuery: usageReader,
		gate:       ratelimit.NewGate(ratelimit.ConfigFromEnv()),
		breakers: breaker.NewSet(breaker.ConfigFromEnv(), func(name string, st breaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(st))
		}),
		models:   modelcache.New(0),
		adminKey: os.Getenv("ADMIN_KEY"),
	}
	defer srv.models.Close()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		srv.corsOrigins = strings.Split(origins, ",")
	}
	if srv.adminKey == "" {
		slog.Warn("ADMIN_KEY not set; the admin API is disabled")
	}

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      newRouter(srv),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("loombridge listening",
		"version", version.Short(),
		"addr", addr,
		"providers", registry.Len(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func fail(what string, err error) {
	slog.Error(what+" setup failed", "error", err)
	os.Exit(1)
}

// buildRegistry loads the builtin catalog, applying the BRIDGE_CATALOG
// overlay file when set.
func buildRegistry() (*providers.Registry, error) {
	descs := providers.Builtin()
	if path := os.Getenv("BRIDGE_CATALOG"); path != "" {
		merged, err := aibridge.LoadCatalogFile(path, descs)
		if err != nil {
			return nil, err
		}
		slog.Info("catalog overlay loaded", "path", path, "providers", len(merged))
		descs = merged
	}
	return providers.NewRegistry(descs...)
}

// buildUsageLog selects the usage backend from USAGE_LOG_BACKEND (memory
// default, sqlite, postgres, none) and USAGE_LOG_DSN. The reader is nil when
// the backend cannot list records.
func buildUsageLog() (usagelog.Writer, usagelog.Reader, error) {
	dsn := os.Getenv("USAGE_LOG_DSN")
	switch backend := os.Getenv("USAGE_LOG_BACKEND"); backend {
	case "", "memory":
		ring := usagelog.NewRing(1024)
		return ring, ring, nil
	case "sqlite":
		w, err := usagelog.NewSQLiteWriter(dsn)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	case "postgres":
		w, err := usagelog.NewPostgresWriter(dsn)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	case "none":
		return usagelog.NoopWriter{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown usage log backend %q", backend)
	}
}

// server bundles the dependencies the HTTP handlers share.
type server struct {
	registry   *providers.Registry
	store      credentials.Store
	resolver   *credentials.TokenResolver
	usage      usagelog.Writer
	usageQuery usagelog.Reader
	gate       *ratelimit.Gate
	breakers   *breaker.Set
	models     *modelcache.Cache

	adminKey    string
	corsOrigins []string

	bedrock bedrockClients
}

// newRouter builds the HTTP router.
func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.corsOrigins...))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"version":   version.Short(),
			"providers": s.registry.Len(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/ai-providers", s.handleListProviders)
	r.Get("/v1/ai-providers/{providerID}/models", s.handleModels)
	r.Get("/v1/ai-providers/{providerID}/models/live", s.handleLiveModels)
	r.HandleFunc("/v1/ai-providers/proxy/{providerID}/*", s.handleProxy)

	adminHandlers := &credentials.Handlers{
		Store:    s.store,
		Registry: s.registry,
		Usage:    s.usageQuery,
		Resolver: s.resolver,
	}
	r.Route("/admin", func(r chi.Router) {
		r.Use(credentials.AdminAuth(s.adminKey))
		r.Mount("/", adminHandlers.Routes())
	})

	r.Get("/dashboard", web.Handler())

	return r
}

// writeError writes the OpenAI-compatible JSON error envelope. An empty
// errType is derived from the status code.
func writeError(w http.ResponseWriter, status int, message, errType, code string) {
	if errType == "" {
		switch {
		case status == http.StatusUnauthorized:
			errType = "authentication_error"
		case status == http.StatusForbidden:
			errType = "permission_error"
		case status == http.StatusNotFound:
			errType = "invalid_request_error"
		case status == http.StatusTooManyRequests:
			errType = "rate_limit_error"
		case status >= 500:
			errType = "bridge_error"
		default:
			errType = "invalid_request_error"
		}
	}
	if code == "" {
		code = errType
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errType,
			"code":    code,
		},
	})
}
