package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"orders-dashboard/internal/config"
	"orders-dashboard/internal/middleware"
	"orders-dashboard/internal/observability"
	"orders-dashboard/internal/server"
	"orders-dashboard/internal/services"
	"orders-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
	cacheMaxAge    = "public, max-age=300"
	dateLayout     = "2006-01-02"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// applyInitialWindow narrows the freshly loaded dataset to the configured
// window bounds, when set. Bounds were already validated as dates by the
// config layer.
func applyInitialWindow(analytics *services.Analytics, cfg config.DatasetConfig) error {
	if cfg.WindowStart == "" && cfg.WindowEnd == "" {
		return nil
	}

	start, end := analytics.Window().Start, analytics.Window().End
	if cfg.WindowStart != "" {
		start, _ = time.Parse(dateLayout, cfg.WindowStart)
	}
	if cfg.WindowEnd != "" {
		end, _ = time.Parse(dateLayout, cfg.WindowEnd)
	}
	return analytics.SetWindow(start, end)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	analytics := services.NewAnalytics(logger)
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, cfg.Dataset.CSVFile); err != nil {
		logger.Error("failed to load order data", "error", err)
		os.Exit(1)
	}
	logger.Info("order data loaded", "duration", time.Since(start))

	if err := applyInitialWindow(analytics, cfg.Dataset); err != nil {
		logger.Error("failed to apply configured window", "error", err)
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
