package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orders-dashboard/internal/handlers"
	"orders-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/category-performance", s.apiHandlers.HandleCategoryPerformance)
	s.mux.HandleFunc("GET /api/locations", s.apiHandlers.HandleLocations)
	s.mux.HandleFunc("GET /api/rfm", s.apiHandlers.HandleRFM)
	s.mux.HandleFunc("GET /api/rfm/summary", s.apiHandlers.HandleRFMSummary)
	s.mux.HandleFunc("GET /api/window", s.apiHandlers.HandleGetWindow)
	s.mux.HandleFunc("PUT /api/window", s.apiHandlers.HandleSetWindow)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/monthly-revenue", s.sseHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /sse/category-performance", s.sseHandlers.HandleCategories)
	s.mux.HandleFunc("GET /sse/customer-locations", s.sseHandlers.HandleCustomerLocations)
	s.mux.HandleFunc("GET /sse/seller-locations", s.sseHandlers.HandleSellerLocations)
	s.mux.HandleFunc("GET /sse/rfm-summary", s.sseHandlers.HandleRFMSummary)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
