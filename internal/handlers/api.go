package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"orders-dashboard/internal/analytics"
	apperrors "orders-dashboard/internal/errors"
	"orders-dashboard/internal/observability"
	"orders-dashboard/internal/services"
)

const (
	defaultTopCategories = 5
	defaultTopLocations  = 5
	dateLayout           = "2006-01-02"
	cacheControl         = "public, max-age=300"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.MonthlyRevenue()

	apperrors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleCategoryPerformance(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, defaultTopCategories)

	var data any
	switch order := r.URL.Query().Get("order"); order {
	case "", "desc":
		data = h.analytics.TopCategories(limit)
	case "asc":
		data = h.analytics.WorstCategories(limit)
	default:
		requestID := observability.GetRequestID(r.Context())
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("order must be asc or desc"), requestID)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	role := analytics.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = analytics.RoleCustomer
	}
	granularity := analytics.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = analytics.ByCity
	}

	data, err := h.analytics.TopLocations(role, granularity, limitParam(r, defaultTopLocations))
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.ValidationWrap(err, "invalid location selector"), requestID)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccessWithHeaders(w, h.analytics.RFM(), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleRFMSummary(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccessWithHeaders(w, h.analytics.RFMSummary(), map[string]string{
		"Cache-Control": cacheControl,
	})
}

type windowResponse struct {
	Window     services.Window `json:"window"`
	DatasetMin time.Time       `json:"dataset_min"`
	DatasetMax time.Time       `json:"dataset_max"`
}

func (h *APIHandlers) HandleGetWindow(w http.ResponseWriter, r *http.Request) {
	min, max, _ := h.analytics.Bounds()

	apperrors.WriteSuccess(w, windowResponse{
		Window:     h.analytics.Window(),
		DatasetMin: min,
		DatasetMax: max,
	})
}

// HandleSetWindow refilters the dashboard to the start/end query parameters
// (YYYY-MM-DD, both inclusive). A window whose start is after its end is a
// client error, not an empty dashboard.
func (h *APIHandlers) HandleSetWindow(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	start, err := time.Parse(dateLayout, r.URL.Query().Get("start"))
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("start must be a YYYY-MM-DD date"), requestID)
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end"))
	if err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequest("end must be a YYYY-MM-DD date"), requestID)
		return
	}

	if err := h.analytics.SetWindow(start, end); err != nil {
		if errors.Is(err, analytics.ErrInvalidWindow) {
			apperrors.WriteError(w, h.logger, apperrors.ValidationWrap(err, "window start must not be after end"), requestID)
			return
		}
		apperrors.WriteError(w, h.logger, apperrors.Wrap(err, apperrors.CodeInternal, "failed to apply window"), requestID)
		return
	}

	apperrors.WriteSuccess(w, h.analytics.Window())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, h.analytics.Stats())
}
