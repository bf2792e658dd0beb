package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"orders-dashboard/internal/models"
	"orders-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(testLogger())
	testData := []models.OrderLine{
		{
			OrderID:         "O1",
			CustomerID:      "C1",
			SellerID:        "S1",
			CustomerCity:    "sao paulo",
			CustomerState:   "SP",
			SellerCity:      "campinas",
			SellerState:     "SP",
			ProductCategory: "toys",
			ItemSeq:         1,
			Price:           10,
			PurchasedAt:     time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			OrderID:         "O2",
			CustomerID:      "C2",
			SellerID:        "S2",
			CustomerCity:    "curitiba",
			CustomerState:   "PR",
			SellerCity:      "rio de janeiro",
			SellerState:     "RJ",
			ProductCategory: "housewares",
			ItemSeq:         2,
			Price:           35,
			PurchasedAt:     time.Date(2023, 2, 5, 15, 30, 0, 0, time.UTC),
		},
	}
	if err := a.SetData(testData); err != nil {
		t.Fatal(err)
	}
	return a
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Fatalf("expected success=true in response, got %+v", response)
	}
	return response
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleMonthlyRevenue(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-revenue", nil)
	w := httptest.NewRecorder()

	handlers.HandleMonthlyRevenue(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	response := decodeSuccess(t, w)
	data, ok := response["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 monthly rows, got %+v", response["data"])
	}

	first, ok := data[0].(map[string]interface{})
	if !ok || first["month"] != "01-2023" {
		t.Errorf("first bucket = %+v, want month 01-2023", data[0])
	}
}

func TestAPIHandlers_HandleCategoryPerformance(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	tests := []struct {
		name      string
		url       string
		wantFirst string
		wantCode  int
	}{
		{"default is descending", "/api/category-performance", "housewares", http.StatusOK},
		{"explicit descending", "/api/category-performance?order=desc", "housewares", http.StatusOK},
		{"ascending", "/api/category-performance?order=asc", "toys", http.StatusOK},
		{"bad order", "/api/category-performance?order=sideways", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.HandleCategoryPerformance(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			response := decodeSuccess(t, w)
			data := response["data"].([]interface{})
			first := data[0].(map[string]interface{})
			if first["product_category_name"] != tt.wantFirst {
				t.Errorf("head of table = %+v, want %q", first, tt.wantFirst)
			}
		})
	}
}

func TestAPIHandlers_HandleLocations(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	tests := []struct {
		name     string
		url      string
		wantCode int
		wantLen  int
	}{
		{"defaults to customer city", "/api/locations", http.StatusOK, 2},
		{"seller by state", "/api/locations?role=seller&granularity=state", http.StatusOK, 2},
		{"limit applies", "/api/locations?limit=1", http.StatusOK, 1},
		{"unknown role", "/api/locations?role=warehouse", http.StatusBadRequest, 0},
		{"unknown granularity", "/api/locations?granularity=zip", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.HandleLocations(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			response := decodeSuccess(t, w)
			data := response["data"].([]interface{})
			if len(data) != tt.wantLen {
				t.Errorf("rows = %d, want %d", len(data), tt.wantLen)
			}
		})
	}
}

func TestAPIHandlers_HandleRFM(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rfm", nil)
	w := httptest.NewRecorder()

	handlers.HandleRFM(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].([]interface{})
	if len(data) != 2 {
		t.Fatalf("expected 2 RFM rows, got %d", len(data))
	}

	var sawZeroRecency bool
	for _, rowAny := range data {
		row := rowAny.(map[string]interface{})
		if row["recency"].(float64) < 0 {
			t.Errorf("recency must be non-negative: %+v", row)
		}
		if row["recency"].(float64) == 0 {
			sawZeroRecency = true
		}
	}
	if !sawZeroRecency {
		t.Error("the most recent buyer must have recency zero")
	}
}

func TestAPIHandlers_HandleRFMSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rfm/summary", nil)
	w := httptest.NewRecorder()

	handlers.HandleRFMSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if data["customers"].(float64) != 2 {
		t.Errorf("customers = %v, want 2", data["customers"])
	}
}

func TestAPIHandlers_HandleSetWindow(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantCode int
	}{
		{"valid window", "/api/window?start=2023-01-01&end=2023-01-31", http.StatusOK},
		{"empty window is valid", "/api/window?start=2022-06-01&end=2022-06-01", http.StatusOK},
		{"degenerate window", "/api/window?start=2023-02-01&end=2023-01-01", http.StatusBadRequest},
		{"missing start", "/api/window?end=2023-01-31", http.StatusBadRequest},
		{"malformed date", "/api/window?start=january&end=2023-01-31", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

			req := httptest.NewRequest(http.MethodPut, tt.url, nil)
			w := httptest.NewRecorder()

			handlers.HandleSetWindow(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAPIHandlers_WindowChangesTables(t *testing.T) {
	analytics := createTestAnalytics(t)
	handlers := NewAPIHandlers(analytics, testLogger())

	// Narrow to January only.
	req := httptest.NewRequest(http.MethodPut, "/api/window?start=2023-01-01&end=2023-01-31", nil)
	handlers.HandleSetWindow(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/monthly-revenue", nil)
	w := httptest.NewRecorder()
	handlers.HandleMonthlyRevenue(w, req)

	response := decodeSuccess(t, w)
	data := response["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 monthly row after narrowing, got %d", len(data))
	}
}

func TestAPIHandlers_HandleGetWindow(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/window", nil)
	w := httptest.NewRecorder()

	handlers.HandleGetWindow(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	for _, key := range []string{"window", "dataset_min", "dataset_max"} {
		if _, ok := data[key]; !ok {
			t.Errorf("response missing %q: %+v", key, data)
		}
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]interface{})
	if data["record_count"].(float64) != 2 {
		t.Errorf("record_count = %v, want 2", data["record_count"])
	}
}
