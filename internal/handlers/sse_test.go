package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orders-dashboard/internal/analytics"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSSEHandlers(t *testing.T) {
	a := createTestAnalytics(t)
	logger := testLogger()

	handlers := NewSSEHandlers(a, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != a {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderCategoryTables(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	html, err := handlers.renderCategoryTables()
	if err != nil {
		t.Fatalf("renderCategoryTables() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="categories-content">`,
		`<table class="modern-table">`,
		"Best Performing Products",
		"Worst Performing Products",
		"toys",
		"housewares",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}

	// Best table head is the category with the larger item sum.
	bestIdx := strings.Index(html, "Best Performing Products")
	worstIdx := strings.Index(html, "Worst Performing Products")
	bestSection := html[bestIdx:worstIdx]
	if strings.Index(bestSection, "housewares") > strings.Index(bestSection, "toys") && strings.Contains(bestSection, "toys") {
		t.Error("descending table should list housewares before toys")
	}
}

func TestSSEHandlers_renderLocationTables(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	customerHTML, err := handlers.renderLocationTables(analytics.RoleCustomer)
	if err != nil {
		t.Fatalf("renderLocationTables(customer) failed: %v", err)
	}
	for _, content := range []string{
		`<div id="customer-locations-content">`,
		"Customers by City",
		"Customers by State",
		"sao paulo",
		"SP",
	} {
		if !strings.Contains(customerHTML, content) {
			t.Errorf("customer HTML missing %q", content)
		}
	}

	sellerHTML, err := handlers.renderLocationTables(analytics.RoleSeller)
	if err != nil {
		t.Fatalf("renderLocationTables(seller) failed: %v", err)
	}
	for _, content := range []string{
		`<div id="seller-locations-content">`,
		"Sellers by City",
		"campinas",
		"rio de janeiro",
	} {
		if !strings.Contains(sellerHTML, content) {
			t.Errorf("seller HTML missing %q", content)
		}
	}
}

func TestSSEHandlers_HandleMonthlyRevenue(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/monthly-revenue", nil)
	w := httptest.NewRecorder()

	handlers.HandleMonthlyRevenue(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "monthlyData") {
		t.Error("SSE stream should patch the monthlyData signal")
	}
	if !strings.Contains(body, "01-2023") {
		t.Error("SSE stream should carry the monthly buckets")
	}
}

func TestSSEHandlers_HandleCategories(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/category-performance", nil)
	w := httptest.NewRecorder()

	handlers.HandleCategories(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "categories-content") {
		t.Error("SSE stream should patch the categories panel")
	}
	if !strings.Contains(body, "toys") || !strings.Contains(body, "housewares") {
		t.Error("SSE stream should carry both category rows")
	}
}

func TestSSEHandlers_HandleLocations(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/customer-locations", nil)
	w := httptest.NewRecorder()
	handlers.HandleCustomerLocations(w, req)

	if !strings.Contains(w.Body.String(), "customer-locations-content") {
		t.Error("customer SSE stream should patch the customer panel")
	}

	req = httptest.NewRequest(http.MethodGet, "/sse/seller-locations", nil)
	w = httptest.NewRecorder()
	handlers.HandleSellerLocations(w, req)

	if !strings.Contains(w.Body.String(), "seller-locations-content") {
		t.Error("seller SSE stream should patch the seller panel")
	}
}

func TestSSEHandlers_HandleRFMSummary(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/rfm-summary", nil)
	w := httptest.NewRecorder()

	handlers.HandleRFMSummary(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "rfmSummary") {
		t.Error("SSE stream should patch the rfmSummary signal")
	}
	if !strings.Contains(body, "rfm-content") {
		t.Error("SSE stream should patch the RFM panel")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	body := w.Body.String()
	for _, fragment := range []string{
		"categories-content",
		"customer-locations-content",
		"seller-locations-content",
		"monthlyData",
		"rfmSummary",
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("refresh-all stream missing %q", fragment)
		}
	}
}

func TestSSEHandlers_EmptyWindow(t *testing.T) {
	a := createTestAnalytics(t)
	if err := a.SetWindow(date(2022, 6, 1), date(2022, 6, 1)); err != nil {
		t.Fatal(err)
	}
	handlers := NewSSEHandlers(a, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	// Empty tables still render panels, they are just empty.
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "categories-content") {
		t.Error("empty window should still patch the panels")
	}
}
