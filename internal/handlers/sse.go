package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"orders-dashboard/internal/analytics"
	"orders-dashboard/internal/models"
	"orders-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

const (
	topCategoryRows = 5
	topLocationRows = 5
)

var categoryTablesTemplate = template.Must(template.New("categoryTables").Parse(`
<div id="categories-content">
<div class="table-pair">
<div>
<h3>Best Performing Products</h3>
<table class="modern-table">
<thead><tr><th>Category</th><th>Items Sold</th></tr></thead>
<tbody>
{{range .Best}}<tr><td>{{.Category}}</td><td><strong>{{.ItemsSold}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>
<div>
<h3>Worst Performing Products</h3>
<table class="modern-table">
<thead><tr><th>Category</th><th>Items Sold</th></tr></thead>
<tbody>
{{range .Worst}}<tr><td>{{.Category}}</td><td><strong>{{.ItemsSold}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>
</div>
</div>`))

var locationTablesTemplate = template.Must(template.New("locationTables").Parse(`
<div id="{{.ID}}">
<div class="table-pair">
<div>
<h3>{{.Title}} by City</h3>
<table class="modern-table">
<thead><tr><th>City</th><th>Count</th></tr></thead>
<tbody>
{{range .Cities}}<tr><td>{{.Location}}</td><td><strong>{{.Count}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>
<div>
<h3>{{.Title}} by State</h3>
<table class="modern-table">
<thead><tr><th>State</th><th>Count</th></tr></thead>
<tbody>
{{range .States}}<tr><td>{{.Location}}</td><td><strong>{{.Count}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>
</div>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type categoryTablesData struct {
	Best  []models.CategorySales
	Worst []models.CategorySales
}

func (h *SSEHandlers) renderCategoryTables() (string, error) {
	var buf strings.Builder
	err := categoryTablesTemplate.Execute(&buf, categoryTablesData{
		Best:  h.analytics.TopCategories(topCategoryRows),
		Worst: h.analytics.WorstCategories(topCategoryRows),
	})
	return buf.String(), err
}

type locationTablesData struct {
	ID     string
	Title  string
	Cities []models.LocationCount
	States []models.LocationCount
}

func (h *SSEHandlers) renderLocationTables(role analytics.Role) (string, error) {
	cities, err := h.analytics.TopLocations(role, analytics.ByCity, topLocationRows)
	if err != nil {
		return "", err
	}
	states, err := h.analytics.TopLocations(role, analytics.ByState, topLocationRows)
	if err != nil {
		return "", err
	}

	data := locationTablesData{
		ID:     string(role) + "-locations-content",
		Title:  "Customers",
		Cities: cities,
		States: states,
	}
	if role == analytics.RoleSeller {
		data.Title = "Sellers"
	}

	var buf strings.Builder
	err = locationTablesTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"monthlyData": h.analytics.MonthlyRevenue(),
	})
	if err != nil {
		h.logger.Error("marshal monthly revenue", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="monthly-content">✅ Revenue trend data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCategoryTables()
	if err != nil {
		h.logger.Error("render category tables", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleCustomerLocations(w http.ResponseWriter, r *http.Request) {
	h.handleLocations(w, r, analytics.RoleCustomer)
}

func (h *SSEHandlers) HandleSellerLocations(w http.ResponseWriter, r *http.Request) {
	h.handleLocations(w, r, analytics.RoleSeller)
}

func (h *SSEHandlers) handleLocations(w http.ResponseWriter, r *http.Request, role analytics.Role) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderLocationTables(role)
	if err != nil {
		h.logger.Error("render location tables", "role", role, "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRFMSummary(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"rfmSummary": h.analytics.RFMSummary(),
	})
	if err != nil {
		h.logger.Error("marshal rfm summary", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="rfm-content">✅ RFM metrics loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll re-sends every panel after a window change.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	categories, err := h.renderCategoryTables()
	if err != nil {
		h.logger.Error("render category tables", "error", err)
		return
	}
	sse.PatchElements(categories)

	for _, role := range []analytics.Role{analytics.RoleCustomer, analytics.RoleSeller} {
		html, err := h.renderLocationTables(role)
		if err != nil {
			h.logger.Error("render location tables", "role", role, "error", err)
			return
		}
		sse.PatchElements(html)
	}

	allSignals, err := json.Marshal(map[string]any{
		"monthlyData": h.analytics.MonthlyRevenue(),
		"rfmSummary":  h.analytics.RFMSummary(),
	})
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
