package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orders-dashboard/internal/analytics"
	"orders-dashboard/internal/dataset"
	"orders-dashboard/internal/models"
)

// Window is the inclusive date range the dashboard is currently filtered to.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Snapshot holds every derived table for one filter window. A snapshot is
// computed in full on each window change and then never mutated, so readers
// can hold onto its slices without locking.
type Snapshot struct {
	Window         Window                  `json:"window"`
	MonthlyRevenue []models.MonthlyRevenue `json:"monthly_revenue"`
	CategoriesDesc []models.CategorySales  `json:"categories_desc"`
	CategoriesAsc  []models.CategorySales  `json:"categories_asc"`
	CustomerCities []models.LocationCount  `json:"customer_cities"`
	CustomerStates []models.LocationCount  `json:"customer_states"`
	SellerCities   []models.LocationCount  `json:"seller_cities"`
	SellerStates   []models.LocationCount  `json:"seller_states"`
	RFMTable       []models.RFMMetrics     `json:"rfm"`
	RFMSummary     models.RFMSummary       `json:"rfm_summary"`
	FilteredCount  int                     `json:"filtered_count"`
	ComputedAt     time.Time               `json:"computed_at"`
}

// Analytics owns the immutable sorted dataset and the snapshot derived from
// the current window. The aggregators themselves are pure; this service only
// decides when to re-run them and hands the same filtered slice to each.
type Analytics struct {
	mu       sync.RWMutex
	lines    []models.OrderLine
	snapshot *Snapshot
	logger   *slog.Logger
}

func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		snapshot: &Snapshot{},
		logger:   logger,
	}
}

// LoadFromCSV parses the order CSV and computes an initial snapshot over the
// dataset's full date range.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	lines, err := dataset.NewLoader(a.logger).Load(ctx, filename)
	if err != nil {
		return err
	}
	return a.SetData(lines)
}

// SetData replaces the dataset and recomputes over its full date range.
func (a *Analytics) SetData(lines []models.OrderLine) error {
	window := Window{}
	if min, max, ok := dataset.Bounds(lines); ok {
		window = Window{Start: min, End: max}
	}

	snapshot, err := compute(lines, window)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.lines = lines
	a.snapshot = snapshot
	a.mu.Unlock()

	a.logger.Info("dataset loaded",
		"records", len(lines),
		"window_start", window.Start,
		"window_end", window.End,
	)
	return nil
}

// SetWindow refilters the dataset to the inclusive [start, end] date range
// and recomputes every derived table. A start after end is rejected before
// any recomputation; the previous snapshot stays in place.
func (a *Analytics) SetWindow(start, end time.Time) error {
	a.mu.RLock()
	lines := a.lines
	a.mu.RUnlock()

	snapshot, err := compute(lines, Window{Start: start, End: end})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.snapshot = snapshot
	a.mu.Unlock()

	a.logger.Info("window changed",
		"start", start,
		"end", end,
		"filtered_records", snapshot.FilteredCount,
	)
	return nil
}

func compute(lines []models.OrderLine, window Window) (*Snapshot, error) {
	filtered, err := analytics.FilterWindow(lines, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Window:         window,
		MonthlyRevenue: analytics.MonthlyRevenue(filtered),
		CategoriesDesc: analytics.CategoryPerformance(filtered),
		CategoriesAsc:  analytics.CategoryPerformanceAscending(filtered),
		RFMTable:       analytics.RFM(filtered),
		FilteredCount:  len(filtered),
		ComputedAt:     time.Now(),
	}
	snapshot.RFMSummary = analytics.Summarize(snapshot.RFMTable)

	locations := []struct {
		role analytics.Role
		gran analytics.Granularity
		dest *[]models.LocationCount
	}{
		{analytics.RoleCustomer, analytics.ByCity, &snapshot.CustomerCities},
		{analytics.RoleCustomer, analytics.ByState, &snapshot.CustomerStates},
		{analytics.RoleSeller, analytics.ByCity, &snapshot.SellerCities},
		{analytics.RoleSeller, analytics.ByState, &snapshot.SellerStates},
	}
	for _, loc := range locations {
		table, err := analytics.LocationCounts(filtered, loc.role, loc.gran)
		if err != nil {
			return nil, err
		}
		*loc.dest = table
	}

	return snapshot, nil
}

func (a *Analytics) current() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

func (a *Analytics) Window() Window {
	return a.current().Window
}

// Bounds reports the dataset's earliest and latest purchase timestamps,
// the limits a window picker should offer.
func (a *Analytics) Bounds() (min, max time.Time, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return dataset.Bounds(a.lines)
}

func (a *Analytics) MonthlyRevenue() []models.MonthlyRevenue {
	return a.current().MonthlyRevenue
}

// TopCategories returns the best performing categories, highest sum first.
func (a *Analytics) TopCategories(limit int) []models.CategorySales {
	return clip(a.current().CategoriesDesc, limit)
}

// WorstCategories returns the head of the independent ascending order over
// the same grouped sums.
func (a *Analytics) WorstCategories(limit int) []models.CategorySales {
	return clip(a.current().CategoriesAsc, limit)
}

func (a *Analytics) TopLocations(role analytics.Role, granularity analytics.Granularity, limit int) ([]models.LocationCount, error) {
	snapshot := a.current()

	var table []models.LocationCount
	switch {
	case role == analytics.RoleCustomer && granularity == analytics.ByCity:
		table = snapshot.CustomerCities
	case role == analytics.RoleCustomer && granularity == analytics.ByState:
		table = snapshot.CustomerStates
	case role == analytics.RoleSeller && granularity == analytics.ByCity:
		table = snapshot.SellerCities
	case role == analytics.RoleSeller && granularity == analytics.ByState:
		table = snapshot.SellerStates
	default:
		return nil, fmt.Errorf("unknown location selector %s/%s", role, granularity)
	}

	return analytics.TopLocations(table, limit), nil
}

func (a *Analytics) RFM() []models.RFMMetrics {
	return a.current().RFMTable
}

func (a *Analytics) RFMSummary() models.RFMSummary {
	return a.current().RFMSummary
}

func (a *Analytics) Snapshot() *Snapshot {
	return a.current()
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":    len(a.lines),
		"filtered_count":  a.snapshot.FilteredCount,
		"window_start":    a.snapshot.Window.Start,
		"window_end":      a.snapshot.Window.End,
		"computed_at":     a.snapshot.ComputedAt,
		"months":          len(a.snapshot.MonthlyRevenue),
		"categories":      len(a.snapshot.CategoriesDesc),
		"customer_cities": len(a.snapshot.CustomerCities),
		"seller_cities":   len(a.snapshot.SellerCities),
		"customers":       len(a.snapshot.RFMTable),
	}
}

func clip[T any](table []T, limit int) []T {
	if limit >= 0 && len(table) > limit {
		return table[:limit]
	}
	return table
}
