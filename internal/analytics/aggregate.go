// Package analytics holds the pure aggregation functions that turn a filtered
// order-line dataset into the derived tables the dashboard presents. Every
// function takes its input explicitly and owns its output; none of them keeps
// package-level state, so re-running an aggregation on the same input always
// produces the same table.
package analytics

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"orders-dashboard/internal/models"
)

// ErrInvalidWindow reports a filter window whose start date falls after its
// end date. Callers must be able to tell this apart from a window that is
// merely empty.
var ErrInvalidWindow = errors.New("window start date is after end date")

type Role string

type Granularity string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"

	ByCity  Granularity = "city"
	ByState Granularity = "state"
)

// dateOf truncates a timestamp to its calendar date, discarding time of day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FilterWindow returns the order lines whose purchase date falls inside the
// inclusive [start, end] calendar-date window. Time-of-day components on the
// bounds are ignored. A start after end is a configuration error.
func FilterWindow(lines []models.OrderLine, start, end time.Time) ([]models.OrderLine, error) {
	from, to := dateOf(start), dateOf(end)
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	filtered := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		d := dateOf(line.PurchasedAt)
		if d.Before(from) || d.After(to) {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered, nil
}

// MonthlyRevenue buckets order lines by the calendar month of their purchase
// timestamp. Each bucket counts distinct orders and sums line prices; a
// multi-line order contributes every one of its lines to the revenue sum.
// Buckets come out chronologically ascending, labelled MM-YYYY. Months with
// no orders produce no row.
func MonthlyRevenue(lines []models.OrderLine) []models.MonthlyRevenue {
	type bucket struct {
		orders  map[string]struct{}
		revenue float64
	}

	buckets := make(map[time.Time]*bucket)
	for _, line := range lines {
		month := time.Date(line.PurchasedAt.Year(), line.PurchasedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		b := buckets[month]
		if b == nil {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[month] = b
		}
		b.orders[line.OrderID] = struct{}{}
		b.revenue += line.Price
	}

	months := make([]time.Time, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })

	result := make([]models.MonthlyRevenue, 0, len(months))
	for _, month := range months {
		b := buckets[month]
		result = append(result, models.MonthlyRevenue{
			Month:        month.Format("01-2006"),
			OrderCount:   len(b.orders),
			TotalRevenue: b.revenue,
		})
	}
	return result
}

// groupCategories sums the per-line item measure per product category, in
// first-encounter order. An empty category label gets its own bucket.
func groupCategories(lines []models.OrderLine) []models.CategorySales {
	index := make(map[string]int)
	grouped := make([]models.CategorySales, 0)
	for _, line := range lines {
		i, ok := index[line.ProductCategory]
		if !ok {
			i = len(grouped)
			index[line.ProductCategory] = i
			grouped = append(grouped, models.CategorySales{Category: line.ProductCategory})
		}
		grouped[i].ItemsSold += line.ItemSeq
	}
	return grouped
}

// CategoryPerformance ranks product categories by their summed item measure,
// descending. Ties keep the order in which the categories first appear in the
// input, which makes the ranking deterministic over the sorted dataset.
func CategoryPerformance(lines []models.OrderLine) []models.CategorySales {
	grouped := groupCategories(lines)
	slices.SortStableFunc(grouped, func(a, b models.CategorySales) int {
		return b.ItemsSold - a.ItemsSold
	})
	return grouped
}

// CategoryPerformanceAscending is the independent ascending total order over
// the same grouped sums; its head is the worst performing category. It is a
// fresh sort of the grouped data, not a reversal of the descending table.
func CategoryPerformanceAscending(lines []models.OrderLine) []models.CategorySales {
	grouped := groupCategories(lines)
	slices.SortStableFunc(grouped, func(a, b models.CategorySales) int {
		return a.ItemsSold - b.ItemsSold
	})
	return grouped
}

// LocationCounts counts distinct customers or sellers per city or state.
// Counts are of unique identifiers, not rows: a customer with many order
// lines in one city still counts once there. Rows come out in first-encounter
// order with no ranking imposed; see TopLocations for the top-N view.
func LocationCounts(lines []models.OrderLine, role Role, granularity Granularity) ([]models.LocationCount, error) {
	pick := func(line models.OrderLine) (location, id string) {
		switch {
		case role == RoleCustomer && granularity == ByCity:
			return line.CustomerCity, line.CustomerID
		case role == RoleCustomer && granularity == ByState:
			return line.CustomerState, line.CustomerID
		case role == RoleSeller && granularity == ByCity:
			return line.SellerCity, line.SellerID
		default:
			return line.SellerState, line.SellerID
		}
	}

	if role != RoleCustomer && role != RoleSeller {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if granularity != ByCity && granularity != ByState {
		return nil, fmt.Errorf("unknown granularity %q", granularity)
	}

	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	grouped := make([]models.LocationCount, 0)

	for _, line := range lines {
		location, id := pick(line)
		if _, ok := index[location]; !ok {
			index[location] = len(grouped)
			grouped = append(grouped, models.LocationCount{Location: location})
			seen[location] = make(map[string]struct{})
		}
		if _, dup := seen[location][id]; dup {
			continue
		}
		seen[location][id] = struct{}{}
		grouped[index[location]].Count++
	}
	return grouped, nil
}

// TopLocations returns the n highest-count rows of a location table,
// descending by count with ties kept in table order. The input table is not
// modified.
func TopLocations(table []models.LocationCount, n int) []models.LocationCount {
	ranked := slices.Clone(table)
	slices.SortStableFunc(ranked, func(a, b models.LocationCount) int {
		return b.Count - a.Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RFM computes recency, frequency and monetary value per distinct customer.
// Recency is the whole number of days between the latest purchase date in the
// whole input and the customer's own latest purchase date, both truncated to
// calendar dates, so it is never negative and is zero for whoever bought most
// recently. An empty input yields an empty table; the global maximum date is
// never taken over an empty set.
func RFM(lines []models.OrderLine) []models.RFMMetrics {
	if len(lines) == 0 {
		return []models.RFMMetrics{}
	}

	type acc struct {
		orders   map[string]struct{}
		monetary float64
		lastDate time.Time
	}

	recentDate := dateOf(lines[0].PurchasedAt)
	index := make(map[string]int)
	customers := make([]string, 0)
	accs := make([]*acc, 0)

	for _, line := range lines {
		d := dateOf(line.PurchasedAt)
		if d.After(recentDate) {
			recentDate = d
		}

		i, ok := index[line.CustomerID]
		if !ok {
			i = len(accs)
			index[line.CustomerID] = i
			customers = append(customers, line.CustomerID)
			accs = append(accs, &acc{orders: make(map[string]struct{}), lastDate: d})
		}
		a := accs[i]
		a.orders[line.OrderID] = struct{}{}
		a.monetary += line.Price
		if d.After(a.lastDate) {
			a.lastDate = d
		}
	}

	result := make([]models.RFMMetrics, len(accs))
	for i, a := range accs {
		result[i] = models.RFMMetrics{
			CustomerID: customers[i],
			Recency:    int(recentDate.Sub(a.lastDate) / (24 * time.Hour)),
			Frequency:  len(a.orders),
			Monetary:   a.monetary,
		}
	}
	return result
}

// Summarize reduces an RFM table to the dashboard's headline averages.
func Summarize(table []models.RFMMetrics) models.RFMSummary {
	s := models.RFMSummary{Customers: len(table)}
	if len(table) == 0 {
		return s
	}
	for _, row := range table {
		s.AvgRecency += float64(row.Recency)
		s.AvgFrequency += float64(row.Frequency)
		s.AvgMonetary += row.Monetary
	}
	n := float64(len(table))
	s.AvgRecency /= n
	s.AvgFrequency /= n
	s.AvgMonetary /= n
	return s
}
