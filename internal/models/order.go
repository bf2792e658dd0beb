package models

import "time"

// OrderLine is one purchased item within an order. An order spanning several
// items appears as several lines sharing the same OrderID.
type OrderLine struct {
	OrderID           string
	CustomerID        string
	SellerID          string
	CustomerCity      string
	CustomerState     string
	SellerCity        string
	SellerState       string
	ProductCategory   string
	ItemSeq           int // per-line item quantity indicator, summed for category ranking
	Price             float64
	PurchasedAt       time.Time // always present, basis for all time bucketing
	ApprovedAt        time.Time
	CarrierHandoffAt  time.Time
	DeliveredAt       time.Time
	EstimatedDelivery time.Time
	ShippingLimitAt   time.Time
}

type MonthlyRevenue struct {
	Month        string  `json:"month"` // MM-YYYY
	OrderCount   int     `json:"order_count"`
	TotalRevenue float64 `json:"total_revenue"`
}

type CategorySales struct {
	Category  string `json:"product_category_name"`
	ItemsSold int    `json:"items_sold"`
}

type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type RFMMetrics struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"` // days since the dataset's latest purchase date
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// RFMSummary carries the dashboard headline averages over an RFM table.
type RFMSummary struct {
	Customers    int     `json:"customers"`
	AvgRecency   float64 `json:"avg_recency"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`
}
