// Package dataset loads the order-line CSV into typed, time-sorted records.
// Parsing and type coercion happen here, at the boundary: a record with a
// missing or unparseable required field fails the whole load instead of
// leaking a half-typed row into the aggregators.
package dataset

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"orders-dashboard/internal/models"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
	cacheDir     = ".cache"

	// Columns 0-10 are required, the remaining lifecycle timestamps may be blank.
	minColumns = 11
)

const (
	colOrderID = iota
	colCustomerID
	colSellerID
	colCustomerCity
	colCustomerState
	colSellerCity
	colSellerState
	colProductCategory
	colOrderItemID
	colPrice
	colPurchasedAt
	colApprovedAt
	colCarrierHandoffAt
	colDeliveredAt
	colEstimatedDelivery
	colShippingLimitAt
)

var timestampLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

type cachedDataset struct {
	Lines    []models.OrderLine
	LoadedAt time.Time
}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads, validates and types every order line in the CSV file and
// returns them sorted ascending by purchase timestamp. A valid gob cache of
// the parsed dataset is used when the file has not changed since it was
// written.
func (l *Loader) Load(ctx context.Context, filename string) ([]models.OrderLine, error) {
	if cached, err := l.loadFromCache(filename); err == nil {
		if info, err := os.Stat(filename); err == nil && info.ModTime().Before(cached.LoadedAt) {
			l.logger.Info("loaded dataset from cache", "records", len(cached.Lines))
			return cached.Lines, nil
		}
	}

	start := time.Now()
	l.logger.Info("parsing order CSV", "filename", filename)

	lines, err := l.parseCSV(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	// Equal timestamps keep file order so downstream tie-breaks are stable.
	slices.SortStableFunc(lines, func(a, b models.OrderLine) int {
		return a.PurchasedAt.Compare(b.PurchasedAt)
	})

	if err := l.saveToCache(filename, lines); err != nil {
		l.logger.Warn("failed to save dataset cache", "error", err)
	}

	duration := time.Since(start)
	l.logger.Info("order CSV parsed",
		"records", len(lines),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(lines))/duration.Seconds()))

	return lines, nil
}

func (l *Loader) parseCSV(ctx context.Context, filename string) ([]models.OrderLine, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	// Skip header
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}

	var (
		parsed  []models.OrderLine
		batch   = make([]string, 0, batchSize)
		lineNum = 1
	)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())

		if len(batch) >= batchSize {
			lines, err := parseBatch(ctx, batch, lineNum+1)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, lines...)
			lineNum += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		lines, err := parseBatch(ctx, batch, lineNum+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, lines...)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	return parsed, nil
}

// parseBatch fans record parsing out over a bounded worker group. Results
// land in per-index slots so the batch keeps its file order.
func parseBatch(ctx context.Context, batch []string, firstLine int) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, raw := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			line, err := parseOrderLine(strings.Split(raw, ","))
			if err != nil {
				return fmt.Errorf("line %d: %w", firstLine+i, err)
			}
			lines[i] = line
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

func parseOrderLine(record []string) (models.OrderLine, error) {
	if len(record) < minColumns {
		return models.OrderLine{}, fmt.Errorf("insufficient columns: got %d, need %d", len(record), minColumns)
	}

	orderID := strings.TrimSpace(record[colOrderID])
	if orderID == "" {
		return models.OrderLine{}, fmt.Errorf("missing order_id")
	}

	itemSeq, err := strconv.Atoi(strings.TrimSpace(record[colOrderItemID]))
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("invalid order_item_id: %w", err)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[colPrice]), 64)
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("invalid price: %w", err)
	}
	if price < 0 {
		return models.OrderLine{}, fmt.Errorf("negative price %v", price)
	}

	purchasedAt, err := parseTimestamp(record[colPurchasedAt])
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("invalid order_purchase_timestamp: %w", err)
	}
	if purchasedAt.IsZero() {
		return models.OrderLine{}, fmt.Errorf("missing order_purchase_timestamp")
	}

	line := models.OrderLine{
		OrderID:         orderID,
		CustomerID:      strings.TrimSpace(record[colCustomerID]),
		SellerID:        strings.TrimSpace(record[colSellerID]),
		CustomerCity:    strings.TrimSpace(record[colCustomerCity]),
		CustomerState:   strings.TrimSpace(record[colCustomerState]),
		SellerCity:      strings.TrimSpace(record[colSellerCity]),
		SellerState:     strings.TrimSpace(record[colSellerState]),
		ProductCategory: strings.TrimSpace(record[colProductCategory]),
		ItemSeq:         itemSeq,
		Price:           price,
		PurchasedAt:     purchasedAt,
	}

	// Lifecycle timestamps are carried but unused by the aggregators; a blank
	// value stays the zero time, a present but malformed one is still an error.
	optional := []struct {
		col  int
		dest *time.Time
	}{
		{colApprovedAt, &line.ApprovedAt},
		{colCarrierHandoffAt, &line.CarrierHandoffAt},
		{colDeliveredAt, &line.DeliveredAt},
		{colEstimatedDelivery, &line.EstimatedDelivery},
		{colShippingLimitAt, &line.ShippingLimitAt},
	}
	for _, o := range optional {
		if o.col >= len(record) {
			continue
		}
		t, err := parseTimestamp(record[o.col])
		if err != nil {
			return models.OrderLine{}, fmt.Errorf("invalid timestamp in column %d: %w", o.col, err)
		}
		*o.dest = t
	}

	return line, nil
}

// parseTimestamp normalizes a CSV timestamp to a zoneless UTC instant. Blank
// values come back as the zero time.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Bounds returns the earliest and latest purchase timestamps of a non-empty,
// ascending-sorted dataset. ok is false for an empty dataset.
func Bounds(lines []models.OrderLine) (min, max time.Time, ok bool) {
	if len(lines) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return lines[0].PurchasedAt, lines[len(lines)-1].PurchasedAt, true
}

// Cache management
func (l *Loader) cacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (l *Loader) saveToCache(csvPath string, lines []models.OrderLine) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cachedDataset{Lines: lines, LoadedAt: time.Now()})
}

func (l *Loader) loadFromCache(csvPath string) (*cachedDataset, error) {
	file, err := os.Open(l.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedDataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
