// Command report runs one aggregation pass over the order CSV and writes the
// selected derived table as a timestamped JSON file, without the HTTP
// dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"orders-dashboard/internal/analytics"
	"orders-dashboard/internal/dataset"
	"orders-dashboard/internal/reports"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()

	report := flag.String("report", "", "Report type (monthly, categories, locations or rfm)")
	csvFile := flag.String("csv", "order_data.csv", "Order-line CSV file")
	output := flag.String("output", "reports/", "Output folder path")
	from := flag.String("from", "", "Window start date (YYYY-MM-DD, defaults to dataset min)")
	to := flag.String("to", "", "Window end date (YYYY-MM-DD, defaults to dataset max)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *report == "" {
		fmt.Fprintln(os.Stderr, "Usage: report --report=rfm [--csv=order_data.csv] [--from=YYYY-MM-DD --to=YYYY-MM-DD]")
		os.Exit(1)
	}

	if err := run(*report, *csvFile, *output, *from, *to, logger); err != nil {
		logger.Error("report failed", "report", *report, "error", err)
		os.Exit(1)
	}
}

func run(report, csvFile, output, from, to string, logger *slog.Logger) error {
	startTime := time.Now()
	logger.Info("starting report", "report", report, "csv", csvFile)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lines, err := dataset.NewLoader(logger).Load(ctx, csvFile)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	start, end, _ := dataset.Bounds(lines)
	if from != "" {
		if start, err = time.Parse(dateLayout, from); err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
	}
	if to != "" {
		if end, err = time.Parse(dateLayout, to); err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}

	filtered, err := analytics.FilterWindow(lines, start, end)
	if err != nil {
		return err
	}

	var table any
	switch report {
	case "monthly":
		table = analytics.MonthlyRevenue(filtered)
	case "categories":
		table = analytics.CategoryPerformance(filtered)
	case "locations":
		tables := make(map[string][]any)
		for _, sel := range []struct {
			key  string
			role analytics.Role
			gran analytics.Granularity
		}{
			{"customer_city", analytics.RoleCustomer, analytics.ByCity},
			{"customer_state", analytics.RoleCustomer, analytics.ByState},
			{"seller_city", analytics.RoleSeller, analytics.ByCity},
			{"seller_state", analytics.RoleSeller, analytics.ByState},
		} {
			counts, err := analytics.LocationCounts(filtered, sel.role, sel.gran)
			if err != nil {
				return err
			}
			rows := make([]any, len(counts))
			for i, row := range counts {
				rows[i] = row
			}
			tables[sel.key] = rows
		}
		table = tables
	case "rfm":
		table = analytics.RFM(filtered)
	default:
		return fmt.Errorf("unknown report %q", report)
	}

	filename := reports.TimestampedFilename(output, report)
	if err := reports.ExportJSON(filename, table); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	logger.Info("report completed",
		"rows_in_window", len(filtered),
		"output", filename,
		"duration", time.Since(startTime),
	)
	return nil
}
