package reports

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orders-dashboard/internal/models"
)

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rfm.json")

	table := []models.RFMMetrics{
		{CustomerID: "C1", Recency: 0, Frequency: 3, Monetary: 60},
		{CustomerID: "C2", Recency: 12, Frequency: 1, Monetary: 5},
	}

	if err := ExportJSON(path, table); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded []models.RFMMetrics
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].CustomerID != "C1" {
		t.Errorf("round-tripped table = %+v", decoded)
	}

	// Indented output, not a single line.
	if !strings.Contains(string(raw), "\n  ") {
		t.Error("exported JSON should be indented")
	}
}

func TestTimestampedFilename(t *testing.T) {
	got := TimestampedFilename("out", "monthly")

	if filepath.Dir(got) != "out" {
		t.Errorf("directory = %q, want out", filepath.Dir(got))
	}
	base := filepath.Base(got)
	if !strings.HasPrefix(base, "monthly_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("filename = %q, want monthly_<timestamp>.json", base)
	}
}
