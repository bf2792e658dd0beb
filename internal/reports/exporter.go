// Package reports writes derived analytics tables to timestamped JSON files
// for offline consumption.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func ExportJSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}

	return nil
}

// TimestampedFilename builds an output path like dir/rfm_20230301_120000.json
// so repeated runs never overwrite one another.
func TimestampedFilename(baseDir, name string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, t))
}
