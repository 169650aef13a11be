// Package export writes fetched price series to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seenimoa/oilprice/pkg/models"
)

// Saver writes a price series to a single file.
type Saver interface {
	Save(prices []models.HistoricalPrice, path string) error
	Extension() string
}

// Formats lists the supported output formats.
var Formats = []string{"csv", "json", "parquet", "sqlite"}

// NewSaver returns the Saver for format, or nil if the format is not
// supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	case "sqlite":
		return SQLiteSaver{}
	default:
		return nil
	}
}

// MustSaver is NewSaver that panics on an unsupported format.
func MustSaver(format string) Saver {
	s := NewSaver(format)
	if s == nil {
		panic(fmt.Sprintf("export: unsupported format %q (use: %s)", format, strings.Join(Formats, ", ")))
	}
	return s
}

// FilePath returns dir/<commodity>.<ext>, e.g. data/WTI_USD.csv.
func FilePath(dir, commodity string, s Saver) string {
	return filepath.Join(dir, commodity+"."+s.Extension())
}

// Write saves prices to path with s, creating parent directories.
func Write(s Saver, prices []models.HistoricalPrice, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := s.Save(prices, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
