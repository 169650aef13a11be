// Package logging builds the arbor logger shared by the client and the CLI.
package logging

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/seenimoa/oilprice/internal/config"
)

// New creates a console logger configured from cfg.
// Format "json" switches off text output.
func New(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       !strings.EqualFold(cfg.Format, "json"),
		DisableTimestamp: false,
	})
	return logger.WithLevelFromString(Level(cfg.Level))
}

// Level normalizes a level string. Unknown values fall back to info.
func Level(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return "debug"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	default:
		return "info"
	}
}

// Discard returns a logger without writers, for tests and silent library use.
func Discard() arbor.ILogger {
	return arbor.NewLogger()
}
