package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmfarina/betscan/internal/scan"
)

// StatsProvider exposes the scanner's progress counters.
type StatsProvider interface {
	Stats() scan.Stats
}

// StatusHandler serves process-level runtime status. The stats provider
// may be nil when the scanner is not running in this process.
type StatusHandler struct {
	mode      string
	startedAt time.Time
	stats     StatsProvider
	logger    *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, startedAt time.Time, stats StatsProvider, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{mode: mode, startedAt: startedAt, stats: stats, logger: logger}
}

// Status returns the run mode, uptime, and scanner counters.
// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":           h.mode,
		"started_at":     h.startedAt.Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.stats != nil {
		resp["scanner"] = h.stats.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
