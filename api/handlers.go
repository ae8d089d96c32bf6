/*
handlers.go - HTTP API handlers for the report server

PURPOSE:
  Exposes the report over HTTP. Handles request parsing, JSON
  serialization, and delegates the computation to the engine.

ENDPOINTS:
  GET /api/report?as_of=YYYY-MM-DD  Report as of the given date (default today)
  GET /api/periods                  Per-period configured vs recorded hours
  GET /healthz                      Liveness probe

ARCHITECTURE:
  Handler holds the parsed schedule and an EntrySource. The source is
  either the SQLite cache or a live Toggl fetcher; handlers don't know
  which. Every request recomputes the report from scratch - the engine is
  deterministic and cheap, so there is nothing to cache or invalidate.

ERROR HANDLING:
  - 400: invalid as_of date
  - 500: schedule errors, source failures

SEE ALSO:
  - dto.go: Response structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/warp/ontrack/config"
	"github.com/warp/ontrack/engine"
)

// EntrySource supplies the time entries a report is computed from.
type EntrySource interface {
	Entries(ctx context.Context) ([]engine.TimeEntry, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Schedule *config.Schedule
	Source   EntrySource
	Logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a handler for the given schedule and entry source.
func NewHandler(schedule *config.Schedule, source EntrySource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Schedule: schedule,
		Source:   source,
		Logger:   logger,
		now:      time.Now,
	}
}

// GetReport computes and returns the report.
// GET /api/report?as_of=YYYY-MM-DD
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	asOf := engine.DateOf(h.now())
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := engine.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of date, want YYYY-MM-DD", err)
			return
		}
		asOf = parsed
	}

	entries, err := h.Source.Entries(r.Context())
	if err != nil {
		h.Logger.Error("entry source failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load time entries", err)
		return
	}

	report, err := engine.ComputeReport(h.Schedule.Periods, h.Schedule.Defaults, entries, asOf)
	if err != nil {
		h.Logger.Error("report computation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute report", err)
		return
	}

	writeJSON(w, http.StatusOK, reportDTO(report))
}

// GetPeriods returns the per-period breakdown.
// GET /api/periods
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Source.Entries(r.Context())
	if err != nil {
		h.Logger.Error("entry source failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load time entries", err)
		return
	}

	rows, err := engine.PeriodBreakdown(h.Schedule.Periods, h.Schedule.Defaults, entries)
	if err != nil {
		h.Logger.Error("period breakdown failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute period breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, periodRowDTOs(rows))
}

// Healthz is the liveness probe.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
