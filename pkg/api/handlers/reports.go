package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
)

// ReportSource exposes the cached analysis of a running monitor.
type ReportSource interface {
	Latest() (*imagesync.Report, time.Time, error)
	RunOnce(ctx context.Context)
}

// LatestReport is the payload of GET /reports/latest.
type LatestReport struct {
	Report    *imagesync.Report `json:"report,omitempty"`
	LastRunAt *time.Time        `json:"last_run_at,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

// ReportHandler serves the monitor's reports. It never mutates a store.
type ReportHandler struct {
	source ReportSource
}

// NewReportHandler creates a report handler. source may be nil.
func NewReportHandler(source ReportSource) *ReportHandler {
	return &ReportHandler{source: source}
}

// Latest handles GET /reports/latest.
//
// Returns 503 until a run has succeeded. When the most recent run failed,
// the last good report is still returned together with the error.
func (h *ReportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("monitor not running"))
		return
	}
	writeLatest(w, h.source)
}

// Refresh handles POST /reports/refresh: it runs one analysis synchronously
// and returns the result like Latest.
func (h *ReportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("monitor not running"))
		return
	}

	logger.InfoCtx(r.Context(), "Analysis requested over API")
	h.source.RunOnce(r.Context())
	writeLatest(w, h.source)
}

func writeLatest(w http.ResponseWriter, source ReportSource) {
	report, at, err := source.Latest()

	if report == nil {
		msg := "no analysis has completed yet"
		if err != nil {
			msg = err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResponse(msg))
		return
	}

	payload := LatestReport{Report: report, LastRunAt: &at}
	if err != nil {
		payload.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, okResponse(payload))
}
