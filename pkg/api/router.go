package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/api/handlers"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/metrics"
)

// Dependencies are the components the router serves. Every field may be zero.
type Dependencies struct {
	Stores  []handlers.StoreCheck
	Reports handlers.ReportSource
}

// NewRouter creates the chi router with middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /health/stores - Live store health
//   - GET /reports/latest - Latest cached analysis
//   - POST /reports/refresh - Run an analysis now
//   - GET /metrics - Prometheus metrics (404 when disabled)
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	healthHandler := handlers.NewHealthHandler(deps.Stores...)
	reportHandler := handlers.NewReportHandler(deps.Reports)

	r.Route("/health", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/stores", healthHandler.Stores)
	})

	// Refresh lists both stores in full and may outlive the health timeout.
	r.Route("/reports", func(r chi.Router) {
		r.Get("/latest", reportHandler.Latest)
		r.Post("/refresh", reportHandler.Refresh)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each request through the internal logger: start at
// DEBUG, completion at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, float64(time.Since(start).Microseconds())/1000.0,
		)
	})
}
