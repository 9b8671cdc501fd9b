package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	healthhandler "user-registry/internal/health/handler"
	"user-registry/internal/logging"
	"user-registry/internal/platform/web"
	"user-registry/internal/server/middleware"
	userhandler "user-registry/internal/user/handler"
)

// HTTPDeps holds the dependencies of the HTTP handler.
type HTTPDeps struct {
	// Users serves /usuarios. Required.
	Users userhandler.UserService
	// HealthPinger backs /healthz. If nil, /healthz always reports ok.
	HealthPinger healthhandler.Pinger
	// Log is the request and error logger. If nil, slog.Default is used.
	Log *slog.Logger
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
	// TracerProvider and MeterProvider feed the telemetry middleware. nil uses the globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// NewHTTPHandler returns the routed handler wrapped in CORS, request logging, telemetry and panic
// recovery (outermost first).
func NewHTTPHandler(deps HTTPDeps) (http.Handler, error) {
	if deps.Users == nil {
		return nil, errors.New("server: HTTPDeps.Users is required")
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	app := web.NewApp(log)
	userhandler.NewServer(deps.Users, log).Register(app)
	app.HandleRaw("GET /healthz", healthhandler.NewServer(deps.HealthPinger).HTTP())

	telemetry, err := middleware.Telemetry(deps.TracerProvider, deps.MeterProvider)
	if err != nil {
		return nil, err
	}
	// Recover sits innermost so panicked requests are still logged and measured as 500s.
	return middleware.Chain(app,
		middleware.CORS(deps.CORSOrigins),
		middleware.RequestLogger(log),
		telemetry,
		middleware.Recover(log),
	), nil
}

// NewHTTPServer returns an http.Server for addr with conservative timeouts.
func NewHTTPServer(addr string, h http.Handler, log *slog.Logger) *http.Server {
	if log == nil {
		log = slog.Default()
	}
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          logging.NewStdLogger(log, slog.LevelError),
	}
}
