package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// MetricsServer serves Prometheus metrics and health probes on a dedicated
// port, isolated from any user-facing traffic.
type MetricsServer struct {
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// healthResponse is the JSON body of the /healthz endpoint.
type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// NewMetricsServer creates a metrics server listening on addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &MetricsServer{
		startTime: time.Now(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	// The OpenTelemetry prometheus exporter registers with the global
	// Prometheus registry, which promhttp.Handler() exposes.
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	return s
}

// Start runs the server until Shutdown is called. Call it in a goroutine
// for non-blocking operation.
func (s *MetricsServer) Start() error {
	s.logger.Info("metrics server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *MetricsServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}
