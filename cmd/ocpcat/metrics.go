package main

import (
	"net/http"

	"github.com/telsis/ocpclient/internal/logging"
	"github.com/telsis/ocpclient/internal/metrics"
)

// serveMetrics starts a /metrics HTTP server in the background if addr
// is non-empty. It never blocks the caller and never fails the command:
// a metrics endpoint is a diagnostic nicety, not load-bearing for dial,
// status, or send.
func serveMetrics(addr string, m *metrics.Metrics) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.L().Error("metrics_server_failed", "addr", addr, "error", err)
		}
	}()
}
