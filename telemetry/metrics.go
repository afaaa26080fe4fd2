// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsHandled *prometheus.CounterVec
	CommandErrors   prometheus.Counter
	APIErrors       *prometheus.CounterVec

	// Histograms (seconds)
	APIRequestDuration *prometheus.HistogramVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "phizone_commands_handled_total", Help: "Chat commands dispatched, by subcommand"}, []string{"command"})
		CommandErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "phizone_command_errors_total", Help: "Commands answered with an error reply"})
		APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{Name: "phizone_api_errors_total", Help: "PhiZone API calls that failed (transport error or unexpected status)"}, []string{"endpoint"})
		APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "phizone_api_request_duration_seconds", Help: "PhiZone API request duration seconds", Buckets: prometheus.DefBuckets}, []string{"endpoint"})
	})
}

// CountCommand increments the handled counter for a subcommand.
func CountCommand(command string) {
	if CommandsHandled != nil {
		CommandsHandled.WithLabelValues(command).Inc()
	}
}

// CountCommandError increments the error-reply counter.
func CountCommandError() {
	if CommandErrors != nil {
		CommandErrors.Inc()
	}
}

// ObserveAPIRequest records the duration of one PhiZone API call.
func ObserveAPIRequest(endpoint string, d time.Duration) {
	if APIRequestDuration != nil {
		APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// CountAPIError increments the API error counter for an endpoint.
func CountAPIError(endpoint string) {
	if APIErrors != nil {
		APIErrors.WithLabelValues(endpoint).Inc()
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
