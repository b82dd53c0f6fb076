package handlers

import (
	"fmt"
	"net/http"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the ffwizard_ session, scrub and decoder metrics.
// It is mounted on the separate metrics port, not the API router.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      metricsErrorLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// metricsErrorLogger routes gather errors to the application log.
type metricsErrorLogger struct{}

func (metricsErrorLogger) Println(v ...interface{}) {
	logging.Warn("Metrics gather error: %s", fmt.Sprint(v...))
}
