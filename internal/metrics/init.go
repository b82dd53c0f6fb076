package metrics

// Session kinds used as label values.
const (
	KindConvert = "convert"
	KindTrim    = "trim"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{KindConvert, KindTrim} {
		SessionsActive.WithLabelValues(kind)
		SessionsCreatedTotal.WithLabelValues(kind)
		SessionsExpiredTotal.WithLabelValues(kind)
		CommandsGeneratedTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error", "superseded"} {
		PreviewLoadsTotal.WithLabelValues(status)
		DecoderSeeksTotal.WithLabelValues(status)
	}

	for _, outcome := range []string{"published", "stale", "error"} {
		ScrubResultsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "error"} {
		ProbeDuration.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemRetryDuration.WithLabelValues(op, "uploads")
	}
}
