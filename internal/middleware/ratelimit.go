package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for the rate limiting middleware
type RateLimitConfig struct {
	// RequestLimit is the number of requests allowed per window. Zero or
	// less disables limiting.
	RequestLimit int
	// WindowSize is the sliding window length
	WindowSize time.Duration
	// KeyFunc extracts the client key; nil keys by IP
	KeyFunc httprate.KeyFunc
}

// DefaultRateLimitConfig returns a per-IP limit of requestsPerMinute.
func DefaultRateLimitConfig(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestLimit: requestsPerMinute,
		WindowSize:   time.Minute,
	}
}

// RateLimit returns a middleware limiting each client to a sliding window
// of requests. Rejected requests get a JSON 429 with Retry-After.
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.RequestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if config.WindowSize <= 0 {
		config.WindowSize = time.Minute
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	retryAfter := strconv.Itoa(int(config.WindowSize.Seconds()))

	return httprate.Limit(
		config.RequestLimit,
		config.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.HTTPRateLimitedTotal.Inc()
			logging.Debug("Rate limited %s %s from %s", r.Method, sanitizeLogField(r.URL.Path), sanitizeLogField(getClientIP(r)))

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			if err := json.NewEncoder(w).Encode(map[string]string{
				"error": "Too many requests, please try again later",
			}); err != nil {
				logging.Warn("failed to write rate limit response: %v", err)
			}
		}),
	)
}
