// Package middleware provides HTTP middleware for the wizard server.
//
// It includes:
//   - Structured access logging tagged with the wizard flow and session
//   - Response compression (gzip)
//   - Prometheus request metrics labeled by route template
//   - Per-client rate limiting
package middleware
