// Package logging provides a simple leveled logging interface for the
// wizard server and CLI, backed by zerolog.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true). LOG_FORMAT=json switches from the human-readable console
// output to one JSON object per line.
package logging
