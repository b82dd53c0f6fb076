// Package handlers provides HTTP request handlers for the wizard API.
//
// It includes handlers for:
//   - Catalog queries (legal codecs, extensions and pixel formats)
//   - Convert sessions: file, codec, container, pixel format, size and steps
//   - Trim sessions: upload, media playback, scrubbing with JPEG previews,
//     typed bounds and timecodes
//   - Command history and its text export
//   - Health checks, version and Prometheus metrics
//
// Session ids are carried in the {id} route variable. Wizard errors map to
// 400 for bad input, 404 for unknown sessions, 409 for a step that cannot
// advance, 413 for oversized uploads and 422 for media that cannot be
// decoded.
package handlers
