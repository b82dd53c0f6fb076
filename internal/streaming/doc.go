/*
Package streaming provides timeout-protected streaming for HTTP responses.

The trim wizard serves each uploaded source back to the browser so the page
can play it. A slow or vanished client must not pin the handler goroutine
or the source file, so every write goes through a TimeoutWriter.

# Key Features

  - Per-write timeouts bounded by WriteTimeout
  - Idle detection: no successful write for IdleTimeout cancels the stream
  - Large writes split into ChunkSize pieces and flushed between chunks
  - Client disconnect detection through the request context

# Usage

ServeContent wraps http.ServeContent, so Range, If-Modified-Since and
HEAD requests behave exactly as the standard library serves them:

	f, err := filesystem.OpenWithRetry(src.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	_, err = streaming.ServeContent(w, r, src.Name, modTime, f, streaming.DefaultTimeoutWriterConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("Streaming error: %v", err)
	}

A TimeoutWriter can also be used directly as an http.ResponseWriter:

	tw := streaming.NewTimeoutWriter(r.Context(), w, config)
	defer tw.Close()
	_, err := io.Copy(tw, reader)

# Errors

	ErrWriteTimeout    a write or the idle period exceeded its timeout
	ErrClientGone      the request context ended
	ErrStreamCanceled  the writer was closed

Compare them with errors.Is.
*/
package streaming
