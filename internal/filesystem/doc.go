/*
Package filesystem opens and stats upload files with retries for stale NFS
file handles.

The upload directory is often a shared volume so several replicas can
serve the same session's source media. A file replaced or removed on the
server side surfaces as ESTALE (errno 116) on the next access, which
usually clears on a second attempt. [StatWithRetry] and [OpenWithRetry]
retry only that error, with exponential backoff:

	f, err := filesystem.OpenWithRetry(src.Path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Defaults are 3 retries starting at 50ms and capped at 500ms. Every other
error returns on the first attempt.

Attempts, successes, failures and durations are exported per operation and
volume. Volumes are named with a [VolumeResolver] set once at startup via
[SetDefaultVolumeResolver].
*/
package filesystem
