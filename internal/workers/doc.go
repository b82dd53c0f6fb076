/*
Package workers sizes and bounds concurrent ffmpeg work.

Every scrub of a trim session spawns an ffmpeg process to extract one
frame. With several sessions scrubbing at once the process count would
grow without bound, so the ffmpeg tool runs extractions through a Limiter.

# Sizing

Count scales runtime.GOMAXPROCS(0) by a multiplier, which honours
container CPU limits where runtime.NumCPU would report the host:

	n := workers.ForCPU(8)  // 1 per CPU, at most 8
	n := workers.ForIO(16)  // 2 per CPU, at most 16

The FFMPEG_WORKERS environment variable fixes the count; the limit still
applies.

# Limiting

	lim := workers.NewLimiter(workers.ForCPU(8))

	release, err := lim.Acquire(ctx)
	if err != nil {
		return err // ctx canceled while waiting
	}
	defer release()

Limiter is safe for concurrent use.
*/
package workers
