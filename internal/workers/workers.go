package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/semaphore"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "FFMPEG_WORKERS"

// Count returns the number of workers for a task type, scaled from
// GOMAXPROCS so container CPU limits are respected.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
// FFMPEG_WORKERS overrides the calculation but is still capped.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Limiter bounds how many jobs run at once.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
}

// NewLimiter returns a Limiter admitting n concurrent jobs; n < 1 admits one.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Acquire blocks until a slot is free or ctx is done. The returned
// function releases the slot and must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}

// Size returns the number of slots.
func (l *Limiter) Size() int {
	return l.size
}
