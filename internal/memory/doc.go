// Package memory keeps the server inside its container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from the MEMORY_LIMIT and
// MEMORY_RATIO environment variables, leaving headroom for the ffmpeg child
// processes that extract preview frames:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//	  - name: MEMORY_RATIO
//	    value: "0.75"
//
// An explicit GOMEMLIMIT always takes precedence.
//
// [Monitor] samples heap usage against that limit. Above the critical
// watermark it pauses callers of [Monitor.WaitIfPaused] and forces a GC;
// below the high watermark it releases them. The frame extractor uses it as
// a gate before starting each ffmpeg process, so a burst of scrubbing
// against large sources slows down instead of running out of memory.
package memory
