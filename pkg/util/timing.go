package util

import "time"

// TimeOperationMicroseconds runs op and reports how long it took. Used to
// instrument the demux hot path without scattering timers through it.
func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}
