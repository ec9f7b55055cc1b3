package engine

import "time"

// Clock supplies the current time in unix seconds. Implementations
// must be monotonically non-decreasing. The engine never reads the
// system clock directly.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current unix time in seconds.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

var _ Clock = SystemClock{}
