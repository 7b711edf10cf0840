package timing

import (
	"math"
	"time"
)

// Duration is a playback time budget. The distinguished InfiniteFuture
// value means "no time limit at all".
type Duration time.Duration

const InfiniteFuture = Duration(math.MaxInt64)

// NotInitialized marks integer limits (frames, loops) the user did not set.
const NotInitialized = -2

// FromSeconds converts fractional seconds from the command line,
// rounded to the nearest millisecond.
func FromSeconds(sec float64) Duration {
	return Duration(time.Duration(math.Round(sec*1000)) * time.Millisecond)
}

func Millis(ms int) Duration {
	return Duration(time.Duration(ms) * time.Millisecond)
}

func (d Duration) IsInfinite() bool {
	return d == InfiniteFuture
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Deadline returns the wall-clock moment at which d expires, or the
// zero Time for the infinite sentinel.
func (d Duration) Deadline(now time.Time) time.Time {
	if d.IsInfinite() {
		return time.Time{}
	}
	return now.Add(time.Duration(d))
}

// Expired reports whether a deadline produced by Deadline has passed.
// The zero Time never expires.
func Expired(deadline time.Time, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}
