// Package scoring holds the pure arithmetic of a round: guess points,
// timer multiplier bounds and round length.
package scoring

import (
	"math"
	"time"
)

const (
	MaxPoints = 10
	MinPoints = 1
)

// Points returns the award for a correct guess made elapsedSeconds into the round.
func Points(elapsedSeconds int) int {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return max(MaxPoints-elapsedSeconds, MinPoints)
}

// ElapsedSeconds is the whole number of seconds between start and now, never negative.
func ElapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// ClampMultiplier forces m into [lo, hi]. NaN collapses to lo.
func ClampMultiplier(m, lo, hi float64) float64 {
	if math.IsNaN(m) {
		return lo
	}
	return math.Max(lo, math.Min(hi, m))
}

// RoundDuration is base scaled by multiplier and floored to whole seconds.
// The product is a plain float64, so 90s x 0.7 floors to 62, not 63. Clients
// compute the same value the same way; keep it that way.
func RoundDuration(base time.Duration, multiplier float64) int {
	return int(math.Floor(base.Seconds() * multiplier))
}

// SecondsLeft is the whole seconds remaining until end, floored, never negative.
func SecondsLeft(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
