package core

import (
	"time"

	"github.com/jabolina/go-port/pkg/port/types"
)

// secondsSince returns clock's current time as a floating point unix
// timestamp. TunnelOutEndpoint's backoff/time_cont arithmetic is
// carried in seconds, matching the original's use of time.time()
// directly in comparisons and additions.
func secondsSince(clock types.Clock) float64 {
	t := clock.Now()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// durationFromSeconds converts a backoff expressed in floating point
// seconds into a time.Duration for scheduling a trigger_loop wakeup.
func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
