package types

import "time"

// Clock abstracts wall-clock reads so the TunnelOutEndpoint sender
// state machine's backoff/time_cont pacing can be driven
// deterministically in tests, per DESIGN NOTES §9 ("Global time.time()
// reads... must be replaced by an injected monotonic clock
// abstraction"). definition.NewDefaultClock wraps
// github.com/jonboulle/clockwork's real clock; tests use
// clockwork.NewFakeClock() directly since it already satisfies this
// interface's method shape.
type Clock interface {
	Now() time.Time
	// After returns a channel that receives the current time once d
	// has elapsed. The endpoints themselves only call Now; delayed
	// wakeups go through their TriggerLoop instead.
	After(d time.Duration) <-chan time.Time
}
