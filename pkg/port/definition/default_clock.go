package definition

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jabolina/go-port/pkg/port/types"
)

// DefaultClock wraps clockwork's real clock so production code gets
// types.Clock without depending on clockwork directly outside this
// package; tests use clockwork.NewFakeClock() in its place since it
// already satisfies types.Clock's method set structurally.
type DefaultClock struct {
	clock clockwork.Clock
}

func NewDefaultClock() *DefaultClock {
	return &DefaultClock{clock: clockwork.NewRealClock()}
}

func (c *DefaultClock) Now() time.Time {
	return c.clock.Now()
}

func (c *DefaultClock) After(d time.Duration) <-chan time.Time {
	return c.clock.After(d)
}

var _ types.Clock = (*DefaultClock)(nil)
