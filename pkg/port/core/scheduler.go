package core

import (
	"sync"
	"time"
)

// Invoker spawns and tracks goroutines on behalf of the runtime,
// grounded on the teacher's core.Invoker / InvokerInstance() singleton
// (pkg/mcast/core/peer.go, core/transport.go) -- kept here purely for
// the rare background work this subsystem itself needs (ReltTunnel's
// inbound poll loop); the single-threaded cooperative executor
// (spec.md §5) owns everything else.
type Invoker interface {
	Spawn(f func())
	Stop()
}

type defaultInvoker struct {
	group sync.WaitGroup
}

func (d *defaultInvoker) Spawn(f func()) {
	d.group.Add(1)
	go func() {
		defer d.group.Done()
		f()
	}()
}

func (d *defaultInvoker) Stop() {
	d.group.Wait()
}

var (
	invokerOnce     sync.Once
	invokerInstance Invoker
)

// InvokerInstance returns the process-wide default Invoker, matching
// the teacher's InvokerInstance() singleton usage.
func InvokerInstance() Invoker {
	invokerOnce.Do(func() {
		invokerInstance = &defaultInvoker{}
	})
	return invokerInstance
}

// TriggerLoop is the wake-up callback the scheduler supplies to every
// endpoint (spec.md §4.7). delay == 0 requests an immediate
// reschedule; delay > 0 requests a wakeup no earlier than delay from
// now (used for throttled retransmission). Endpoints never block on
// this call -- it only schedules, it never waits.
type TriggerLoop func(delay time.Duration)

// NoopTrigger is a TriggerLoop that does nothing, useful for endpoints
// constructed outside a live scheduler (tests); the tunnel endpoint
// constructors substitute it for a nil trigger.
func NoopTrigger(time.Duration) {}
