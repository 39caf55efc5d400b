// Package test provides shared test harness pieces for the port
// endpoint subsystem, grounded on the teacher's test/testing.go:
// a WaitGroup-backed Invoker stand-in, a FakeTunnel capturing frames
// instead of touching a network, and the same
// WaitThisOrTimeout/PrintStackTrace helpers for bounding goroutine
// teardown in tests.
package test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jabolina/go-port/pkg/port/core"
)

// Invoker is a synchronous-teardown core.Invoker: Spawn tracks every
// goroutine in a WaitGroup so a test's deferred Stop() can block until
// all of them exit, the same shape as the teacher's TestInvoker.
type Invoker struct {
	group sync.WaitGroup
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

func (i *Invoker) Spawn(f func()) {
	i.group.Add(1)
	go func() {
		defer i.group.Done()
		f()
	}()
}

func (i *Invoker) Stop() {
	i.group.Wait()
}

// FakeTunnel implements core.Tunnel by appending every sent frame to
// Sent instead of putting it on a wire, and optionally forwarding it
// straight to a peer Dispatcher -- enough to drive a TunnelIn/Out pair
// against each other in-process without relt.
type FakeTunnel struct {
	mu   sync.Mutex
	Sent []interface{}

	// Deliver, when set, is invoked synchronously for every Send,
	// simulating the other side's dispatch without going over a real
	// transport.
	Deliver func(frame interface{})

	closed bool
}

func NewFakeTunnel() *FakeTunnel {
	return &FakeTunnel{}
}

func (f *FakeTunnel) Send(frame interface{}) error {
	f.mu.Lock()
	f.Sent = append(f.Sent, frame)
	f.mu.Unlock()
	if f.Deliver != nil {
		f.Deliver(frame)
	}
	return nil
}

func (f *FakeTunnel) Close() error {
	f.closed = true
	return nil
}

func (f *FakeTunnel) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// RecordingTrigger captures every trigger_loop(delay) invocation a
// TunnelOutEndpoint schedules, so tests can assert on pacing decisions
// without a real scheduler running.
type RecordingTrigger struct {
	mu    sync.Mutex
	Delay []time.Duration
}

func (r *RecordingTrigger) Trigger(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Delay = append(r.Delay, d)
}

func (r *RecordingTrigger) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Delay)
}

var _ core.TriggerLoop = (&RecordingTrigger{}).Trigger

// PrintStackTrace dumps every goroutine's stack to the test log, used
// when a WaitThisOrTimeout bound trips so the hang is diagnosable.
func PrintStackTrace(t *testing.T) {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	t.Errorf("%s", buf[:n])
}

// WaitThisOrTimeout runs cb in its own goroutine and reports whether
// it finished before duration elapsed.
func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan bool)
	go func() {
		cb()
		done <- true
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}

// NewTestPort builds a *core.Port with a fresh FifoQueue of the given
// capacity, the repeated setup every endpoint test needs.
func NewTestPort(id core.PortID, capacity int) *core.Port {
	return core.NewPort(id, capacity)
}
