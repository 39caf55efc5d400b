// Package fuzzy runs longer-lived scenarios across real goroutines,
// grounded on the teacher's fuzzy/commit_test.go: drive the endpoints
// through a background loop via an Invoker, then assert no goroutine
// outlives the test with goleak.VerifyNone, the same shutdown
// discipline the teacher's cluster tests enforce.
package fuzzy

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"

	"github.com/jabolina/go-port/pkg/port/core"
	"github.com/jabolina/go-port/pkg/port/types"
	"github.com/jabolina/go-port/test"
)

func TestTunnelEndpoints_DrainUnderBackgroundLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	producerPort := core.NewPort("producer", 32)
	consumerPort := core.NewPort("consumer", 32)

	outTunnel := test.NewFakeTunnel()
	inTunnel := test.NewFakeTunnel()

	in := core.NewTunnelInEndpoint(consumerPort, inTunnel, "node-b", producerPort.ID, nil, nil)
	out := core.NewTunnelOutEndpoint(producerPort, outTunnel, "node-a", consumerPort.ID, nil, clockwork.NewRealClock(), types.DefaultTunnelConfiguration(), nil)

	outTunnel.Deliver = func(frame interface{}) { in.OnTokenFrame(frame.(types.TokenFrame)) }
	inTunnel.Deliver = func(frame interface{}) { out.OnTokenReply(frame.(types.TokenReplyFrame)) }

	in.Attached()
	out.Attached()

	const total = 26
	for i := 0; i < total; i++ {
		producerPort.Queue.Write(types.Token{Value: []byte{byte('a' + i)}})
	}

	// The FifoQueue is deliberately unsynchronized (spec.md §5): it is
	// only ever safe to mutate and read from one goroutine at a time.
	// out.Communicate() drives in.OnTokenFrame via outTunnel.Deliver,
	// which writes into consumerPort.Queue, so the drain-completion
	// check (in.TokensAvailable) and the peek/commit loop below both
	// have to run on the same goroutine as Communicate() itself --
	// never concurrently with it from the test's own goroutine.
	invoker := test.NewInvoker()
	done := make(chan struct{})
	invoker.Spawn(func() {
		defer close(done)
		deadline := time.Now().Add(5 * time.Second)
		for !in.TokensAvailable(total) && time.Now().Before(deadline) {
			if out.Communicate() == types.NotReady {
				time.Sleep(time.Millisecond)
			}
		}
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		test.PrintStackTrace(t)
		t.Fatal("background communicate loop did not finish draining in time")
	}
	invoker.Stop()

	if !in.TokensAvailable(total) {
		t.Fatalf("expected all %d tokens delivered, available=%v", total, in.TokensAvailable(total))
	}

	for i := 0; i < total; i++ {
		tok, ok := in.PeekToken()
		if !ok || tok.Value[0] != byte('a'+i) {
			t.Fatalf("token %d out of order: got %+v ok=%v", i, tok, ok)
		}
		in.CommitPeekAsRead()
	}
}
