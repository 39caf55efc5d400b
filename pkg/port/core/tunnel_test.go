package core_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jabolina/go-port/pkg/port/core"
	"github.com/jabolina/go-port/pkg/port/types"
	"github.com/jabolina/go-port/test"
)

// wire links a TunnelOutEndpoint to a TunnelInEndpoint through two
// FakeTunnels, each delivering straight into the other side's
// Dispatcher method synchronously -- enough to exercise the ACK/NACK
// protocol without relt.
func wire(t *testing.T, producerPort, consumerPort *core.Port) (*core.TunnelOutEndpoint, *core.TunnelInEndpoint) {
	t.Helper()

	outTunnel := test.NewFakeTunnel()
	inTunnel := test.NewFakeTunnel()

	in := core.NewTunnelInEndpoint(consumerPort, inTunnel, "node-b", producerPort.ID, nil, nil)
	out := core.NewTunnelOutEndpoint(producerPort, outTunnel, "node-a", consumerPort.ID, nil, clockwork.NewRealClock(), types.DefaultTunnelConfiguration(), nil)

	outTunnel.Deliver = func(frame interface{}) {
		in.OnTokenFrame(frame.(types.TokenFrame))
	}
	inTunnel.Deliver = func(frame interface{}) {
		out.OnTokenReply(frame.(types.TokenReplyFrame))
	}

	in.Attached()
	out.Attached()
	return out, in
}

func TestTunnelEndpoints_BulkPassThrough(t *testing.T) {
	producerPort := core.NewPort("producer", 8)
	consumerPort := core.NewPort("consumer", 8)
	out, in := wire(t, producerPort, consumerPort)

	for _, v := range []string{"a", "b", "c"} {
		producerPort.Queue.Write(types.Token{Value: []byte(v)})
	}

	if res := out.Communicate(); res != types.Delivered {
		t.Fatalf("expected Delivered, got %s", res)
	}

	if !in.TokensAvailable(3) {
		t.Fatal("expected all three tokens to have arrived")
	}
	for _, want := range []string{"a", "b", "c"} {
		tok, ok := in.PeekToken()
		if !ok || string(tok.Value) != want {
			t.Fatalf("expected %q, got %+v ok=%v", want, tok, ok)
		}
		in.CommitPeekAsRead()
	}
}

func TestTunnelInEndpoint_DuplicateRetransmitStillAcks(t *testing.T) {
	producerPort := core.NewPort("producer", 8)
	consumerPort := core.NewPort("consumer", 8)

	frame := types.TokenFrame{
		Cmd:           types.CmdToken,
		PortID:        "producer",
		PeerPortID:    "consumer",
		SequenceNbr:   0,
		ProtocolVersn: types.ProtocolVersion,
	}
	tok := types.Token{Value: []byte("x")}
	encoded, _ := tok.Encode()
	frame.Token = encoded

	replyTunnel := test.NewFakeTunnel()
	in := core.NewTunnelInEndpoint(consumerPort, replyTunnel, "node-b", producerPort.ID, nil, nil)
	in.Attached()

	in.OnTokenFrame(frame)
	if replyTunnel.Count() != 1 {
		t.Fatalf("expected one reply, got %d", replyTunnel.Count())
	}
	first := replyTunnel.Sent[0].(types.TokenReplyFrame)
	if first.Value != types.ReplyACK {
		t.Fatalf("expected ACK on first delivery, got %s", first.Value)
	}

	// Retransmit: the peer's ACK for seq 0 was lost, so it resends the
	// same frame. write_pos is now 1, ahead of the retransmitted
	// sequence number -- this must still ACK without rewriting the
	// queue (spec.md §4.5 property 5).
	in.OnTokenFrame(frame)
	if replyTunnel.Count() != 2 {
		t.Fatalf("expected a second reply for the retransmit, got %d", replyTunnel.Count())
	}
	second := replyTunnel.Sent[1].(types.TokenReplyFrame)
	if second.Value != types.ReplyACK {
		t.Fatalf("expected ACK on duplicate retransmit, got %s", second.Value)
	}

	if in.TokensAvailable(2) {
		t.Fatal("the duplicate retransmit must not have been written to the queue a second time")
	}
}

func TestTunnelOutEndpoint_NackTriggersThrottledBackoff(t *testing.T) {
	producerPort := core.NewPort("producer", 8)
	consumerPort := core.NewPort("consumer", 8)

	clock := clockwork.NewFakeClock()
	outTunnel := test.NewFakeTunnel()
	trigger := &test.RecordingTrigger{}

	out := core.NewTunnelOutEndpoint(producerPort, outTunnel, "node-a", consumerPort.ID, trigger.Trigger, clock, types.DefaultTunnelConfiguration(), nil)
	out.Attached()

	producerPort.Queue.Write(types.Token{Value: []byte("a")})
	producerPort.Queue.Write(types.Token{Value: []byte("b")})

	if res := out.Communicate(); res != types.Delivered {
		t.Fatalf("expected bulk send to deliver, got %s", res)
	}
	if outTunnel.Count() != 2 {
		t.Fatalf("expected both tokens sent in bulk mode, got %d", outTunnel.Count())
	}

	// A NACK for the first sequence number switches to throttled mode
	// and sets the minimum backoff.
	out.OnTokenReply(types.TokenReplyFrame{SequenceNbr: 0, Value: types.ReplyNACK})

	clock.Advance(200 * time.Millisecond)

	// The NACK retracted tentative_read_pos back to 0 (== read_pos), so
	// once time_cont has passed a throttled Communicate resends exactly
	// one token, the NACKed one, and schedules the next wakeup after the
	// minimum backoff.
	res := out.Communicate()
	if res != types.Delivered {
		t.Fatalf("expected the throttled resend to deliver, got %s", res)
	}
	if outTunnel.Count() != 3 {
		t.Fatalf("expected exactly one throttled resend, got %d frames in total", outTunnel.Count())
	}
	resent := outTunnel.Sent[2].(types.TokenFrame)
	if resent.SequenceNbr != 0 {
		t.Fatalf("expected the NACKed sequence number 0 to be resent, got %d", resent.SequenceNbr)
	}
	if last := trigger.Delay[len(trigger.Delay)-1]; last != 100*time.Millisecond {
		t.Fatalf("expected a wakeup after the 100ms minimum backoff, got %s", last)
	}
}
