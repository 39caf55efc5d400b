package core

import (
	"github.com/jabolina/go-port/pkg/port/types"
)

// TunnelOutEndpoint sends tokens across a Tunnel, processes ACK/NACK
// replies, and paces its sends between a fast "bulk" mode and a
// throttled, exponentially-backed-off mode. Grounded on calvin's
// TunnelOutEndpoint -- the sender state machine is spec.md §4.6's
// hardest piece, and is ported method-for-method from
// _reply_ack/_reply_nack/communicate/_send_one_token.
type TunnelOutEndpoint struct {
	BaseEndpoint

	tunnel     Tunnel
	peerNodeID string
	peerID     PortID
	trigger    TriggerLoop
	clock      types.Clock
	cfg        *types.TunnelConfiguration

	// sequencenbrsAcked holds out-of-order ACKed sequence numbers
	// above the current read_pos (spec.md §3).
	sequencenbrsAcked []uint64

	bulk     bool
	backoff  float64 // seconds
	timeCont float64 // unix seconds; earliest next throttled send
}

func NewTunnelOutEndpoint(port *Port, tunnel Tunnel, peerNodeID string, peerID PortID, trigger TriggerLoop, clock types.Clock, cfg *types.TunnelConfiguration, log types.Logger) *TunnelOutEndpoint {
	if trigger == nil {
		trigger = NoopTrigger
	}
	if cfg == nil {
		cfg = types.DefaultTunnelConfiguration()
	}
	return &TunnelOutEndpoint{
		BaseEndpoint: BaseEndpoint{
			Port:                  port,
			SingleTokensAvailable: true,
			Log:                   log,
		},
		tunnel:     tunnel,
		peerNodeID: peerNodeID,
		peerID:     peerID,
		trigger:    trigger,
		clock:      clock,
		cfg:        cfg,
		bulk:       true,
	}
}

func (o *TunnelOutEndpoint) IsConnected() bool { return true }

func (o *TunnelOutEndpoint) reader() types.ReaderID {
	return types.ReaderID(o.peerID)
}

func (o *TunnelOutEndpoint) Attached() {
	o.Port.Queue.AddReader(o.reader())
}

// Detached rolls any tentative reads back to committed reads.
// Retransmission after a reconnect replays from the committed
// position; the peer's TunnelInEndpoint deduplicates by sequence
// number (spec.md §4.6).
func (o *TunnelOutEndpoint) Detached() {
	o.Port.Queue.CommitReads(o.reader(), false)
}

func (o *TunnelOutEndpoint) GetPeer() PeerDescriptor {
	return PeerDescriptor{NodeID: o.peerNodeID, PortID: o.peerID}
}

func (o *TunnelOutEndpoint) TokensAvailable(length int) bool {
	return o.Port.Queue.AvailableSlots() >= length
}

func (o *TunnelOutEndpoint) now() float64 {
	return secondsSince(o.clock)
}

// OnTokenReply implements Dispatcher: routes an incoming TOKEN_REPLY
// to the ACK or NACK handler. ABORT is reserved and unused (spec.md §6).
func (o *TunnelOutEndpoint) OnTokenReply(frame types.TokenReplyFrame) {
	if o.Log != nil {
		o.Log.Debugf("reply on port %s/%s [%d] %s", o.Port.ID, o.peerID, frame.SequenceNbr, frame.Value)
	}
	switch frame.Value {
	case types.ReplyACK:
		o.replyAck(frame.SequenceNbr)
	case types.ReplyNACK:
		o.replyNack(frame.SequenceNbr)
	default:
		// ABORT is reserved, unused.
	}
}

// replyAck implements spec.md §4.6 "On ACK(seq)".
func (o *TunnelOutEndpoint) replyAck(seq uint64) {
	r := o.reader()
	sequencenbrSent := o.Port.Queue.TentativeReadPos(r)
	sequencenbrAcked := o.Port.Queue.ReadPos(r)

	o.bulk = true
	o.backoff = 0

	if seq < sequencenbrSent {
		o.sequencenbrsAcked = append(o.sequencenbrsAcked, seq)
	}

	for containsUint64(o.sequencenbrsAcked, sequencenbrAcked) {
		o.Port.Queue.CommitOneRead(r, true)
		o.sequencenbrsAcked = removeUint64(o.sequencenbrsAcked, sequencenbrAcked)
		sequencenbrAcked = o.Port.Queue.ReadPos(r)
	}

	// Maybe someone can fill the queue again.
	o.trigger(0)
}

// replyNack implements spec.md §4.6 "On NACK(seq)".
func (o *TunnelOutEndpoint) replyNack(seq uint64) {
	r := o.reader()
	sequencenbrSent := o.Port.Queue.TentativeReadPos(r)
	sequencenbrAcked := o.Port.Queue.ReadPos(r)

	currTime := o.now()
	if o.bulk {
		o.timeCont = currTime
	}
	if o.timeCont <= currTime {
		// Need to trigger again: either a late NACK, or we just
		// switched out of a run of ACKs.
		o.trigger(0)
	}
	o.bulk = false
	if o.backoff < o.cfg.MinBackoffSeconds {
		o.backoff = o.cfg.MinBackoffSeconds
	} else {
		o.backoff *= 2.0
	}
	if o.backoff > o.cfg.MaxBackoffSeconds {
		o.backoff = o.cfg.MaxBackoffSeconds
	}

	if seq < sequencenbrSent && seq >= sequencenbrAcked {
		// Filter out ACKs for later sequence numbers -- should not
		// happen, but this is the original's precaution
		// (SPEC_FULL.md §12).
		kept := o.sequencenbrsAcked[:0]
		for _, n := range o.sequencenbrsAcked {
			if n < seq {
				kept = append(kept, n)
			}
		}
		o.sequencenbrsAcked = kept

		for o.Port.Queue.TentativeReadPos(r) > seq {
			o.Port.Queue.CommitOneRead(r, false)
		}
	}
}

func (o *TunnelOutEndpoint) sendOneToken() bool {
	r := o.reader()
	token, ok := o.Port.Queue.Read(r)
	if !ok {
		return false
	}
	sequencenbrSent := o.Port.Queue.TentativeReadPos(r) - 1

	if o.Log != nil {
		if o.bulk {
			o.Log.Debugf("send on port %s/%s [%d]", o.Port.ID, o.peerID, sequencenbrSent)
		} else {
			o.Log.Debugf("send on port %s/%s [%d] @%f/%f", o.Port.ID, o.peerID, sequencenbrSent, o.timeCont, o.backoff)
		}
	}

	encoded, err := token.Encode()
	if err != nil {
		if o.Log != nil {
			o.Log.Errorf("failed encoding token seq %d on port %s: %v", sequencenbrSent, o.Port.ID, err)
		}
		return false
	}

	frame := types.TokenFrame{
		Cmd:           types.CmdToken,
		Token:         encoded,
		PortID:        string(o.Port.ID),
		PeerPortID:    string(o.peerID),
		SequenceNbr:   sequencenbrSent,
		ProtocolVersn: o.Port.Version,
	}
	if err := o.tunnel.Send(frame); err != nil {
		if o.Log != nil {
			o.Log.Errorf("failed sending seq %d on port %s: %v", sequencenbrSent, o.Port.ID, err)
		}
		return false
	}
	return true
}

// Communicate implements spec.md §4.6's two pacing regimes:
//
//   - bulk: drain everything available, send each token, advance
//     tentative_read_pos for each.
//   - throttled: send at most one token, and only when there is
//     something to send, every previously sent token has been ACKed
//     (tentative_read_pos == read_pos), and now >= time_cont.
func (o *TunnelOutEndpoint) Communicate() types.CommResult {
	r := o.reader()
	sent := false

	if o.bulk {
		for o.Port.Queue.CanRead(r) {
			if o.sendOneToken() {
				sent = true
			}
		}
	} else if o.Port.Queue.CanRead(r) &&
		o.Port.Queue.TentativeReadPos(r) == o.Port.Queue.ReadPos(r) &&
		o.now() >= o.timeCont {
		if o.sendOneToken() {
			sent = true
			o.timeCont = o.now() + o.backoff
			o.trigger(durationFromSeconds(o.backoff))
		}
	}

	if sent {
		return types.Delivered
	}
	return types.NotReady
}

func containsUint64(haystack []uint64, needle uint64) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}

func removeUint64(haystack []uint64, needle uint64) []uint64 {
	out := haystack[:0]
	for _, n := range haystack {
		if n != needle {
			out = append(out, n)
		}
	}
	return out
}
