package core

import "github.com/jabolina/go-port/pkg/port/types"

// LocalOutEndpoint is LocalInEndpoint's symmetric counterpart: it
// writes into its own port's queue, with a reader registered under the
// peer (consumer) port's id so the consumer's LocalInEndpoint can read
// through. Grounded on calvin's LocalOutEndpoint.
type LocalOutEndpoint struct {
	BaseEndpoint

	peer *Port
}

func NewLocalOutEndpoint(port, peerPort *Port, log types.Logger) *LocalOutEndpoint {
	return &LocalOutEndpoint{
		BaseEndpoint: BaseEndpoint{
			Port:                  port,
			SingleTokensAvailable: true,
			Log:                   log,
		},
		peer: peerPort,
	}
}

func (l *LocalOutEndpoint) IsConnected() bool { return true }

func (l *LocalOutEndpoint) Attached() {
	l.Port.Queue.AddReader(types.ReaderID(l.peer.ID))
}

// Detached rolls any tentative reads back to committed reads: a token
// the consumer's LocalInEndpoint peeked but never committed becomes
// readable again. This keeps the contract identical to the tunnel
// out-endpoint's detach semantics (spec.md §5).
func (l *LocalOutEndpoint) Detached() {
	l.Port.Queue.CommitReads(types.ReaderID(l.peer.ID), false)
}

func (l *LocalOutEndpoint) GetPeer() PeerDescriptor {
	return PeerDescriptor{NodeID: "local", PortID: l.peer.ID}
}

// Write appends a token to this endpoint's own port queue. Callers
// must gate on TokensAvailable first; spec.md §7 treats a write on a
// full queue as a fatal programming error, not a retryable condition.
func (l *LocalOutEndpoint) Write(t types.Token) bool {
	ok := l.Port.Queue.Write(t)
	if !ok && l.Log != nil {
		l.Log.Errorf("%v: port %s", types.ErrQueueOverflow, l.Port.ID)
	}
	return ok
}

// TokensAvailable reports producer-side backpressure: available
// output slots, not tokens.
func (l *LocalOutEndpoint) TokensAvailable(length int) bool {
	return l.Port.Queue.AvailableSlots() >= length
}

// Communicate is a no-op success for local pairing: tokens are visible
// to the peer the instant they're written, there is nothing to push.
func (l *LocalOutEndpoint) Communicate() types.CommResult {
	return types.Delivered
}
